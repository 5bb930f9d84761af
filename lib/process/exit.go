// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the shared entrypoint error handling for
// Driftwood binaries.
package process

import (
	"fmt"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. This is
// the standard Driftwood binary entrypoint error handler. By the time
// run() returns an error the boot supervisor has already flushed the
// structured logger, so a plain stderr line is all that remains to do.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
