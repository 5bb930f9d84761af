// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package boot

import (
	"os"

	"golang.org/x/sys/unix"
)

func copyoverSignals() []os.Signal {
	return []os.Signal{unix.SIGHUP}
}

func interruptSignals() []os.Signal {
	return []os.Signal{os.Interrupt, unix.SIGTERM}
}

func isCopyoverSignal(sig os.Signal) bool {
	return sig == unix.SIGHUP
}
