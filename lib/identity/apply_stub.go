// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package identity

import "github.com/driftwood-mud/driftwood/lib/mudlog"

// Supported reports whether identity transitions exist on this
// platform.
func Supported() bool { return false }

// Apply is a no-op on platforms without unix process identities. The
// boot supervisor skips the identity phases when Supported is false;
// this stub keeps the package compiling there.
func Apply(Spec, Defaults, *mudlog.Logger) (Resolved, error) {
	return Resolved{}, nil
}
