// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity resolves and applies the process identity (uid,
// gid, umask) for the server.
//
// The server is typically started as root so it can bind privileged
// ports, then drops to an unprivileged identity before (or just
// after, with --early) the world library's modules run. The drop is
// one-way: there is no API to regain privilege, and the transition
// refuses to leave the process running as root unless uid 0 was
// requested explicitly.
package identity

import (
	"errors"
	"fmt"
)

// Spec is the requested identity. Each field may be a user/group name
// or a numeric id; an empty field falls back to the corresponding key
// ("uid", "gid", "umask") in the world settings.
type Spec struct {
	UID   string
	GID   string
	Umask string
}

// Resolved is the effective identity actually applied. The Has*
// fields report which values were resolved; applied changes are
// irreversible for the remainder of the process lifetime.
type Resolved struct {
	UID   int
	GID   int
	Umask int

	HasUID   bool
	HasGID   bool
	HasUmask bool
}

// Defaults supplies fallback identity values for fields the Spec
// leaves empty. *settings.Store satisfies it.
type Defaults interface {
	Str(key string) string
}

// ResolutionError reports a user or group name that does not exist on
// the system.
type ResolutionError struct {
	Kind string // "user" or "group"
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no such %s %q", e.Kind, e.Name)
}

// ApplyError reports an identity change the operating system denied.
type ApplyError struct {
	Kind string // "uid" or "gid"
	ID   int
	Err  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("unable to assume the %s %d: %v", e.Kind, e.ID, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// ErrRootExecution is returned when, after the uid step, the process
// is still effectively root without uid 0 having been explicitly
// requested.
var ErrRootExecution = errors.New("refusing to run as root without an explicit uid of 0")
