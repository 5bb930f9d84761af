// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package modules discovers and loads the world library's extension
// modules.
//
// Modules are Go plugins (shared objects) living in the library's
// "modules" directory. Discovery is deterministic: entries load in
// lexical order, so a module may rely on everything that sorts before
// it having registered already. Loading is fail-fast: the first
// module that cannot be loaded aborts the boot, and nothing after it
// is attempted. A world running with a silently incomplete module set
// is worse than one that refuses to start.
//
// Every module exports a single entry point:
//
//	func Setup(reg *modules.Registry) error
//
// invoked explicitly by the loader. Registration happens through the
// registry handed in, never through load-time side effects.
package modules

import "fmt"

// Status is the load state of a manifest entry.
type Status uint8

const (
	// StatusPending means the module was discovered but not yet
	// attempted.
	StatusPending Status = iota
	// StatusLoaded means the module's Setup completed.
	StatusLoaded
	// StatusFailed means opening the module or running its Setup
	// failed.
	StatusFailed
)

// String returns the lower-case status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Entry is one discovered module.
type Entry struct {
	// Name is the module name: the file name without the module
	// suffix, or the directory name for package directories.
	Name string

	// Path is the full path of the shared object to load.
	Path string

	// Status is the entry's load state.
	Status Status
}

// Manifest is the ordered set of discovered modules. The order is the
// load order. Built fresh on every startup, never persisted.
type Manifest []Entry

// ImportError reports the first module that failed to load. Modules
// after it in the manifest were never attempted.
type ImportError struct {
	Name string
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("loading module %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }
