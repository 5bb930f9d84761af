// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

package modules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"

	"github.com/driftwood-mud/driftwood/lib/mudlog"
)

const (
	// Suffix is the recognized module file suffix.
	Suffix = ".so"

	// Marker is the file whose presence makes a directory a module
	// package: the directory loads as a single unit through it.
	Marker = "init.so"
)

// ErrMissingDirectory is returned when the modules directory does not
// exist in the world library.
var ErrMissingDirectory = errors.New("cannot find the modules directory")

// SetupFunc is the entry point every module exports as "Setup".
type SetupFunc = func(*Registry) error

// openModule opens a shared object and resolves its Setup entry
// point. A package-level variable so tests can drive the loader
// without building real shared objects, in the spirit of overriding
// exec for plugin dispatch tests.
var openModule = func(path string) (SetupFunc, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := p.Lookup("Setup")
	if err != nil {
		return nil, err
	}
	setup, ok := sym.(func(*Registry) error)
	if !ok {
		return nil, fmt.Errorf("Setup has type %T, want func(*modules.Registry) error", sym)
	}
	return setup, nil
}

// Load discovers the modules under dir and loads them in order,
// invoking each module's Setup with reg. The returned manifest always
// reflects what was discovered; on error it records which entry
// failed and which were never attempted.
func Load(dir string, reg *Registry, log *mudlog.Logger) (Manifest, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w at %s", ErrMissingDirectory, dir)
	}

	manifest, err := discover(dir)
	if err != nil {
		return nil, err
	}

	for i := range manifest {
		entry := &manifest[i]
		log.Debug("loading module", "module", entry.Name)

		setup, err := openModule(entry.Path)
		if err == nil {
			err = setup(reg)
		}
		if err != nil {
			entry.Status = StatusFailed
			importErr := &ImportError{Name: entry.Name, Path: entry.Path, Err: err}
			log.Exception("an error occurred while loading a module", err,
				"module", entry.Name, "path", entry.Path)
			return manifest, importErr
		}
		entry.Status = StatusLoaded
	}
	return manifest, nil
}

// discover builds the pending manifest for dir. When dir itself
// carries the package marker it is the entire manifest; otherwise its
// direct children are scanned in lexical order.
func discover(dir string) (Manifest, error) {
	if marker := filepath.Join(dir, Marker); fileExists(marker) {
		return Manifest{{Name: filepath.Base(dir), Path: marker}}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading modules directory: %w", err)
	}

	var manifest Manifest
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(dir, name)

		if entry.IsDir() {
			marker := filepath.Join(full, Marker)
			if !fileExists(marker) {
				continue
			}
			manifest = append(manifest, Entry{Name: name, Path: marker})
			continue
		}

		if !strings.HasSuffix(name, Suffix) {
			continue
		}
		manifest = append(manifest, Entry{
			Name: strings.TrimSuffix(name, Suffix),
			Path: full,
		})
	}
	return manifest, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
