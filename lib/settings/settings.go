// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings loads and saves the world configuration.
//
// A world library carries its configuration in a file named "config"
// at the library root, parsed as YAML. Legacy JSON config files parse
// unchanged (YAML is a superset of JSON). A library with a "muddata"
// file instead is a NakedMud-era library: it gets compatibility
// defaults and a warning, and settings are not written back to it.
//
// The store doubles as the fallback source for identity defaults: the
// privilege transition reads the "uid", "gid" and "umask" keys when
// the operator does not supply them on the command line.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/driftwood-mud/driftwood/lib/mudlog"
)

// Marker file names that identify a directory as a world library.
const (
	markerConfig = "config"
	markerLegacy = "muddata"
)

// Present reports whether dir contains a world configuration marker
// file. The boot sequence refuses library paths where this is false.
func Present(dir string) bool {
	for _, marker := range []string{markerConfig, markerLegacy} {
		if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// Store holds the world settings. Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	values   map[string]any
	path     string // save-back target; empty disables saving
	log      *mudlog.Logger
	onChange func(key string, value any)
}

// Load reads the world configuration from libraryPath and seeds
// default values for settings the file omits.
func Load(libraryPath string, log *mudlog.Logger) (*Store, error) {
	store := &Store{
		values: make(map[string]any),
		log:    log,
	}

	configPath := filepath.Join(libraryPath, markerConfig)
	legacyPath := filepath.Join(libraryPath, markerLegacy)

	switch {
	case fileExists(configPath):
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("reading configuration: %w", err)
		}
		if err := yaml.Unmarshal(data, &store.values); err != nil {
			return nil, fmt.Errorf("parsing configuration %s: %w", configPath, err)
		}
		if store.values == nil {
			store.values = make(map[string]any)
		}
		store.path = configPath

	case fileExists(legacyPath):
		log.Warning("using default configuration for a NakedMud library")
		store.values["storage_engine"] = "nakedmud"
		store.values["template_engine"] = "nakedmud"
		store.values["nakedmud_compatible"] = true
		// Legacy muddata files are not rewritten as YAML.

	default:
		return nil, fmt.Errorf("unable to find a world configuration file in %s", libraryPath)
	}

	store.seedDefaults()

	if store.path != "" {
		if err := store.Save(); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// seedDefaults fills in values for settings the configuration file
// does not carry.
func (s *Store) seedDefaults() {
	defaults := map[string]any{
		"pulses_per_second": 10,
		"main_addr":         ":4000",
		"http_addr":         ":8080",
	}
	if s.Bool("nakedmud_compatible") {
		defaults["start_room"] = "tavern_entrance@examples"
	} else {
		defaults["start_room"] = "house@examples"
	}
	for key, value := range defaults {
		if _, ok := s.values[key]; !ok {
			s.values[key] = value
		}
	}
}

// Get returns the raw value for key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

// Str returns the value for key rendered as a string, or "" when the
// key is absent. Numeric values render in decimal, so a configured
// "uid: 1000" satisfies the identity spec's string contract.
func (s *Store) Str(key string) string {
	value, ok := s.Get(key)
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

// Int returns the value for key as an int, reporting false when the
// key is absent or not numeric.
func (s *Store) Int(key string) (int, bool) {
	value, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Bool returns the value for key as a bool; absent or non-bool keys
// are false.
func (s *Store) Bool(key string) bool {
	value, ok := s.Get(key)
	if !ok {
		return false
	}
	b, ok := value.(bool)
	return ok && b
}

// OnChange registers a callback fired after every Set. The boot
// sequence wires this to the "setting_changed" hook.
func (s *Store) OnChange(fn func(key string, value any)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Set stores a value, fires the change callback, and saves the
// configuration back to file.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	onChange := s.onChange
	s.mu.Unlock()

	if onChange != nil {
		onChange(key, value)
	}
	if err := s.Save(); err != nil {
		s.log.Warning("could not save world settings", "error", err)
	}
}

// Save writes the settings back to the configuration file. Writes go
// to a temporary file in the same directory and are renamed into
// place so readers never see a partial configuration. A store loaded
// from a legacy muddata library has no save target and Save is a
// no-op.
func (s *Store) Save() error {
	s.mu.Lock()
	path := s.path
	data, err := yaml.Marshal(s.values)
	s.mu.Unlock()

	if path == "" {
		return nil
	}
	if err != nil {
		return fmt.Errorf("encoding world settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*")
	if err != nil {
		return fmt.Errorf("saving world settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("saving world settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("saving world settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("saving world settings: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
