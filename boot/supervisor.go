// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package boot sequences the Driftwood server from process start to a
// clean stop.
//
// The supervisor runs a fixed phase order, each phase a precondition
// for the next:
//
//	ConfigLoad → NetworkInit → [EarlyIdentity] → CompatibilityShim →
//	ModuleLoad → [LateIdentity] → SignalRegister → RunLoop →
//	ShutdownHooks
//
// Exactly one of the identity phases runs, selected by the --early
// flag: early means modules execute under the already-reduced
// privilege, late means modules run with the original privilege and
// the drop happens just before the run loop (so a root-started server
// can bind privileged ports first).
//
// Every fatal precondition failure is handled where it is detected:
// log, flush the logger, terminate. Nothing retries at this layer.
package boot

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/utils/clock"

	"github.com/driftwood-mud/driftwood/engine"
	"github.com/driftwood-mud/driftwood/lib/hooks"
	"github.com/driftwood-mud/driftwood/lib/identity"
	"github.com/driftwood-mud/driftwood/lib/modules"
	"github.com/driftwood-mud/driftwood/lib/mudlog"
	"github.com/driftwood-mud/driftwood/lib/settings"
	"github.com/driftwood-mud/driftwood/network"
)

// Engine is the run-loop collaborator. Start blocks until Stop; the
// supervisor invokes Start exactly once and classifies why it
// returned through the control latch.
type Engine interface {
	modules.Engine
	Start() error
}

// ShutdownHook is the hook name run exactly once after the run loop
// returns, whatever the outcome.
const ShutdownHook = "shutdown"

// Config carries the command-line inputs the supervisor acts on.
type Config struct {
	// LibraryPath is the world library root. It must contain a
	// configuration marker file.
	LibraryPath string

	// BindAddr and HTTPAddr override the configured listening
	// addresses; empty values fall back to the world settings.
	BindAddr string
	HTTPAddr string

	// Identity is the requested process identity.
	Identity identity.Spec

	// EarlyIdentity applies the identity transition before any
	// library module runs instead of just before the run loop.
	EarlyIdentity bool

	// CopyoverHandoff is the hot-restart handoff argument. Reserved:
	// recorded and reported, never acted on.
	CopyoverHandoff string
}

// Supervisor owns the boot state machine. Collaborators are function
// fields so tests substitute them without touching process state.
type Supervisor struct {
	cfg   Config
	log   *mudlog.Logger
	hooks *hooks.Registry
	latch Latch

	loadSettings      func(dir string, log *mudlog.Logger) (*settings.Store, error)
	initNetwork       func(bind, http string, store *settings.Store, log *mudlog.Logger) (*network.Servers, error)
	identitySupported func() bool
	applyIdentity     func(spec identity.Spec, defaults identity.Defaults, log *mudlog.Logger) (identity.Resolved, error)
	loadModules       func(dir string, reg *modules.Registry, log *mudlog.Logger) (modules.Manifest, error)
	newEngine         func(pulsesPerSecond int) Engine
	registerSignals   func(latch *Latch, stop func()) *Bridge
	chdir             func(dir string) error
}

// New creates a supervisor with the production collaborators wired
// in. The hook registry is externally owned: the supervisor only
// hands it to modules and runs the shutdown hook on it.
func New(cfg Config, hookSet *hooks.Registry, log *mudlog.Logger) *Supervisor {
	return &Supervisor{
		cfg:               cfg,
		log:               log,
		hooks:             hookSet,
		loadSettings:      settings.Load,
		initNetwork:       network.Initialize,
		identitySupported: identity.Supported,
		applyIdentity:     identity.Apply,
		loadModules:       modules.Load,
		newEngine: func(pulsesPerSecond int) Engine {
			return engine.New(pulsesPerSecond, clock.RealClock{})
		},
		registerSignals: RegisterSignals,
		chdir:           os.Chdir,
	}
}

// ModulesDir is the world library subdirectory scanned for extension
// modules.
const ModulesDir = "modules"

// Run executes the boot sequence and blocks until the server stops.
// A nil return means a clean stop (any of the three loop outcomes);
// an error means a fatal precondition failure, already logged, and
// the process should exit non-zero. The logger is flushed on every
// path before Run returns.
func (s *Supervisor) Run() error {
	defer s.log.Shutdown()

	// Enter the world library.
	libPath, err := filepath.Abs(s.cfg.LibraryPath)
	if err != nil {
		s.log.Error("cannot resolve the world library path",
			"path", s.cfg.LibraryPath, "error", err)
		return fmt.Errorf("resolving world library path: %w", err)
	}
	if info, statErr := os.Stat(libPath); statErr != nil || !info.IsDir() || !settings.Present(libPath) {
		s.log.Error("cannot find the world library", "path", libPath)
		return fmt.Errorf("cannot find the world library at %s", libPath)
	}
	if wd, wdErr := os.Getwd(); wdErr == nil && wd != libPath {
		s.log.Info("changing working directory", "path", libPath)
	}
	if err := s.chdir(libPath); err != nil {
		s.log.Error("cannot enter the world library", "path", libPath, "error", err)
		return fmt.Errorf("entering world library: %w", err)
	}

	// ConfigLoad.
	s.log.Info("loading the world configuration")
	store, err := s.loadSettings(".", s.log)
	if err != nil {
		s.log.Error("failed to load the world configuration", "error", err)
		return err
	}
	store.OnChange(func(key string, value any) {
		s.hooks.Run("setting_changed", key, value)
	})

	// NetworkInit. Listeners bind before a late identity drop so a
	// root-started server can claim privileged ports.
	s.log.Info("initializing the network")
	servers, err := s.initNetwork(s.cfg.BindAddr, s.cfg.HTTPAddr, store, s.log)
	if err != nil {
		s.log.Error("failed to initialize the network", "error", err)
		return err
	}
	defer servers.StopListeners()

	// EarlyIdentity.
	if s.cfg.EarlyIdentity {
		if err := s.transitionIdentity(store); err != nil {
			return err
		}
	}

	// CompatibilityShim: assemble the registry every module receives.
	// A legacy library gets an explicit flag on the registry rather
	// than any ambient injection.
	loop := s.newEngine(pulseRate(store))
	reg := &modules.Registry{
		Log:      s.log,
		Settings: store,
		Hooks:    s.hooks,
		Engine:   loop,
		Network:  servers,
	}
	if store.Bool("nakedmud_compatible") {
		s.log.Info("enabling NakedMud compatibility for modules")
		reg.Compat = true
	}

	// ModuleLoad.
	s.log.Info("loading the world library modules")
	manifest, err := s.loadModules(ModulesDir, reg, s.log)
	if err != nil {
		return err
	}
	s.log.Info("world library modules loaded", "count", len(manifest))

	// Copyover recovery would reconstruct live connections here; the
	// handoff protocol is undefined, so a handoff argument only gets
	// a warning.
	if s.cfg.CopyoverHandoff != "" {
		s.log.Warning("copyover recovery is not implemented; starting fresh")
	}

	// LateIdentity.
	if !s.cfg.EarlyIdentity {
		if err := s.transitionIdentity(store); err != nil {
			return err
		}
	}

	// SignalRegister: exactly once, after module loading, before the
	// loop.
	bridge := s.registerSignals(&s.latch, loop.Stop)
	defer bridge.Close()

	// RunLoop.
	s.log.Info("entering the game loop")
	if err := loop.Start(); err != nil {
		s.log.Error("the game loop failed to start", "error", err)
		return err
	}

	switch outcome := s.latch.Value(); outcome {
	case EventCopyover:
		s.log.Warning("copyover requested, but the copyover mechanism is not implemented")
	case EventInterrupted:
		s.log.Info("interrupted; shutting down")
	default:
		s.log.Info("game loop stopped")
	}

	servers.StopListeners()

	// ShutdownHooks: unconditionally, exactly once, only after the
	// loop has fully returned.
	s.hooks.Run(ShutdownHook)

	s.log.Info("exiting normally")
	return nil
}

// transitionIdentity applies the configured identity, with the world
// settings as the fallback source. A no-op on platforms without unix
// identities.
func (s *Supervisor) transitionIdentity(store *settings.Store) error {
	if !s.identitySupported() {
		return nil
	}
	_, err := s.applyIdentity(s.cfg.Identity, store, s.log)
	return err
}

// pulseRate reads the configured pulse rate, falling back to the
// engine default.
func pulseRate(store *settings.Store) int {
	if rate, ok := store.Int("pulses_per_second"); ok {
		return rate
	}
	return engine.DefaultPulsesPerSecond
}
