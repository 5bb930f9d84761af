// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

package modules

import (
	"time"

	"github.com/driftwood-mud/driftwood/lib/hooks"
	"github.com/driftwood-mud/driftwood/lib/mudlog"
	"github.com/driftwood-mud/driftwood/lib/settings"
	"github.com/driftwood-mud/driftwood/network"
)

// Engine is the scheduling surface modules see. The production
// implementation is the server's pulse loop.
type Engine interface {
	// Defer schedules fn after delay; the returned function cancels
	// the event.
	Defer(delay time.Duration, fn func()) (cancel func())

	// NextPulse runs fn on the next pulse, on the loop goroutine.
	NextPulse(fn func())

	// Stop requests a clean server shutdown at the next safe point.
	Stop()
}

// Registry is the dependency surface handed to every module's Setup.
// Modules reach the server's subsystems only through this value;
// there is no ambient global to mutate or import.
type Registry struct {
	// Log is the server logger.
	Log *mudlog.Logger

	// Settings is the world configuration store.
	Settings *settings.Store

	// Hooks is the named-event callback registry. Most module
	// registration happens here.
	Hooks *hooks.Registry

	// Engine schedules deferred events and per-pulse callbacks.
	Engine Engine

	// Network exposes the bound listeners.
	Network *network.Servers

	// Compat reports that the loaded library is a NakedMud-era one
	// and modules should enable their legacy behaviors. Set from the
	// "nakedmud_compatible" world setting.
	Compat bool
}
