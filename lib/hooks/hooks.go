// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package hooks provides the named-event callback registry for the
// Driftwood server. Server subsystems and loaded modules register
// functions against hook names ("receive_connection", "shutdown", ...)
// and the owner of an event runs all functions registered for it.
//
// Functions run in priority order (higher first); functions with equal
// priority run in registration order. A function may return ErrStop to
// prevent the remaining functions from running for that event. Any
// other error, and any panic, is logged and does not interrupt the
// run: one misbehaving module must not silence the rest.
package hooks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/driftwood-mud/driftwood/lib/mudlog"
)

// ErrStop, returned from a hook function, stops the remaining
// functions registered for the event from running during this Run.
var ErrStop = fmt.Errorf("hooks: stop iteration")

// Func is a hook callback. The arguments are whatever the event owner
// passed to Run.
type Func func(args ...any) error

// Handle identifies a registration for later removal.
type Handle uint64

// Registry is a table of named hooks. Safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	log    *mudlog.Logger
	table  map[string][]entry
	nextID Handle
}

type entry struct {
	id       Handle
	priority int
	fn       Func
}

// NewRegistry creates an empty hook registry. Errors and panics from
// hook functions are reported through log.
func NewRegistry(log *mudlog.Logger) *Registry {
	return &Registry{
		log:   log,
		table: make(map[string][]entry),
	}
}

// Add registers fn for the named hook at priority 0.
func (r *Registry) Add(name string, fn Func) Handle {
	return r.AddPriority(name, 0, fn)
}

// AddPriority registers fn for the named hook. Functions with higher
// priorities run sooner when the hook is executed.
func (r *Registry) AddPriority(name string, priority int, fn Func) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	entries := append(r.table[name], entry{id: id, priority: priority, fn: fn})
	// Stable sort keeps registration order within a priority.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority > entries[j].priority
	})
	r.table[name] = entries
	return id
}

// Remove unregisters the given handle from the named hook. Returns
// true if a registration was removed.
func (r *Registry) Remove(name string, id Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.table[name]
	for i, e := range entries {
		if e.id == id {
			r.table[name] = append(entries[:i:i], entries[i+1:]...)
			if len(r.table[name]) == 0 {
				delete(r.table, name)
			}
			return true
		}
	}
	return false
}

// Run executes every function registered for the named hook, in
// priority order, passing args to each. Unknown hook names are a
// no-op.
func (r *Registry) Run(name string, args ...any) {
	r.mu.Lock()
	entries := make([]entry, len(r.table[name]))
	copy(entries, r.table[name])
	r.mu.Unlock()

	for _, e := range entries {
		if stop := r.invoke(name, e.fn, args); stop {
			break
		}
	}
}

// invoke calls one hook function, converting a panic into a logged
// error. Returns true if iteration should stop.
func (r *Registry) invoke(name string, fn Func, args []any) (stop bool) {
	defer func() {
		if recovered := recover(); recovered != nil {
			r.log.Exception("panic in hook function",
				fmt.Errorf("%v", recovered), "hook", name)
		}
	}()

	err := fn(args...)
	switch {
	case err == nil:
		return false
	case err == ErrStop:
		return true
	default:
		r.log.Exception("error running hook function", err, "hook", name)
		return false
	}
}
