// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Package engine implements the cooperative event loop the server
// runs under.
//
// The loop ticks at a fixed pulse rate. Each pulse runs, in order,
// the deferred events that have come due and the callbacks queued for
// the next pulse, all on the loop goroutine. Stop requests are
// honored at pulse boundaries only: a pulse that has started runs to
// completion, which is what makes the boundary a safe point for
// asynchronous callers like the signal bridge.
package engine

import (
	"container/heap"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
)

// DefaultPulsesPerSecond is used when the world settings do not
// configure a pulse rate.
const DefaultPulsesPerSecond = 10

// Loop is the cooperative event loop. Create one with New; Start
// blocks until Stop.
type Loop struct {
	clock clock.WithTicker
	pulse time.Duration

	stopC    chan struct{}
	stopOnce sync.Once
	started  atomic.Bool

	mu       sync.Mutex
	queued   []func()
	deferred eventHeap
	seq      uint64
}

// New creates a loop ticking pulsesPerSecond times per second. A
// non-positive rate falls back to DefaultPulsesPerSecond. The clock
// is injectable for tests; pass clock.RealClock{} in production.
func New(pulsesPerSecond int, clk clock.WithTicker) *Loop {
	if pulsesPerSecond <= 0 {
		pulsesPerSecond = DefaultPulsesPerSecond
	}
	return &Loop{
		clock: clk,
		pulse: time.Second / time.Duration(pulsesPerSecond),
		stopC: make(chan struct{}),
	}
}

// Start runs the loop on the calling goroutine and blocks until Stop
// is called. It may be invoked at most once per Loop.
func (l *Loop) Start() error {
	if !l.started.CompareAndSwap(false, true) {
		return fmt.Errorf("engine: loop already started")
	}

	ticker := l.clock.NewTicker(l.pulse)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopC:
			return nil
		case <-ticker.C():
			l.runPulse()
		}
	}
}

// Stop requests the loop to exit at the next safe point. Idempotent
// and safe to call from any goroutine, including before Start.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopC) })
}

// NextPulse queues fn to run on the next pulse, on the loop
// goroutine.
func (l *Loop) NextPulse(fn func()) {
	l.mu.Lock()
	l.queued = append(l.queued, fn)
	l.mu.Unlock()
}

// Defer schedules fn to run on the first pulse at or after delay from
// now. The returned function de-schedules the event; calling it after
// the event has run is a no-op.
func (l *Loop) Defer(delay time.Duration, fn func()) (cancel func()) {
	event := &deferredEvent{
		due: l.clock.Now().Add(delay),
		fn:  fn,
	}

	l.mu.Lock()
	l.seq++
	event.seq = l.seq
	heap.Push(&l.deferred, event)
	l.mu.Unlock()

	return func() { event.cancelled.Store(true) }
}

// runPulse executes due deferred events and queued callbacks. The
// work list is snapshotted under the lock and run outside it so event
// functions may schedule further work.
func (l *Loop) runPulse() {
	now := l.clock.Now()

	l.mu.Lock()
	var work []func()
	for len(l.deferred) > 0 && !l.deferred[0].due.After(now) {
		event := heap.Pop(&l.deferred).(*deferredEvent)
		if !event.cancelled.Load() {
			work = append(work, event.fn)
		}
	}
	work = append(work, l.queued...)
	l.queued = nil
	l.mu.Unlock()

	for _, fn := range work {
		fn()
	}
}

// deferredEvent is a scheduled one-shot event. Cancellation is a flag
// rather than a heap removal; cancelled events are dropped when they
// surface.
type deferredEvent struct {
	due       time.Time
	seq       uint64
	fn        func()
	cancelled atomic.Bool
}

// eventHeap orders deferred events by due time, then by scheduling
// order for equal times.
type eventHeap []*deferredEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*deferredEvent)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	event := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return event
}
