// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

package boot

import (
	"os"
	"os/signal"
)

// Bridge converts OS signals into the single control event. A
// hang-up requests a copyover; an interrupt or termination request
// reads as an operator interrupt.
//
// The asynchronous path does exactly two things: latch the control
// event and ask the engine to stop. All real work happens on the
// supervisor's goroutine once the engine returns at a safe point, so
// no business logic ever runs at an arbitrary suspension point, and
// repeated deliveries cannot re-fire the shutdown sequence (the latch
// is write-once and the engine stop is idempotent).
type Bridge struct {
	latch *Latch
	stop  func()
	ch    chan os.Signal
	done  chan struct{}
}

// RegisterSignals installs the signal bridge. Called exactly once,
// after module loading and before the run loop starts. Platforms
// without a hang-up signal simply never produce a copyover event.
func RegisterSignals(latch *Latch, stop func()) *Bridge {
	b := &Bridge{
		latch: latch,
		stop:  stop,
		ch:    make(chan os.Signal, 1),
		done:  make(chan struct{}),
	}

	watched := append(copyoverSignals(), interruptSignals()...)
	signal.Notify(b.ch, watched...)
	go b.watch()
	return b
}

func (b *Bridge) watch() {
	defer close(b.done)
	for sig := range b.ch {
		b.deliver(sig)
	}
}

// deliver marks the control event for one signal delivery and
// requests an engine stop. Nothing else belongs here.
func (b *Bridge) deliver(sig os.Signal) {
	event := EventInterrupted
	if isCopyoverSignal(sig) {
		event = EventCopyover
	}
	b.latch.Trigger(event)
	b.stop()
}

// Close unregisters the bridge and waits for its goroutine to drain.
func (b *Bridge) Close() {
	signal.Stop(b.ch)
	close(b.ch)
	<-b.done
}
