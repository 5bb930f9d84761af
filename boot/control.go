// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

package boot

import "sync/atomic"

// Event classifies how the run loop ended. It is produced at most
// once per process run and consumed exactly once by the supervisor to
// pick the shutdown path.
type Event uint8

const (
	// eventUndecided is the zero value: nothing has fired yet. A
	// latch still undecided when the loop returns reads as
	// EventNormal.
	eventUndecided Event = iota

	// EventNormal: the engine stopped because it was asked to.
	EventNormal

	// EventCopyover: a hot-restart was requested during the loop.
	EventCopyover

	// EventInterrupted: an operator interrupt arrived during the
	// loop. A control path, not an error.
	EventInterrupted
)

// String returns the event name.
func (e Event) String() string {
	switch e {
	case eventUndecided:
		return "undecided"
	case EventNormal:
		return "normal"
	case EventCopyover:
		return "copyover"
	case EventInterrupted:
		return "interrupted"
	}
	return "unknown"
}

// Latch is the write-once control event slot. Whichever cause fires
// first decides the terminal value; every later trigger is a no-op.
// The single store is atomic, so triggering from the signal bridge's
// goroutine needs no further synchronization.
type Latch struct {
	value atomic.Uint32
}

// Trigger records event as the terminal control event if none has
// been recorded yet. Returns true when this call decided the value.
func (l *Latch) Trigger(event Event) bool {
	return l.value.CompareAndSwap(uint32(eventUndecided), uint32(event))
}

// Value returns the terminal control event. An untriggered latch
// reads as EventNormal: the loop ended without any asynchronous cause.
func (l *Latch) Value() Event {
	event := Event(l.value.Load())
	if event == eventUndecided {
		return EventNormal
	}
	return event
}
