// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package boot

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func TestDeliverClassifiesSignals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sig  os.Signal
		want Event
	}{
		{name: "hangup is copyover", sig: unix.SIGHUP, want: EventCopyover},
		{name: "interrupt", sig: os.Interrupt, want: EventInterrupted},
		{name: "terminate", sig: unix.SIGTERM, want: EventInterrupted},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			var latch Latch
			stops := 0
			b := &Bridge{latch: &latch, stop: func() { stops++ }}

			b.deliver(test.sig)

			if got := latch.Value(); got != test.want {
				t.Errorf("latch = %v, want %v", got, test.want)
			}
			if stops != 1 {
				t.Errorf("stop called %d times, want 1", stops)
			}
		})
	}
}

func TestRepeatedDeliveriesKeepFirstEvent(t *testing.T) {
	t.Parallel()

	var latch Latch
	stops := 0
	b := &Bridge{latch: &latch, stop: func() { stops++ }}

	// A hang-up storm followed by an interrupt: the control event is
	// decided by the first delivery, but every delivery still asks the
	// engine to stop.
	b.deliver(unix.SIGHUP)
	b.deliver(unix.SIGHUP)
	b.deliver(os.Interrupt)

	if got := latch.Value(); got != EventCopyover {
		t.Errorf("latch = %v, want the first delivery's copyover", got)
	}
	if stops != 3 {
		t.Errorf("stop called %d times, want once per delivery", stops)
	}
}

func TestRegisterSignalsLifecycle(t *testing.T) {
	t.Parallel()

	var latch Latch
	bridge := RegisterSignals(&latch, func() {})
	bridge.Close()

	// The watcher has drained; an untriggered latch still reads normal.
	if got := latch.Value(); got != EventNormal {
		t.Errorf("latch = %v after a quiet lifecycle, want normal", got)
	}
}
