// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

package boot

import (
	"sync"
	"testing"
)

func TestLatchDefaultsToNormal(t *testing.T) {
	t.Parallel()

	var latch Latch
	if got := latch.Value(); got != EventNormal {
		t.Errorf("untriggered latch reads %v, want normal", got)
	}
}

func TestLatchIsWriteOnce(t *testing.T) {
	t.Parallel()

	var latch Latch
	if !latch.Trigger(EventCopyover) {
		t.Fatalf("first trigger did not decide the value")
	}
	if latch.Trigger(EventInterrupted) {
		t.Errorf("second trigger claimed to decide the value")
	}
	if got := latch.Value(); got != EventCopyover {
		t.Errorf("latch = %v, want the first event", got)
	}
}

func TestLatchConcurrentTriggers(t *testing.T) {
	t.Parallel()

	var latch Latch
	var wg sync.WaitGroup
	var decided sync.Map

	events := []Event{EventNormal, EventCopyover, EventInterrupted}
	for i := 0; i < 30; i++ {
		event := events[i%len(events)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if latch.Trigger(event) {
				decided.Store(event, true)
			}
		}()
	}
	wg.Wait()

	winners := 0
	var winner Event
	decided.Range(func(key, _ any) bool {
		winners++
		winner = key.(Event)
		return true
	})
	if winners != 1 {
		t.Fatalf("%d triggers claimed the latch, want exactly 1", winners)
	}
	if got := latch.Value(); got != winner {
		t.Errorf("latch = %v, want the winning event %v", got, winner)
	}
}

func TestEventString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		event Event
		want  string
	}{
		{eventUndecided, "undecided"},
		{EventNormal, "normal"},
		{EventCopyover, "copyover"},
		{EventInterrupted, "interrupted"},
		{Event(99), "unknown"},
	}
	for _, test := range tests {
		if got := test.event.String(); got != test.want {
			t.Errorf("Event(%d).String() = %q, want %q", test.event, got, test.want)
		}
	}
}
