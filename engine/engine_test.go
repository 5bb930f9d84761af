// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"
)

// startLoop runs the loop on a fake clock and blocks until its ticker
// is registered, so tests can Step deterministically.
func startLoop(t *testing.T, pulsesPerSecond int) (*Loop, *clocktesting.FakeClock, chan error) {
	t.Helper()

	clk := clocktesting.NewFakeClock(time.Now())
	loop := New(pulsesPerSecond, clk)

	result := make(chan error, 1)
	go func() { result <- loop.Start() }()

	deadline := time.After(5 * time.Second)
	for !clk.HasWaiters() {
		select {
		case <-deadline:
			t.Fatalf("loop never registered its ticker")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	t.Cleanup(loop.Stop)
	return loop, clk, result
}

func awaitStop(t *testing.T, loop *Loop, result chan error) {
	t.Helper()
	loop.Stop()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop")
	}
}

func await(t *testing.T, ch chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("ran %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("waiting for %q: nothing ran", want)
	}
}

func TestStopBeforeStartReturnsImmediately(t *testing.T) {
	t.Parallel()

	loop := New(10, clocktesting.NewFakeClock(time.Now()))
	loop.Stop()

	if err := loop.Start(); err != nil {
		t.Fatalf("Start after Stop: %v", err)
	}
}

func TestStartTwiceFails(t *testing.T) {
	t.Parallel()

	loop := New(10, clocktesting.NewFakeClock(time.Now()))
	loop.Stop()
	if err := loop.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := loop.Start(); err == nil {
		t.Fatalf("second Start succeeded")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	t.Parallel()

	loop, _, result := startLoop(t, 10)
	loop.Stop()
	loop.Stop()
	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not stop")
	}
}

func TestNextPulseRunsOnLoopPulse(t *testing.T) {
	t.Parallel()

	loop, clk, result := startLoop(t, 10)
	ran := make(chan string, 1)

	loop.NextPulse(func() { ran <- "queued" })

	select {
	case <-ran:
		t.Fatalf("callback ran before a pulse")
	case <-time.After(10 * time.Millisecond):
	}

	clk.Step(100 * time.Millisecond)
	await(t, ran, "queued")

	awaitStop(t, loop, result)
}

func TestDeferFiresAtDueTime(t *testing.T) {
	t.Parallel()

	loop, clk, result := startLoop(t, 10)
	ran := make(chan string, 4)

	loop.Defer(150*time.Millisecond, func() { ran <- "late" })
	loop.Defer(50*time.Millisecond, func() { ran <- "early" })

	// First pulse: only the early event is due.
	clk.Step(100 * time.Millisecond)
	await(t, ran, "early")

	clk.Step(100 * time.Millisecond)
	await(t, ran, "late")

	awaitStop(t, loop, result)
}

func TestDeferSameDueTimeKeepsScheduleOrder(t *testing.T) {
	t.Parallel()

	loop, clk, result := startLoop(t, 10)
	ran := make(chan string, 4)

	loop.Defer(50*time.Millisecond, func() { ran <- "first" })
	loop.Defer(50*time.Millisecond, func() { ran <- "second" })

	clk.Step(100 * time.Millisecond)
	await(t, ran, "first")
	await(t, ran, "second")

	awaitStop(t, loop, result)
}

func TestDeferredRunBeforeQueued(t *testing.T) {
	t.Parallel()

	loop, clk, result := startLoop(t, 10)
	ran := make(chan string, 4)

	loop.NextPulse(func() { ran <- "queued" })
	loop.Defer(10*time.Millisecond, func() { ran <- "deferred" })

	clk.Step(100 * time.Millisecond)
	await(t, ran, "deferred")
	await(t, ran, "queued")

	awaitStop(t, loop, result)
}

func TestCancelDropsDeferredEvent(t *testing.T) {
	t.Parallel()

	loop, clk, result := startLoop(t, 10)
	ran := make(chan string, 4)

	cancel := loop.Defer(50*time.Millisecond, func() { ran <- "cancelled" })
	loop.Defer(50*time.Millisecond, func() { ran <- "kept" })
	cancel()
	cancel() // calling twice is harmless

	clk.Step(100 * time.Millisecond)
	await(t, ran, "kept")

	select {
	case got := <-ran:
		t.Fatalf("cancelled event ran: %q", got)
	case <-time.After(10 * time.Millisecond):
	}

	awaitStop(t, loop, result)
}

func TestPulseWorkMaySchedule(t *testing.T) {
	t.Parallel()

	loop, clk, result := startLoop(t, 10)
	ran := make(chan string, 2)

	loop.NextPulse(func() {
		loop.NextPulse(func() { ran <- "chained" })
		ran <- "outer"
	})

	clk.Step(100 * time.Millisecond)
	await(t, ran, "outer")
	clk.Step(100 * time.Millisecond)
	await(t, ran, "chained")

	awaitStop(t, loop, result)
}

func TestNonPositiveRateFallsBack(t *testing.T) {
	t.Parallel()

	loop := New(0, clocktesting.NewFakeClock(time.Now()))
	want := time.Second / time.Duration(DefaultPulsesPerSecond)
	if loop.pulse != want {
		t.Errorf("pulse = %v, want default %v", loop.pulse, want)
	}
}
