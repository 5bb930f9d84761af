// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package boot

import "os"

// No hang-up signal exists here, so a copyover can never be
// requested; only operator interrupts are bridged.

func copyoverSignals() []os.Signal { return nil }

func interruptSignals() []os.Signal { return []os.Signal{os.Interrupt} }

func isCopyoverSignal(os.Signal) bool { return false }
