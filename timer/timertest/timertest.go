// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package timertest is meant to be used to test drivers against a fake
// waveform timer.
package timertest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AMR-Platform/lower-layer-controller/timer"
)

// Timer implements timer.Timer.
//
// Compare matches do not happen on their own; tests produce them by calling
// Match. The handler runs with the Timer's lock held, so handler writes are
// serialized against MaskEvents exactly like an interrupt handler against an
// interrupt-disabled section: once MaskEvents returns, no handler call is in
// flight, and matches produced while masked are dropped.
type Timer struct {
	// N is the name returned by String.
	N string
	// Max is the value returned by MaxCompare. Zero defaults to 65535.
	Max uint32

	sync.Mutex
	// Top and Mid are the last programmed compare values.
	Top uint32
	Mid uint32
	// Divisor is the selected clock divisor, 0 while the clock is stopped.
	Divisor uint32
	// Running reports whether the clock source is selected.
	Running bool
	// Masked reports whether event delivery is suppressed.
	Masked bool
	// Matches counts the compare-match events actually delivered.
	Matches int

	h func()
}

func (t *Timer) String() string {
	return t.N
}

// MaxCompare implements timer.Timer.
func (t *Timer) MaxCompare() uint32 {
	if t.Max == 0 {
		return 65535
	}
	return t.Max
}

// SetCompare implements timer.Timer.
func (t *Timer) SetCompare(top, mid uint32) error {
	if top > t.MaxCompare() {
		return fmt.Errorf("timertest: top %d exceeds compare range of %s", top, t.N)
	}
	if mid > top {
		return fmt.Errorf("timertest: mid %d above top %d on %s", mid, top, t.N)
	}
	t.Lock()
	defer t.Unlock()
	t.Top = top
	t.Mid = mid
	return nil
}

// StartClock implements timer.Timer.
func (t *Timer) StartClock(divisor uint32) error {
	if divisor == 0 {
		return errors.New("timertest: divisor must be non-zero")
	}
	t.Lock()
	defer t.Unlock()
	t.Divisor = divisor
	t.Running = true
	return nil
}

// StopClock implements timer.Timer.
func (t *Timer) StopClock() error {
	t.Lock()
	defer t.Unlock()
	t.Divisor = 0
	t.Running = false
	return nil
}

// Notify implements timer.Timer.
func (t *Timer) Notify(h func()) {
	t.Lock()
	defer t.Unlock()
	t.h = h
}

// MaskEvents implements timer.Timer.
func (t *Timer) MaskEvents() bool {
	t.Lock()
	defer t.Unlock()
	prev := !t.Masked
	t.Masked = true
	return prev
}

// RestoreEvents implements timer.Timer.
func (t *Timer) RestoreEvents(enabled bool) {
	t.Lock()
	defer t.Unlock()
	t.Masked = !enabled
}

// Match produces n compare-match events. Events are delivered only while the
// clock runs, delivery is unmasked and a handler is registered; anything else
// drops the event. Safe for concurrent use.
func (t *Timer) Match(n int) {
	for i := 0; i < n; i++ {
		t.Lock()
		if t.Running && !t.Masked && t.h != nil {
			t.Matches++
			t.h()
		}
		t.Unlock()
	}
}

var _ timer.Timer = &Timer{}
