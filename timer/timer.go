// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package timer defines the waveform timer capability consumed by pulse
// generating drivers.
//
// periph.io/x/conn models pins and buses but not free-running compare-match
// timers, so the capability is defined here in the same spirit: a small
// interface implemented once per hardware target and once as a test fake
// (see timertest).
//
// A Timer owns one output whose polarity flips on every compare match. With
// the period target set to top and the secondary compare point at top/2, two
// matches occur per timer period and the output is a square wave with 50%
// duty cycle. Every match is also delivered to the registered event handler,
// so the handler rate is twice the output frequency.
package timer

// Timer is a hardware timer driving a toggle-on-compare output.
//
// Implementations deliver compare-match events from an asynchronous context
// (an interrupt service routine, or a goroutine for test fakes). The handler
// must therefore be short and must not call back into the Timer.
type Timer interface {
	String() string

	// MaxCompare returns the largest programmable compare target. A timer
	// constrained to an 8-bit compare range returns 255, a 16-bit timer
	// 65535. Callers clamp before programming; passing a value above
	// MaxCompare to SetCompare is a programming error.
	MaxCompare() uint32

	// SetCompare programs the period target and the half-period toggle
	// point. The values survive StopClock, so a later StartClock resumes
	// at the same output frequency.
	SetCompare(top, mid uint32) error

	// StartClock selects the clock source as the base clock divided by
	// divisor and starts free-running generation. divisor must be one of
	// the divisors the timer supports; 0 is invalid.
	StartClock(divisor uint32) error

	// StopClock deselects the clock source. Compare registers and the
	// event handler registration are preserved.
	StopClock() error

	// Notify registers h as the compare-match event handler, replacing any
	// previous registration. A nil h clears it. Exactly one invocation is
	// delivered per output polarity toggle while the clock runs and events
	// are not masked.
	Notify(h func())

	// MaskEvents stops event delivery and returns the previous
	// delivery-enabled state. When MaskEvents returns, no handler
	// invocation is in flight or will begin until delivery is restored.
	MaskEvents() bool

	// RestoreEvents restores a delivery state previously returned by
	// MaskEvents. It is not an unconditional enable: restoring false keeps
	// events masked, which makes nested masked sections compose.
	RestoreEvents(enabled bool)
}
