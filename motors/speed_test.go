// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package motors

import "testing"

func TestStepFrequency(t *testing.T) {
	for _, test := range []struct {
		rpm  uint
		spr  uint
		want uint32
	}{
		{600, 200, 2000},
		{500, 200, 1666}, // truncates, not rounds
		{60, 200, 200},
		{1, 200, 3},
		{0, 200, 0},
	} {
		if got := stepFrequency(test.rpm, test.spr); got != test.want {
			t.Errorf("stepFrequency(%d, %d): wanted %d, got %d", test.rpm, test.spr, test.want, got)
		}
	}
}

func TestSpeedConfig(t *testing.T) {
	const leftMax, rightMax = 255, 65535

	for _, test := range []struct {
		name       string
		ch         Channel
		rpm        uint
		maxCompare uint32
		want       timerConfig
	}{
		{
			// 2000 steps/s with the /8 divisor asks for top 499,
			// past the 8-bit range.
			name:       "left high regime clamps",
			ch:         Left,
			rpm:        600,
			maxCompare: leftMax,
			want:       timerConfig{top: 255, divisor: 8, clamped: true},
		},
		{
			name:       "left just above threshold",
			ch:         Left,
			rpm:        501,
			maxCompare: leftMax,
			want:       timerConfig{top: 255, divisor: 8, clamped: true},
		},
		{
			// The threshold itself belongs to the low-speed regime.
			name:       "left at threshold",
			ch:         Left,
			rpm:        500,
			maxCompare: leftMax,
			want:       timerConfig{top: 74, divisor: 64},
		},
		{
			name:       "left below threshold",
			ch:         Left,
			rpm:        499,
			maxCompare: leftMax,
			want:       timerConfig{top: 74, divisor: 64},
		},
		{
			name:       "left low regime in range",
			ch:         Left,
			rpm:        200,
			maxCompare: leftMax,
			want:       timerConfig{top: 186, divisor: 64},
		},
		{
			name:       "left slow speed clamps low regime",
			ch:         Left,
			rpm:        100,
			maxCompare: leftMax,
			want:       timerConfig{top: 255, divisor: 64, clamped: true},
		},
		{
			name:       "right single divisor",
			ch:         Right,
			rpm:        600,
			maxCompare: rightMax,
			want:       timerConfig{top: 2, divisor: 1024},
		},
		{
			name:       "right one rev per second",
			ch:         Right,
			rpm:        60,
			maxCompare: rightMax,
			want:       timerConfig{top: 38, divisor: 1024},
		},
		{
			name:       "right slowest representable",
			ch:         Right,
			rpm:        1,
			maxCompare: rightMax,
			want:       timerConfig{top: 2603, divisor: 1024},
		},
		{
			// Faster than the divided clock can toggle at all.
			name:       "left beyond clock rate",
			ch:         Left,
			rpm:        600000,
			maxCompare: leftMax,
			want:       timerConfig{top: 0, divisor: 8, clamped: true},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			got := speedConfig(&DefaultOpts, test.ch, test.rpm, test.maxCompare)
			if got != test.want {
				t.Fatalf("wanted %+v, got %+v", test.want, got)
			}
			// Pure: a second evaluation is identical.
			if again := speedConfig(&DefaultOpts, test.ch, test.rpm, test.maxCompare); again != got {
				t.Fatalf("not deterministic: %+v then %+v", got, again)
			}
			if got.top > test.maxCompare {
				t.Fatalf("top %d exceeds compare range %d", got.top, test.maxCompare)
			}
		})
	}
}

func TestAchievedRPM(t *testing.T) {
	// Clamping top to 255 at /8 leaves 16MHz/(2*8*256) = 3906 steps/s,
	// which is 1171 RPM for a 200-step motor.
	cfg := timerConfig{top: 255, divisor: 8, clamped: true}
	if got := achievedRPM(&DefaultOpts, cfg); got != 1171 {
		t.Fatalf("wanted 1171, got %d", got)
	}
}
