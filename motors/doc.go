// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package motors drives a pair of external stepper drivers through their
// step/direction/enable lines.
//
// Each of the two channels owns a hardware timer that generates a continuous
// square wave on the step line via toggle-on-compare, so a motor keeps
// spinning at the programmed rate with no software in the loop. Every output
// toggle raises a compare-match event that increments the channel's edge
// counter; two toggles make one full step, which gives the higher motion
// layer closed-loop step odometry for free.
//
// The two channels are not symmetric: the left timer has an 8-bit compare
// range and switches between two clock divisors around a speed threshold,
// while the right timer is 16-bit with a single divisor. Speeds whose compare
// target does not fit the channel's range are clamped and reported through
// ErrSpeedClamped.
//
// A blocking software path, Move, steps an exact finite count by bit-banging
// the step line. It bypasses the timers entirely and is therefore invisible
// to the hardware edge counters.
package motors
