// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package motors

import "periph.io/x/conn/v3/physic"

// timerConfig is the result of translating a shaft speed into timer register
// values for one channel.
type timerConfig struct {
	// top is the period compare target. The output toggles at top and at
	// top/2, so one timer period is one output polarity flip pair.
	top uint32
	// divisor is the clock divisor to select when starting the channel.
	divisor uint32
	// clamped is set when the computed top did not fit the channel's
	// compare range and was clamped, changing the achieved rate.
	clamped bool
}

// stepFrequency converts a shaft speed into full steps per second, truncating
// toward zero.
func stepFrequency(rpm, stepsPerRev uint) uint32 {
	return uint32(uint64(rpm) * uint64(stepsPerRev) / 60)
}

// divisorFor picks the clock divisor for a channel at a given speed. The left
// channel runs a small divisor above the threshold so top stays near its
// 8-bit maximum at high pulse rates, and a large divisor at or below it so
// top does not collapse toward zero at low rates. The threshold itself takes
// the low-speed divisor.
func divisorFor(o *Opts, ch Channel, rpm uint) uint32 {
	if ch != Left {
		return o.RightDivisor
	}
	if rpm > o.HighSpeedRPM {
		return o.LeftHighDivisor
	}
	return o.LeftLowDivisor
}

// speedConfig computes the timer configuration for rpm on a channel whose
// largest compare target is maxCompare. Pure: identical inputs produce
// identical configurations. rpm must be non-zero and representable as a
// non-zero step frequency; SetSpeed checks that before calling.
func speedConfig(o *Opts, ch Channel, rpm uint, maxCompare uint32) timerConfig {
	freq := uint64(stepFrequency(rpm, o.StepsPerRev))
	div := divisorFor(o, ch, rpm)
	base := uint64(o.BaseClock / physic.Hertz)

	cfg := timerConfig{divisor: div}
	period := base / (2 * freq * uint64(div))
	switch {
	case period == 0:
		// Requested rate beyond what the divided clock can produce.
		cfg.top = 0
		cfg.clamped = true
	case period-1 > uint64(maxCompare):
		cfg.top = maxCompare
		cfg.clamped = true
	default:
		cfg.top = uint32(period - 1)
	}
	return cfg
}

// achievedRPM returns the shaft speed a configuration actually produces,
// truncated toward zero. Used to report the clamp mismatch.
func achievedRPM(o *Opts, cfg timerConfig) uint {
	base := uint64(o.BaseClock / physic.Hertz)
	freq := base / (2 * uint64(cfg.divisor) * uint64(cfg.top+1))
	return uint(freq * 60 / uint64(o.StepsPerRev))
}
