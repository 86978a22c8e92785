// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package motors

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/AMR-Platform/lower-layer-controller/timer"
)

var (
	// ErrInvalidSpeed is returned by SetSpeed when the requested speed is
	// zero or too slow to produce any step pulses.
	ErrInvalidSpeed = errors.New("motors: invalid speed")

	// ErrSpeedClamped is returned by SetSpeed when the computed compare
	// target did not fit the channel's range. The channel is programmed
	// and running, but at the clamped rate instead of the requested one.
	ErrSpeedClamped = errors.New("motors: speed clamped")

	// ErrInvalidChannel is returned when a Channel value is neither Left
	// nor Right.
	ErrInvalidChannel = errors.New("motors: invalid channel")
)

// Channel identifies one of the two motor channels.
type Channel int

const (
	Left Channel = iota
	Right
)

func (c Channel) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// ChannelPins is the set of output lines wired to one stepper driver.
type ChannelPins struct {
	// Step is the pulse line; one full high/low cycle is one step.
	Step gpio.PinOut
	// Dir selects the rotation direction, high for forward.
	Dir gpio.PinOut
	// Enable energizes the driver when high.
	Enable gpio.PinOut
}

func (p *ChannelPins) check() error {
	if p.Step == nil || p.Dir == nil || p.Enable == nil {
		return errors.New("motors: all channel pins are required")
	}
	return nil
}

// Opts holds the clocking constants for a driver pair.
type Opts struct {
	// BaseClock is the undivided timer input clock.
	BaseClock physic.Frequency
	// StepsPerRev is the motor's full steps per shaft revolution.
	StepsPerRev uint
	// HighSpeedRPM is the left channel regime threshold: speeds strictly
	// above it use LeftHighDivisor, speeds at or below it use
	// LeftLowDivisor.
	HighSpeedRPM uint
	// LeftHighDivisor and LeftLowDivisor are the left channel's two clock
	// divisors. RightDivisor is the right channel's only one.
	LeftHighDivisor uint32
	LeftLowDivisor  uint32
	RightDivisor    uint32
	// BurstHalfPeriod is the fixed half period used by Move.
	BurstHalfPeriod time.Duration
	// Sleep is called by Move to pace the bit-banged pulse train. Nil
	// means time.Sleep; tests substitute a recorder.
	Sleep func(time.Duration)
}

// DefaultOpts matches the reference board: a 16MHz timer clock and 200-step
// motors driven in full-step mode.
var DefaultOpts = Opts{
	BaseClock:       16 * physic.MegaHertz,
	StepsPerRev:     200,
	HighSpeedRPM:    500,
	LeftHighDivisor: 8,
	LeftLowDivisor:  64,
	RightDivisor:    1024,
	BurstHalfPeriod: 5 * time.Microsecond,
}

// channel is the per-motor state. edges is written only by the timer's
// compare-match handler; every other access goes through an eventGuard.
type channel struct {
	name Channel
	pins ChannelPins
	t    timer.Timer

	// Last programmed configuration, kept so StopAll followed by a
	// restart at the same speed demonstrably reproduces it.
	top     uint32
	divisor uint32

	edges uint32
}

// eventGuard is a scoped masked section over one timer's compare events. The
// prior delivery state is restored on release, so a guard taken inside an
// already-masked context leaves events masked.
type eventGuard struct {
	t    timer.Timer
	prev bool
}

func maskEvents(t timer.Timer) eventGuard {
	return eventGuard{t: t, prev: t.MaskEvents()}
}

func (g eventGuard) release() {
	g.t.RestoreEvents(g.prev)
}

func (c *channel) edgeCount() uint32 {
	g := maskEvents(c.t)
	n := c.edges
	g.release()
	return n
}

func (c *channel) resetEdges() {
	g := maskEvents(c.t)
	c.edges = 0
	g.release()
}

// Dev is a handle to a two-channel stepper pulse driver.
type Dev struct {
	opts  Opts
	chans [2]*channel
	sleep func(time.Duration)
}

// New wires a driver pair and brings both channels into their idle state:
// step lines high, direction forward, drivers de-energized, timer clocks
// stopped and edge counters at zero.
func New(opts *Opts, left, right ChannelPins, leftTimer, rightTimer timer.Timer) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.BaseClock <= 0 || opts.StepsPerRev == 0 {
		return nil, errors.New("motors: base clock and steps per revolution are required")
	}
	if opts.LeftHighDivisor == 0 || opts.LeftLowDivisor == 0 || opts.RightDivisor == 0 {
		return nil, errors.New("motors: clock divisors must be non-zero")
	}
	if leftTimer == nil || rightTimer == nil {
		return nil, errors.New("motors: both channel timers are required")
	}
	if err := left.check(); err != nil {
		return nil, err
	}
	if err := right.check(); err != nil {
		return nil, err
	}

	d := &Dev{
		opts:  *opts,
		sleep: opts.Sleep,
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	d.chans[Left] = &channel{name: Left, pins: left, t: leftTimer}
	d.chans[Right] = &channel{name: Right, pins: right, t: rightTimer}

	for _, c := range d.chans {
		if err := c.t.StopClock(); err != nil {
			return nil, err
		}
		if err := c.pins.Step.Out(gpio.High); err != nil {
			return nil, err
		}
		if err := c.pins.Dir.Out(gpio.High); err != nil {
			return nil, err
		}
		if err := c.pins.Enable.Out(gpio.Low); err != nil {
			return nil, err
		}
		c := c
		c.t.Notify(func() { c.edges++ })
	}
	return d, nil
}

func (d *Dev) channel(ch Channel) (*channel, error) {
	if ch != Left && ch != Right {
		return nil, fmt.Errorf("%w: %s", ErrInvalidChannel, ch)
	}
	return d.chans[ch], nil
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return fmt.Sprintf("motors{left: %s, right: %s}",
		d.chans[Left].t, d.chans[Right].t)
}

// Halt stops both timers and de-energizes both drivers.
//
// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return d.StopAll()
}

// Enable energizes or de-energizes a channel's driver. It does not affect
// the channel's timer, direction or edge counter and is safe to call while
// pulses are being generated.
func (d *Dev) Enable(ch Channel, en bool) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	return c.pins.Enable.Out(gpio.Level(en))
}

// SetDir sets a channel's rotation direction, forward when forward is true.
// Safe to call at any time, including while running.
func (d *Dev) SetDir(ch Channel, forward bool) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	return c.pins.Dir.Out(gpio.Level(forward))
}

// SetSpeed programs a channel's timer for the given shaft speed and starts
// its clock. The enable and direction lines are left alone.
//
// A zero or unrepresentably slow speed returns ErrInvalidSpeed without
// touching the timer. If the computed compare target exceeds the channel's
// range it is clamped and the channel runs at the clamped rate; SetSpeed
// then returns an error wrapping ErrSpeedClamped that names the requested
// and achieved speeds.
func (d *Dev) SetSpeed(ch Channel, rpm uint) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if rpm == 0 {
		return fmt.Errorf("%w: 0 RPM", ErrInvalidSpeed)
	}
	if stepFrequency(rpm, d.opts.StepsPerRev) == 0 {
		return fmt.Errorf("%w: %d RPM is below one step per second", ErrInvalidSpeed, rpm)
	}

	cfg := speedConfig(&d.opts, ch, rpm, c.t.MaxCompare())
	if err := c.t.SetCompare(cfg.top, cfg.top/2); err != nil {
		return err
	}
	if err := c.t.StartClock(cfg.divisor); err != nil {
		return err
	}
	c.top = cfg.top
	c.divisor = cfg.divisor

	if cfg.clamped {
		return fmt.Errorf("%w: %s channel runs at %d RPM instead of %d",
			ErrSpeedClamped, ch, achievedRPM(&d.opts, cfg), rpm)
	}
	return nil
}

// SetSpeedBoth sets both channels in one call. Both channels are always
// attempted; the left channel's error, if any, is returned first.
func (d *Dev) SetSpeedBoth(rpmLeft, rpmRight uint) error {
	errL := d.SetSpeed(Left, rpmLeft)
	errR := d.SetSpeed(Right, rpmRight)
	if errL != nil {
		return errL
	}
	return errR
}

// Move energizes a channel's driver and blocks while stepping it an exact
// number of steps, reverse when steps is negative. Pulses are bit-banged on
// the step line with a fixed half period, so the call takes
// |steps| * 2 * BurstHalfPeriod plus pin latency and cannot be cancelled.
//
// Move does not use the channel's timer: the hardware edge counter does not
// see these steps. Callers mixing Move with timer-driven motion on the same
// channel must account for that themselves.
func (d *Dev) Move(ch Channel, steps int32) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if err := c.pins.Enable.Out(gpio.High); err != nil {
		return err
	}
	n := int64(steps)
	forward := n >= 0
	if !forward {
		n = -n
	}
	if err := c.pins.Dir.Out(gpio.Level(forward)); err != nil {
		return err
	}
	for i := int64(0); i < n; i++ {
		if err := c.pins.Step.Out(gpio.High); err != nil {
			return err
		}
		d.sleep(d.opts.BurstHalfPeriod)
		if err := c.pins.Step.Out(gpio.Low); err != nil {
			return err
		}
		d.sleep(d.opts.BurstHalfPeriod)
	}
	return nil
}

// StopAll de-energizes both drivers and stops both timer clocks. Compare
// registers and edge counters keep their values, so a later SetSpeed at the
// same speed reproduces the previous configuration and counting continues
// from where it froze.
func (d *Dev) StopAll() error {
	var first error
	for _, c := range d.chans {
		if err := c.pins.Enable.Out(gpio.Low); err != nil && first == nil {
			first = err
		}
		if err := c.t.StopClock(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ResetStepCounts zeroes both edge counters, each atomically with respect to
// its own channel's event handler.
func (d *Dev) ResetStepCounts() {
	for _, c := range d.chans {
		c.resetEdges()
	}
}

// EdgeCount returns a consistent snapshot of a channel's edge counter. The
// counter increments once per output polarity toggle while the channel's
// clock runs, and wraps naturally at 32 bits.
func (d *Dev) EdgeCount(ch Channel) (uint32, error) {
	c, err := d.channel(ch)
	if err != nil {
		return 0, err
	}
	return c.edgeCount(), nil
}

// StepCount returns the number of full steps executed on a channel since the
// last reset. Two edges make one step.
func (d *Dev) StepCount(ch Channel) (uint32, error) {
	n, err := d.EdgeCount(ch)
	return n >> 1, err
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
