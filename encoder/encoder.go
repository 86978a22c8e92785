// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package encoder reads a quadrature wheel encoder for odometry.
//
// The decoder counts on every edge of channel A and takes the rotation
// direction from the level of channel B at that moment: B low counts up,
// B high counts down. That is half the resolution of full 4x quadrature
// decoding but needs only one edge-detecting input per wheel.
//
// One Dev reads one encoder; a differential base uses two independent Devs.
package encoder

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// edgePollInterval bounds how long Halt waits for the watch goroutine to
// notice shutdown when no edges arrive.
const edgePollInterval = 100 * time.Millisecond

// Dev is a handle to one quadrature encoder.
type Dev struct {
	a, b gpio.PinIn

	count int32
	done  chan struct{}
	halt  sync.Once
}

// New configures a as an edge-detecting input and b as a plain input, both
// with pull-ups, and starts counting.
func New(a, b gpio.PinIn) (*Dev, error) {
	if a == nil || b == nil {
		return nil, errors.New("encoder: both channel pins are required")
	}
	if err := a.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("encoder: channel A: %w", err)
	}
	if err := b.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("encoder: channel B: %w", err)
	}
	d := &Dev{a: a, b: b, done: make(chan struct{})}
	go d.watch()
	return d, nil
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return fmt.Sprintf("encoder{%s, %s}", d.a.Name(), d.b.Name())
}

// Halt stops the edge watcher and releases channel A's edge detection.
//
// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	d.halt.Do(func() { close(d.done) })
	return d.a.In(gpio.PullNoChange, gpio.NoEdge)
}

// Count returns the accumulated signed tick count. Positive is the direction
// in which channel B reads low on channel A edges.
func (d *Dev) Count() int32 {
	return atomic.LoadInt32(&d.count)
}

// Reset zeroes the tick count.
func (d *Dev) Reset() {
	atomic.StoreInt32(&d.count, 0)
}

func (d *Dev) watch() {
	for {
		select {
		case <-d.done:
			return
		default:
		}
		if !d.a.WaitForEdge(edgePollInterval) {
			continue
		}
		if d.b.Read() == gpio.High {
			atomic.AddInt32(&d.count, -1)
		} else {
			atomic.AddInt32(&d.count, 1)
		}
	}
}

var _ conn.Resource = &Dev{}
