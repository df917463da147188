// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package refresher mirrors a counter on a display.
//
// A Refresher polls the counter at a fixed interval and redraws only when the
// value differs from the last one drawn, so an idle knob causes no bus
// traffic and no flicker. All display calls happen on the goroutine running
// Run or Poll.
package refresher

import (
	"context"
	"log/slog"
	"strconv"
	"time"
)

// Source is the value to display. quadrature.Counter implements it.
type Source interface {
	Load() uint8
}

// Renderer is the display surface. oled.Screen implements it.
type Renderer interface {
	Clear()
	DrawText(x, y, scale int, text string)
	Flush() error
}

// DefaultOpts is a 5ms poll with the number at (10, 10), double size.
var DefaultOpts = Opts{
	Interval: 5 * time.Millisecond,
	X:        10,
	Y:        10,
	Scale:    2,
}

// Opts defines the options of a Refresher.
type Opts struct {
	// Interval between polls. It trades display latency against CPU and bus
	// usage; it does not affect correctness.
	Interval time.Duration
	// X, Y and Scale are passed to Renderer.DrawText.
	X, Y, Scale int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// initial differs from the counter's initial value of 0 so the first poll
// draws.
const initial = 255

// Refresher redraws a Renderer when a Source changes.
type Refresher struct {
	src     Source
	r       Renderer
	opts    Opts
	log     *slog.Logger
	last    uint8
	renders uint64
}

// New returns a Refresher showing src on r.
func New(src Source, r Renderer, opts *Opts) *Refresher {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultOpts.Interval
	}
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Refresher{src: src, r: r, opts: o, log: log, last: initial}
}

// Poll compares the source against the last drawn value and redraws if it
// changed.
//
// The value is recorded as drawn even if Flush fails, the next change is
// drawn as usual.
func (f *Refresher) Poll() (bool, error) {
	v := f.src.Load()
	if v == f.last {
		return false, nil
	}
	f.last = v
	f.renders++
	f.r.Clear()
	f.r.DrawText(f.opts.X, f.opts.Y, f.opts.Scale, strconv.Itoa(int(v)))
	return true, f.r.Flush()
}

// Run polls until ctx is canceled. Flush errors are logged.
func (f *Refresher) Run(ctx context.Context) error {
	t := time.NewTicker(f.opts.Interval)
	defer t.Stop()
	for {
		if _, err := f.Poll(); err != nil {
			f.log.Warn("refresher: flush failed", "value", f.last, "err", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Last returns the last value drawn.
func (f *Refresher) Last() uint8 {
	return f.last
}

// Renders returns the number of redraws so far. It must be called from the
// goroutine running Poll.
func (f *Refresher) Renders() uint64 {
	return f.renders
}
