// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rotary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GermanBionicSystems/rotarycounter/quadrature"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioutil"
	"periph.io/x/conn/v3/physic"
)

// ErrRunning is returned by Run when the device is already running.
var ErrRunning = errors.New("rotary: already running")

// edgeTimeout bounds each WaitForEdge call so cancellation is noticed.
const edgeTimeout = 100 * time.Millisecond

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Pull:        gpio.PullUp,
	EventBuffer: 16,
}

// Opts defines the options for the device.
type Opts struct {
	// Pull is applied to all three lines.
	Pull gpio.Pull
	// Poll enables software edge detection at this sampling rate, for pins
	// that do not support edge detection, e.g. behind an I²C expander. Zero
	// uses the pins' own edge detection.
	Poll physic.Frequency
	// EventBuffer is the capacity of the Events channel. Events are dropped
	// when it is full.
	EventBuffer int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// rotationMask selects A and B in a Group, at offsets 0 and 1.
const rotationMask gpio.GPIOValue = 0x03

// Change is a decoded event with the counter value right after it.
type Change struct {
	Event quadrature.Event
	Value uint8
}

// sample is one edge as reported to the decoding goroutine.
type sample struct {
	line   quadrature.Line
	levels quadrature.Levels
}

// Dev is an open handle to a rotary encoder.
type Dev struct {
	pins    [3]gpio.PinIO
	group   gpio.Group
	pull    gpio.Pull
	dec     *quadrature.Decoder
	events  chan Change
	log     *slog.Logger
	edges   atomic.Uint64
	dropped atomic.Uint64

	mu      sync.Mutex
	running bool
}

// New returns a Dev reading the encoder on pins a, b and sw, updating c.
//
// The pins are configured as inputs with falling edge detection.
func New(a, b, sw gpio.PinIO, c *quadrature.Counter, opts *Opts) (*Dev, error) {
	return newDev([3]gpio.PinIO{a, b, sw}, nil, c, opts)
}

// NewGroup returns a Dev reading the encoder on the first three pins of g, in
// the order A, B, button.
//
// Both rotation lines are sampled with a single g.Read, so they are always
// consistent with each other. When g supports WaitForEdge, edges are taken
// from it in the order the device reports them. Otherwise each pin is waited
// on as with New.
func NewGroup(g gpio.Group, c *quadrature.Counter, opts *Opts) (*Dev, error) {
	if g == nil {
		return nil, errors.New("rotary: nil group")
	}
	var pins [3]gpio.PinIO
	if n := len(g.Pins()); n < len(pins) {
		return nil, fmt.Errorf("rotary: group %s has %d pins, need %d", g, n, len(pins))
	}
	for i := range pins {
		p, ok := g.ByOffset(i).(gpio.PinIO)
		if !ok {
			return nil, fmt.Errorf("rotary: line %s: %s is not a gpio.PinIO", quadrature.Line(i), g.ByOffset(i))
		}
		pins[i] = p
	}
	return newDev(pins, g, c, opts)
}

func newDev(pins [3]gpio.PinIO, g gpio.Group, c *quadrature.Counter, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if c == nil {
		return nil, errors.New("rotary: nil counter")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	d := &Dev{
		pins:   pins,
		group:  g,
		pull:   opts.Pull,
		dec:    quadrature.NewDecoder(c),
		events: make(chan Change, opts.EventBuffer),
		log:    log,
	}
	for i, p := range d.pins {
		if p == nil || p == gpio.INVALID {
			return nil, fmt.Errorf("rotary: line %s: invalid pin", quadrature.Line(i))
		}
		if opts.Poll != 0 {
			p = gpioutil.PollEdge(p, opts.Poll)
			d.pins[i] = p
		}
		if err := p.In(opts.Pull, gpio.FallingEdge); err != nil {
			return nil, fmt.Errorf("rotary: line %s: %s: %w", quadrature.Line(i), p, err)
		}
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("rotary.Dev{%s, %s, %s}", d.pins[0], d.pins[1], d.pins[2])
}

// Counter returns the counter updated by the device.
func (d *Dev) Counter() *quadrature.Counter {
	return d.dec.Counter()
}

// Events returns the channel on which CW, CCW and Reset events are sent.
func (d *Dev) Events() <-chan Change {
	return d.events
}

// Edges returns the number of edges decoded so far.
func (d *Dev) Edges() uint64 {
	return d.edges.Load()
}

// Dropped returns the number of events not delivered on Events because the
// channel was full.
func (d *Dev) Dropped() uint64 {
	return d.dropped.Load()
}

// Run decodes edges until ctx is canceled.
//
// The counter is updated even if nobody reads Events.
func (d *Dev) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrRunning
	}
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	samples := make(chan sample)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if d.group != nil {
			err := d.watchGroup(ctx, samples)
			if err == nil {
				return
			}
			d.log.Debug("rotary: group edges unavailable, waiting on pins", "group", d.group, "err", err)
		}
		d.watchPins(ctx, samples)
	}()
	d.log.Debug("rotary: running", "dev", d.String())
	d.decode(ctx, samples)
	<-done
	return nil
}

// Halt implements conn.Resource.
//
// It disables edge detection. Run must be canceled first.
func (d *Dev) Halt() error {
	var errs []error
	for _, p := range d.pins {
		if err := p.In(d.pull, gpio.NoEdge); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dev) watchPins(ctx context.Context, out chan<- sample) {
	var wg sync.WaitGroup
	for i, p := range d.pins {
		wg.Add(1)
		go func(line quadrature.Line, p gpio.PinIn) {
			defer wg.Done()
			d.watch(ctx, line, p, out)
		}(quadrature.Line(i), p)
	}
	wg.Wait()
}

// watch forwards every falling edge on p, with the rotation lines sampled
// right after the edge was reported.
func (d *Dev) watch(ctx context.Context, line quadrature.Line, p gpio.PinIn, out chan<- sample) {
	for ctx.Err() == nil {
		if !p.WaitForEdge(edgeTimeout) {
			continue
		}
		if !d.send(ctx, line, out) {
			return
		}
	}
}

// watchGroup forwards falling edges reported by the group, in order. It
// returns nil when ctx is canceled and the group's error if it cannot wait
// for edges.
func (d *Dev) watchGroup(ctx context.Context, out chan<- sample) error {
	for ctx.Err() == nil {
		n, edge, err := d.group.WaitForEdge(edgeTimeout)
		if err != nil {
			return err
		}
		if edge != gpio.FallingEdge {
			continue
		}
		line, ok := d.lineOf(n)
		if !ok {
			continue
		}
		if !d.send(ctx, line, out) {
			return nil
		}
	}
	return nil
}

// send samples the rotation lines and forwards the edge on line. It returns
// false once ctx is canceled.
func (d *Dev) send(ctx context.Context, line quadrature.Line, out chan<- sample) bool {
	l, err := d.levels()
	if err != nil {
		d.log.Warn("rotary: read failed, edge ignored", "line", line, "err", err)
		return true
	}
	select {
	case out <- sample{line: line, levels: l}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (d *Dev) lineOf(number int) (quadrature.Line, bool) {
	for i, p := range d.pins {
		if p.Number() == number {
			return quadrature.Line(i), true
		}
	}
	return 0, false
}

// decode is the only caller of the decoder.
func (d *Dev) decode(ctx context.Context, in <-chan sample) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-in:
			d.log.Debug("rotary: edge", "line", s.line, "levels", s.levels)
			if ev := d.dec.HandleEdge(s.line, s.levels); ev != quadrature.None {
				select {
				case d.events <- Change{Event: ev, Value: d.dec.Counter().Load()}:
				default:
					d.dropped.Add(1)
					d.log.Debug("rotary: event dropped", "event", ev)
				}
			}
			d.edges.Add(1)
		}
	}
}

func (d *Dev) levels() (quadrature.Levels, error) {
	if d.group != nil {
		v, err := d.group.Read(rotationMask)
		if err != nil {
			return 0, err
		}
		return quadrature.Levels(v & rotationMask), nil
	}
	return quadrature.MakeLevels(bool(d.pins[0].Read()), bool(d.pins[1].Read())), nil
}

var _ conn.Resource = &Dev{}
