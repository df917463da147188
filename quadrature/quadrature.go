// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package quadrature

import "strconv"

// Line identifies one of the three monitored encoder lines.
type Line uint8

// The three lines of an encoder module. On most boards A is marked CLK, B is
// marked DT and Button is marked SW.
const (
	LineA Line = iota
	LineB
	LineButton
)

func (l Line) String() string {
	switch l {
	case LineA:
		return "A"
	case LineB:
		return "B"
	case LineButton:
		return "Button"
	default:
		return "Line(" + strconv.Itoa(int(l)) + ")"
	}
}

// Levels is the combined instantaneous level of both rotation lines.
//
// Bit 0 is line A, bit 1 is line B. Other bits are ignored.
type Levels uint8

// Grey codes visited during one detent.
const (
	Levels00 Levels = 0x00
	Levels01 Levels = 0x01 // A high, B low.
	Levels10 Levels = 0x02 // A low, B high.
	Levels11 Levels = 0x03
)

// MakeLevels combines the level of line A and line B, true meaning high.
func MakeLevels(a, b bool) Levels {
	var l Levels
	if a {
		l |= 0x01
	}
	if b {
		l |= 0x02
	}
	return l
}

// A returns the level of line A.
func (l Levels) A() bool {
	return l&0x01 != 0
}

// B returns the level of line B.
func (l Levels) B() bool {
	return l&0x02 != 0
}

// String returns the two bits, B first, as written in encoder timing
// diagrams: "10" means B high and A low.
func (l Levels) String() string {
	b := [2]byte{'0', '0'}
	if l.B() {
		b[0] = '1'
	}
	if l.A() {
		b[1] = '1'
	}
	return string(b[:])
}

// Event is the classification of an edge.
type Event uint8

// Possible events. None is returned for edges that only arm a direction or
// that are filtered out.
const (
	None Event = iota
	CW
	CCW
	Reset
)

func (e Event) String() string {
	switch e {
	case None:
		return "None"
	case CW:
		return "CW"
	case CCW:
		return "CCW"
	case Reset:
		return "Reset"
	default:
		return "Event(" + strconv.Itoa(int(e)) + ")"
	}
}

// Decoder is the edge classifier.
//
// Its state is the pair (cwFall, ccwFall): (false, false) is idle,
// (true, false) is clockwise armed, (false, true) is counter-clockwise armed.
// A reversal in the middle of a detent can arm both; the next confirming edge
// then clears both.
type Decoder struct {
	counter *Counter
	cwFall  bool
	ccwFall bool
}

// NewDecoder returns a Decoder updating c.
func NewDecoder(c *Counter) *Decoder {
	return &Decoder{counter: c}
}

// HandleEdge processes a falling edge on line with the rotation lines in
// state l at the time of the edge.
//
// It returns the event that the edge produced, None if it produced nothing.
// Unknown lines are ignored.
func (d *Decoder) HandleEdge(line Line, l Levels) Event {
	l &= Levels11
	switch line {
	case LineA:
		if !d.cwFall && l == Levels10 {
			d.cwFall = true
		}
		if d.ccwFall && l == Levels00 {
			d.cwFall = false
			d.ccwFall = false
			d.counter.Dec()
			return CCW
		}
	case LineB:
		if !d.ccwFall && l == Levels01 {
			d.ccwFall = true
		}
		if d.cwFall && l == Levels00 {
			d.cwFall = false
			d.ccwFall = false
			d.counter.Inc()
			return CW
		}
	case LineButton:
		// The button only fires on the falling edge, i.e. when pressed. The
		// rotation state is independent.
		d.counter.Store(0)
		return Reset
	}
	return None
}

// Counter returns the counter updated by the decoder.
func (d *Decoder) Counter() *Counter {
	return d.counter
}
