// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package quadrature

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type edge struct {
	line   Line
	levels Levels
}

var (
	cwCycle  = []edge{{LineA, Levels10}, {LineB, Levels00}}
	ccwCycle = []edge{{LineB, Levels01}, {LineA, Levels00}}
)

// feed sends all edges to d and returns the non-None events.
func feed(d *Decoder, edges []edge) []Event {
	var out []Event
	for _, e := range edges {
		if ev := d.HandleEdge(e.line, e.levels); ev != None {
			out = append(out, ev)
		}
	}
	return out
}

func TestDecoder(t *testing.T) {
	for _, tc := range []struct {
		name   string
		start  uint8
		edges  []edge
		want   []Event
		value  uint8
		cwFall bool
		ccw    bool
	}{
		{
			name:  "clockwise",
			edges: cwCycle,
			want:  []Event{CW},
			value: 1,
		},
		{
			name:  "counter-clockwise wraps",
			edges: ccwCycle,
			want:  []Event{CCW},
			value: 255,
		},
		{
			name:  "clockwise wraps",
			start: 255,
			edges: cwCycle,
			want:  []Event{CW},
			value: 0,
		},
		{
			name:  "counter-clockwise",
			start: 10,
			edges: ccwCycle,
			want:  []Event{CCW},
			value: 9,
		},
		{
			name:  "three clockwise detents",
			edges: append(append(append([]edge{}, cwCycle...), cwCycle...), cwCycle...),
			want:  []Event{CW, CW, CW},
			value: 3,
		},
		{
			name:   "armed clockwise only",
			start:  5,
			edges:  cwCycle[:1],
			value:  5,
			cwFall: true,
		},
		{
			name:  "armed counter-clockwise only",
			start: 5,
			edges: ccwCycle[:1],
			value: 5,
			ccw:   true,
		},
		{
			name:  "repeated confirming edge",
			edges: append(append([]edge{}, cwCycle...), edge{LineB, Levels00}, edge{LineB, Levels00}),
			want:  []Event{CW},
			value: 1,
		},
		{
			// A bounces back up to 11 and falls again before B moves.
			name:  "jitter on A while armed",
			edges: []edge{{LineA, Levels10}, {LineA, Levels10}, {LineA, Levels10}, {LineB, Levels00}},
			want:  []Event{CW},
			value: 1,
		},
		{
			// Returning to 11 without crossing 00 confirms nothing.
			name:   "partial turn",
			edges:  []edge{{LineA, Levels10}, {LineA, Levels00}},
			value:  0,
			cwFall: true,
		},
		{
			// A falls, the knob is turned back, B falls with A high.
			name:  "reversal mid detent",
			start: 7,
			edges: []edge{{LineA, Levels10}, {LineB, Levels01}, {LineA, Levels00}},
			want:  []Event{CCW},
			value: 6,
		},
		{
			name:  "edges with other bits set",
			edges: []edge{{LineA, Levels10 | 0xF0}, {LineB, Levels00 | 0x0C}},
			want:  []Event{CW},
			value: 1,
		},
		{
			name:  "unknown line",
			start: 42,
			edges: []edge{{Line(9), Levels00}, {Line(9), Levels10}},
			value: 42,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := &Counter{}
			c.Store(tc.start)
			d := NewDecoder(c)
			got := feed(d, tc.edges)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("events (-want +got):\n%s", diff)
			}
			if v := c.Load(); v != tc.value {
				t.Errorf("counter = %d, want %d", v, tc.value)
			}
			if d.cwFall != tc.cwFall || d.ccwFall != tc.ccw {
				t.Errorf("flags = (%t,%t), want (%t,%t)", d.cwFall, d.ccwFall, tc.cwFall, tc.ccw)
			}
		})
	}
}

func TestDecoderButton(t *testing.T) {
	for _, tc := range []struct {
		name  string
		arm   []edge
		cw    bool
		ccw   bool
		start uint8
	}{
		{name: "idle", start: 17},
		{name: "clockwise armed", arm: cwCycle[:1], cw: true, start: 200},
		{name: "counter-clockwise armed", arm: ccwCycle[:1], ccw: true, start: 1},
		{name: "already zero"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := &Counter{}
			c.Store(tc.start)
			d := NewDecoder(c)
			feed(d, tc.arm)
			if ev := d.HandleEdge(LineButton, Levels11); ev != Reset {
				t.Fatalf("HandleEdge(Button) = %s, want Reset", ev)
			}
			if v := c.Load(); v != 0 {
				t.Errorf("counter = %d, want 0", v)
			}
			if d.cwFall != tc.cw || d.ccwFall != tc.ccw {
				t.Errorf("flags = (%t,%t), want (%t,%t)", d.cwFall, d.ccwFall, tc.cw, tc.ccw)
			}
		})
	}
}

// The armed state survives a reset, so the next confirming edge still counts.
func TestDecoderButtonKeepsArmed(t *testing.T) {
	c := &Counter{}
	d := NewDecoder(c)
	got := feed(d, []edge{{LineA, Levels10}, {LineButton, Levels10}, {LineB, Levels00}})
	if diff := cmp.Diff([]Event{Reset, CW}, got); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if v := c.Load(); v != 1 {
		t.Errorf("counter = %d, want 1", v)
	}
}

func TestEndToEnd(t *testing.T) {
	c := &Counter{}
	d := NewDecoder(c)
	if got := feed(d, cwCycle); !cmp.Equal(got, []Event{CW}) || c.Load() != 1 {
		t.Fatalf("cw: events %v counter %d", got, c.Load())
	}
	c.Store(0)
	if got := feed(d, ccwCycle); !cmp.Equal(got, []Event{CCW}) || c.Load() != 255 {
		t.Fatalf("ccw: events %v counter %d", got, c.Load())
	}
	if ev := d.HandleEdge(LineButton, Levels00); ev != Reset || c.Load() != 0 {
		t.Fatalf("button: event %s counter %d", ev, c.Load())
	}
	if d.Counter() != c {
		t.Error("Counter() returned a different counter")
	}
}

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		a, b bool
		want Levels
		str  string
	}{
		{false, false, Levels00, "00"},
		{true, false, Levels01, "01"},
		{false, true, Levels10, "10"},
		{true, true, Levels11, "11"},
	} {
		l := MakeLevels(tc.a, tc.b)
		if l != tc.want {
			t.Errorf("MakeLevels(%t, %t) = %d, want %d", tc.a, tc.b, l, tc.want)
		}
		if l.A() != tc.a || l.B() != tc.b {
			t.Errorf("%d: A()=%t B()=%t", l, l.A(), l.B())
		}
		if s := l.String(); s != tc.str {
			t.Errorf("%d.String() = %q, want %q", l, s, tc.str)
		}
	}
}

func TestStrings(t *testing.T) {
	for _, tc := range []struct {
		got, want string
	}{
		{LineA.String(), "A"},
		{LineB.String(), "B"},
		{LineButton.String(), "Button"},
		{Line(5).String(), "Line(5)"},
		{None.String(), "None"},
		{CW.String(), "CW"},
		{CCW.String(), "CCW"},
		{Reset.String(), "Reset"},
		{Event(9).String(), "Event(9)"},
	} {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}
