// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package term implements a monochrome display.Drawer that outputs to the
// terminal using ANSI color codes.
//
// Useful to work on the display output while the OLED panel is still in the
// mail.
package term

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// DefaultOpts is a 128x64 panel, one block per pixel.
var DefaultOpts = Opts{W: 128, H: 64}

// Opts represents the options available for this display.
type Opts struct {
	W, H int
	// Downsample merges Downsample x Downsample pixels in one block, lit if
	// any of them is. 0 and 1 disable it.
	Downsample int
	// On and Off default to white and black.
	On, Off color.Color
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// Writer defaults to a colorable stdout.
	Writer io.Writer
}

// Dev is a terminal emulating a monochrome panel.
type Dev struct {
	w       io.Writer
	step    int
	on, off string

	frame *image1bit.VerticalLSB
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.Writer
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	step := opts.Downsample
	if step < 1 {
		step = 1
	}
	on, off := opts.On, opts.Off
	if on == nil {
		on = color.White
	}
	if off == nil {
		off = color.Black
	}
	return &Dev{
		w:     w,
		step:  step,
		on:    p.Block(color.NRGBAModel.Convert(on).(color.NRGBA)),
		off:   p.Block(color.NRGBAModel.Convert(off).(color.NRGBA)),
		frame: image1bit.NewVerticalLSB(image.Rect(0, 0, opts.W, opts.H)),
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("term.Dev{%s}", d.frame.Rect.Max)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (d *Dev) Halt() error {
	_, err := io.WriteString(d.w, "\033[0m\n")
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.frame.Rect
}

// Draw implements display.Drawer. The whole frame is repainted in place.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Src.Draw(d.frame, r, src, sp)
	return d.refresh()
}

func (d *Dev) lit(x, y int) bool {
	for j := y; j < y+d.step && j < d.frame.Rect.Max.Y; j++ {
		for i := x; i < x+d.step && i < d.frame.Rect.Max.X; i++ {
			if d.frame.BitAt(i, j) {
				return true
			}
		}
	}
	return false
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	// Cursor home so successive frames overwrite each other.
	_, _ = d.buf.WriteString("\033[H")
	r := d.frame.Rect
	for y := r.Min.Y; y < r.Max.Y; y += d.step {
		for x := r.Min.X; x < r.Max.X; x += d.step {
			if d.lit(x, y) {
				_, _ = d.buf.WriteString(d.on)
			} else {
				_, _ = d.buf.WriteString(d.off)
			}
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
