// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package framedump implements a display.Drawer that saves every frame to a
// PNG file, enlarged so single pixels are visible.
package framedump

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts defines the options for the device.
type Opts struct {
	W, H int
	// Path of the PNG file, overwritten on every Draw.
	Path string
	// Zoom is the size of a pixel in the file, 4 by default.
	Zoom int
	// On is the color of lit pixels, a typical OLED cyan by default.
	On color.Color
}

// Dev saves frames as PNG.
type Dev struct {
	path  string
	zoom  int
	on    color.Color
	frame *image1bit.VerticalLSB
	n     int
}

// New returns a Dev writing to opts.Path.
func New(opts *Opts) (*Dev, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("framedump: empty path")
	}
	d := &Dev{
		path:  opts.Path,
		zoom:  opts.Zoom,
		on:    opts.On,
		frame: image1bit.NewVerticalLSB(image.Rect(0, 0, opts.W, opts.H)),
	}
	if d.zoom < 1 {
		d.zoom = 4
	}
	if d.on == nil {
		d.on = color.RGBA{0x40, 0xE0, 0xFF, 0xFF}
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("framedump.Dev{%s, %s}", d.path, d.frame.Rect.Max)
}

// Halt implements conn.Resource.
func (d *Dev) Halt() error {
	return nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return d.frame.Rect
}

// Draw implements display.Drawer.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Src.Draw(d.frame, r, src, sp)
	if err := d.Render().SavePNG(d.path); err != nil {
		return fmt.Errorf("framedump: %w", err)
	}
	d.n++
	return nil
}

// Render returns the current frame as drawn in the file.
func (d *Dev) Render() *gg.Context {
	b := d.frame.Rect
	dc := gg.NewContext(b.Dx()*d.zoom, b.Dy()*d.zoom)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.SetColor(d.on)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if d.frame.BitAt(x, y) {
				dc.DrawRectangle(float64(x*d.zoom), float64(y*d.zoom), float64(d.zoom), float64(d.zoom))
			}
		}
	}
	dc.Fill()
	return dc
}

// Frames returns the number of frames saved.
func (d *Dev) Frames() int {
	return d.n
}

var _ display.Drawer = &Dev{}
