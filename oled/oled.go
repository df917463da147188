// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package oled draws text on a small monochrome display.
//
// A Screen keeps a 1 bit frame in memory. Clear and DrawText only touch the
// frame, Flush sends it to the display. With the ssd1306 driver only the
// changed area goes over the bus.
//
// Screen is not safe for concurrent use.
package oled

import (
	"fmt"
	"image"

	"github.com/GermanBionicSystems/rotarycounter/ssd1306"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Opts defines the options for a Screen.
type Opts struct {
	// Face is the font used by DrawText, basicfont.Face7x13 by default.
	Face font.Face
}

// Screen is a text surface backed by a display.Drawer.
type Screen struct {
	d     display.Drawer
	frame *image1bit.VerticalLSB
	face  font.Face
}

// Open initializes a SSD1306 class controller of the given geometry at addr
// on b and returns a cleared Screen for it. opts may be nil.
func Open(b i2c.Bus, width, height int, addr uint16, opts *Opts) (*Screen, error) {
	opts := ssd1306.DefaultOpts
	opts.W = width
	opts.H = height
	opts.Addr = addr
	if height == 32 {
		opts.Sequential = true
	}
	dev, err := ssd1306.NewI2C(b, &opts)
	if err != nil {
		return nil, fmt.Errorf("oled: %w", err)
	}
	s := NewScreen(dev, opts)
	if err := s.Flush(); err != nil {
		return nil, fmt.Errorf("oled: clear: %w", err)
	}
	return s, nil
}

// NewScreen returns a Screen drawing on d.
func NewScreen(d display.Drawer, opts *Opts) *Screen {
	s := &Screen{
		d:     d,
		frame: image1bit.NewVerticalLSB(d.Bounds()),
		face:  basicfont.Face7x13,
	}
	if opts != nil && opts.Face != nil {
		s.face = opts.Face
	}
	return s
}

func (s *Screen) String() string {
	return fmt.Sprintf("oled.Screen{%s}", s.d)
}

// Bounds returns the frame size.
func (s *Screen) Bounds() image.Rectangle {
	return s.frame.Rect
}

// Frame returns the in-memory frame. It is valid until the next call.
func (s *Screen) Frame() *image1bit.VerticalLSB {
	return s.frame
}

// Clear blanks the frame.
func (s *Screen) Clear() {
	clear(s.frame.Pix)
}

// DrawText renders text with its top left corner at (x, y), every glyph pixel
// enlarged to scale x scale pixels. A scale below 1 is treated as 1. Text
// outside the frame is clipped.
func (s *Screen) DrawText(x, y, scale int, text string) {
	if scale < 1 {
		scale = 1
	}
	m := s.face.Metrics()
	w := font.MeasureString(s.face, text).Ceil()
	h := (m.Ascent + m.Descent).Ceil()
	if w <= 0 || h <= 0 {
		return
	}
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	dr := font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: s.face,
		Dot:  fixed.Point26_6{Y: m.Ascent},
	}
	dr.DrawString(text)
	if scale > 1 {
		big := image.NewAlpha(image.Rect(0, 0, w*scale, h*scale))
		draw.NearestNeighbor.Scale(big, big.Rect, mask, mask.Rect, draw.Src, nil)
		mask = big
	}
	r := mask.Rect.Add(image.Pt(x, y))
	draw.DrawMask(s.frame, r, &image.Uniform{image1bit.On}, image.Point{}, mask, image.Point{}, draw.Over)
}

// Flush sends the frame to the display.
func (s *Screen) Flush() error {
	return s.d.Draw(s.frame.Rect, s.frame, image.Point{})
}

// Halt implements conn.Resource.
func (s *Screen) Halt() error {
	return s.d.Halt()
}

// Face returns the face called name: "basic" or "" for basicfont.Face7x13,
// "goregular" for GoRegular(size).
func Face(name string, size float64) (font.Face, error) {
	switch name {
	case "", "basic":
		return basicfont.Face7x13, nil
	case "goregular":
		return GoRegular(size)
	default:
		return nil, fmt.Errorf("oled: unknown font %q", name)
	}
}

// GoRegular returns the Go Regular TrueType face at size points, 72 dpi.
func GoRegular(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("oled: %w", err)
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), nil
}
