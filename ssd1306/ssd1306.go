// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// DefaultOpts is a 128x64 panel at the usual I²C address.
var DefaultOpts = Opts{
	W:    128,
	H:    64,
	Addr: 0x3C,
}

// Opts defines the options for the device.
type Opts struct {
	W int
	H int
	// Sequential selects the sequential COM pin configuration. Try it if every
	// other row is missing, typically on 32 pixel high panels.
	Sequential bool
	// MirrorVertical flips the COM scan direction.
	MirrorVertical bool
	// MirrorHorizontal flips the segment remap.
	MirrorHorizontal bool
	// SwapTopBottom sets the COM left/right remap.
	SwapTopBottom bool
	// Addr is the I²C address; 0 means DefaultOpts.Addr.
	Addr uint16
}

// NewI2C returns a Dev that communicates over I²C to the display controller.
//
// The controller accepts up to 400kHz.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Addr == 0 {
		o.Addr = DefaultOpts.Addr
	}
	return newDev(&i2c.Dev{Bus: b, Addr: o.Addr}, &o, nil)
}

// NewSPI returns a Dev that communicates over 4-wire SPI, dc selecting
// between command and data bytes.
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, fmt.Errorf("%s: a dc pin is required", variantSSD1306)
	}
	if err := dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	c, err := p.Connect(3300*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	return newDev(c, opts, dc)
}

// Dev is an open handle to the display controller.
type Dev struct {
	c  conn.Conn
	dc gpio.PinOut // nil on I²C

	rect    image.Rectangle
	variant variant
	// SH1106 has 132 columns of RAM with the panel centered.
	colOffset byte

	// buffer is what the controller RAM holds: one byte per column per page of
	// 8 rows, as image1bit.VerticalLSB.Pix.
	buffer []byte
	// next is allocated on the first Draw() that needs conversion.
	next *image1bit.VerticalLSB
	// full forces the next update to send the whole frame.
	full   bool
	halted bool
}

func (d *Dev) String() string {
	if d.dc != nil {
		return fmt.Sprintf("%s.Dev{%s, %s, %s}", d.variant, d.c, d.dc, d.rect.Max)
	}
	return fmt.Sprintf("%s.Dev{%s, %s}", d.variant, d.c, d.rect.Max)
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. Min is always {0, 0}.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw implements display.Drawer.
//
// It is synchronous: only the pages and columns that changed since the last
// update are sent, on I²C this still takes a few milliseconds for a full
// frame.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if img, ok := src.(*image1bit.VerticalLSB); ok && r == d.rect && img.Rect == d.rect && sp == (image.Point{}) {
		return d.update(img.Pix)
	}
	if d.next == nil {
		d.next = image1bit.NewVerticalLSB(d.rect)
		copy(d.next.Pix, d.buffer)
	}
	draw.Src.Draw(d.next, r, src, sp)
	return d.update(d.next.Pix)
}

// Write sends a raw frame, in the image1bit.VerticalLSB.Pix layout.
func (d *Dev) Write(pixels []byte) (int, error) {
	if len(pixels) != len(d.buffer) {
		return 0, fmt.Errorf("%s: invalid pixel stream length; expected %d bytes, got %d bytes", d.variant, len(d.buffer), len(pixels))
	}
	if err := d.update(pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// SetContrast changes the screen contrast.
func (d *Dev) SetContrast(level byte) error {
	return d.sendCommand(cmdSetContrast, level)
}

// Invert selects black on white when true.
func (d *Dev) Invert(blackOnWhite bool) error {
	if blackOnWhite {
		return d.sendCommand(cmdInvertDisplay)
	}
	return d.sendCommand(cmdNormalDisplay)
}

// Halt implements conn.Resource. It turns the panel off; the next command
// turns it back on.
func (d *Dev) Halt() error {
	if err := d.sendCommand(cmdDisplayOff); err != nil {
		return err
	}
	d.halted = true
	return nil
}

func newDev(c conn.Conn, opts *Opts, dc gpio.PinOut) (*Dev, error) {
	d := &Dev{
		c:      c,
		dc:     dc,
		rect:   image.Rect(0, 0, opts.W, opts.H),
		buffer: make([]byte, opts.W*opts.H/8),
		full:   true,
	}
	d.variant = detect(d.readID())
	if d.variant == variantSH1106 {
		d.colOffset = 2
	}
	if err := d.variant.validate(opts.W, opts.H); err != nil {
		return nil, err
	}
	if err := d.sendCommand(initSequence(opts, d.variant)...); err != nil {
		return nil, fmt.Errorf("%s: init: %w", d.variant, err)
	}
	return d, nil
}

// dirty returns the smallest band of pages and columns that differs between
// the controller RAM and next, in page/column units. ok is false when
// nothing changed.
func (d *Dev) dirty(next []byte) (r image.Rectangle, ok bool) {
	w := d.rect.Dx()
	pages := d.rect.Dy() / 8
	if d.full {
		return image.Rect(0, 0, w, pages), true
	}
	page := func(i int) []byte { return d.buffer[i*w : (i+1)*w] }
	nextPage := func(i int) []byte { return next[i*w : (i+1)*w] }
	r = image.Rect(0, 0, w, pages)
	for r.Min.Y < r.Max.Y && bytes.Equal(page(r.Min.Y), nextPage(r.Min.Y)) {
		r.Min.Y++
	}
	if r.Empty() {
		return r, false
	}
	for bytes.Equal(page(r.Max.Y-1), nextPage(r.Max.Y-1)) {
		r.Max.Y--
	}
	colDiffers := func(x int) bool {
		for p := r.Min.Y; p < r.Max.Y; p++ {
			if d.buffer[p*w+x] != next[p*w+x] {
				return true
			}
		}
		return false
	}
	for !colDiffers(r.Min.X) {
		r.Min.X++
	}
	for !colDiffers(r.Max.X - 1) {
		r.Max.X--
	}
	return r, true
}

// update sends the part of next that changed.
//
// After a failed transfer the controller RAM is unknown, so the next update
// sends the whole frame.
func (d *Dev) update(next []byte) error {
	r, ok := d.dirty(next)
	if !ok {
		return nil
	}
	copy(d.buffer, next)
	w := d.rect.Dx()
	col := byte(r.Min.X) + d.colOffset
	for p := r.Min.Y; p < r.Max.Y; p++ {
		if err := d.sendCommand(cmdPageStart|byte(p), cmdLowColumn|col&0x0F, cmdHighColumn|col>>4); err != nil {
			d.full = true
			return err
		}
		if err := d.sendData(d.buffer[p*w+r.Min.X : p*w+r.Max.X]); err != nil {
			d.full = true
			return err
		}
	}
	d.full = false
	return nil
}

func (d *Dev) sendData(b []byte) error {
	if d.halted {
		if err := d.sendCommand(); err != nil {
			return err
		}
	}
	if d.dc != nil {
		if err := d.dc.Out(gpio.High); err != nil {
			return err
		}
		return d.c.Tx(b, nil)
	}
	return d.c.Tx(append([]byte{i2cData}, b...), nil)
}

func (d *Dev) sendCommand(c ...byte) error {
	if d.halted {
		c = append([]byte{cmdDisplayOn}, c...)
	}
	var err error
	if d.dc != nil {
		if err = d.dc.Out(gpio.Low); err != nil {
			return err
		}
		err = d.c.Tx(c, nil)
	} else {
		err = d.c.Tx(append([]byte{i2cCmd}, c...), nil)
	}
	if err == nil {
		d.halted = false
	}
	return err
}

// readID reads the status byte. Bits 0-5 hold the device ID: 0x03 and 0x06
// for SSD1306, 0x07 or 0x0F for SH1107, 0x08 for SH1106. A read error is
// treated as an SSD1306, some modules do not support reads.
func (d *Dev) readID() byte {
	if d.dc != nil {
		return 0
	}
	r := make([]byte, 1)
	if err := d.c.Tx([]byte{i2cCmd}, r); err != nil {
		return 0
	}
	return r[0]
}

const (
	i2cCmd  = 0x00 // I²C transaction has stream of command bytes
	i2cData = 0x40 // I²C transaction has stream of data bytes
)

var _ display.Drawer = &Dev{}
