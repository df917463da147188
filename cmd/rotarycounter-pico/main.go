// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build tinygo && rp2040

// rotarycounter-pico is the Raspberry Pi Pico firmware: encoder on GP6 (CLK),
// GP7 (DT), GP8 (SW), SSD1306 128x64 at 0x3C on I2C0 (GP4 SDA, GP5 SCL).
//
//	tinygo flash -target=pico ./cmd/rotarycounter-pico
package main

import (
	"device/rp"
	"image/color"
	"machine"
	"sync/atomic"
	"time"

	"github.com/GermanBionicSystems/rotarycounter/quadrature"
	"github.com/GermanBionicSystems/rotarycounter/refresher"
	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

// The encoder lines must be contiguous, in this order.
const (
	encA      = machine.GPIO6
	encB      = machine.GPIO7
	encButton = machine.GPIO8
)

const (
	oledAddr   = 0x3C
	oledWidth  = 128
	oledHeight = 64
)

var (
	counter quadrature.Counter
	decoder = quadrature.NewDecoder(&counter)
	// lastEvent is seq<<8 | event, written by the interrupt handler only.
	lastEvent atomic.Uint32
)

// onEdge runs in interrupt context. GPIO_IN is read once so both rotation
// lines are sampled at the same instant.
func onEdge(p machine.Pin) {
	levels := quadrature.Levels(rp.SIO.GPIO_IN.Get() >> uint32(encA))
	var line quadrature.Line
	switch p {
	case encA:
		line = quadrature.LineA
	case encB:
		line = quadrature.LineB
	case encButton:
		line = quadrature.LineButton
	default:
		return
	}
	if ev := decoder.HandleEdge(line, levels); ev != quadrature.None {
		seq := lastEvent.Load()>>8 + 1
		lastEvent.Store(seq<<8 | uint32(ev))
	}
}

// panel adapts the TinyGo driver to refresher.Renderer and tinyfont.
type panel struct {
	size     func() (int16, int16)
	setPixel func(x, y int16, c color.RGBA)
	clear    func()
	display  func() error
}

func (p *panel) Size() (int16, int16) { return p.size() }
func (p *panel) SetPixel(x, y int16, c color.RGBA) { p.setPixel(x, y, c) }
func (p *panel) Display() error { return p.display() }
func (p *panel) Clear() { p.clear() }
func (p *panel) Flush() error { return p.display() }

func (p *panel) DrawText(x, y, scale int, text string) {
	f := &proggy.TinySZ8pt7b
	switch {
	case scale == 2:
		f = &freemono.Regular12pt7b
	case scale >= 3:
		f = &freemono.Regular18pt7b
	}
	// tinyfont positions on the baseline.
	baseline := int16(y) + int16(f.YAdvance)*3/4
	tinyfont.WriteLine(p, f, int16(x), baseline, text, color.RGBA{255, 255, 255, 255})
}

func main() {
	if err := machine.I2C0.Configure(machine.I2CConfig{
		SDA:       machine.GPIO4,
		SCL:       machine.GPIO5,
		Frequency: 400 * machine.KHz,
	}); err != nil {
		// Without a display the encoder still counts.
		println("i2c:", err.Error())
	}
	dev := ssd1306.NewI2C(machine.I2C0)
	dev.Configure(ssd1306.Config{Address: oledAddr, Width: oledWidth, Height: oledHeight})
	dev.ClearDisplay()
	p := &panel{
		size:     dev.Size,
		setPixel: dev.SetPixel,
		clear:    dev.ClearBuffer,
		display:  dev.Display,
	}

	for _, pin := range []machine.Pin{encButton, encA, encB} {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		if err := pin.SetInterrupt(machine.PinFalling, onEdge); err != nil {
			println("interrupt:", err.Error())
		}
	}

	ref := refresher.New(&counter, p, nil)
	var seen uint32
	for {
		if ev := lastEvent.Load(); ev>>8 != seen {
			seen = ev >> 8
			println(quadrature.Event(ev & 0xFF).String())
		}
		if _, err := ref.Poll(); err != nil {
			println("display:", err.Error())
		}
		time.Sleep(refresher.DefaultOpts.Interval)
	}
}
