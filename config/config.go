// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the wiring of the rotary counter: which bus and pins
// the encoder and the display are connected to.
//
// Defaults match the reference board: SSD1306 128x64 at 0x3C on the first
// I²C bus at 400kHz, encoder on GPIO6 (CLK), GPIO7 (DT) and GPIO8 (SW).
// A YAML file can override any field:
//
//	display:
//	  bus: "/dev/i2c-1"
//	  address: 0x3d
//	  font: goregular
//	  fontSize: 16
//	encoder:
//	  a: GPIO17
//	  b: GPIO27
//	  button: GPIO22
//	refresh:
//	  interval: 10ms
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// ErrInvalid is wrapped by validation errors.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete wiring.
type Config struct {
	Display Display `yaml:"display"`
	Encoder Encoder `yaml:"encoder"`
	Refresh Refresh `yaml:"refresh"`
}

// Display is the I²C panel.
type Display struct {
	// Bus is the i2creg name, "" for the first bus.
	Bus string `yaml:"bus"`
	// Freq is the bus clock in Hz; 0 leaves the bus default.
	Freq    int64  `yaml:"freq"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Address uint16 `yaml:"address"`
	// Font is "basic" (7x13 bitmap, the default) or "goregular".
	Font string `yaml:"font"`
	// FontSize is the goregular size in points.
	FontSize float64 `yaml:"fontSize"`
}

// Encoder is the three GPIO lines, by gpioreg name.
type Encoder struct {
	A      string `yaml:"a"`
	B      string `yaml:"b"`
	Button string `yaml:"button"`
	// Pull is "up", "down", "float" or "" for up.
	Pull string `yaml:"pull"`
	// PollHz enables polled edge detection at this rate when non-zero.
	PollHz int64 `yaml:"pollHz"`
}

// Refresh is the display update loop.
type Refresh struct {
	Interval time.Duration `yaml:"interval"`
	X        int           `yaml:"x"`
	Y        int           `yaml:"y"`
	Scale    int           `yaml:"scale"`
}

// Default returns the reference wiring.
func Default() *Config {
	return &Config{
		Display: Display{
			Freq:     400000,
			Width:    128,
			Height:   64,
			Address:  0x3C,
			Font:     "basic",
			FontSize: 20,
		},
		Encoder: Encoder{
			A:      "GPIO6",
			B:      "GPIO7",
			Button: "GPIO8",
			Pull:   "up",
		},
		Refresh: Refresh{
			Interval: 5 * time.Millisecond,
			X:        10,
			Y:        10,
			Scale:    2,
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the ranges the hardware accepts.
func (c *Config) Validate() error {
	d := c.Display
	if d.Width < 8 || d.Width > 128 || d.Width%8 != 0 {
		return fmt.Errorf("config: display width %d: %w", d.Width, ErrInvalid)
	}
	if d.Height < 8 || d.Height > 128 || d.Height%8 != 0 {
		return fmt.Errorf("config: display height %d: %w", d.Height, ErrInvalid)
	}
	if d.Address == 0 || d.Address > 0x7F {
		return fmt.Errorf("config: display address %#x: %w", d.Address, ErrInvalid)
	}
	switch d.Font {
	case "", "basic":
	case "goregular":
		if d.FontSize <= 0 {
			return fmt.Errorf("config: display fontSize %g: %w", d.FontSize, ErrInvalid)
		}
	default:
		return fmt.Errorf("config: display font %q: %w", d.Font, ErrInvalid)
	}
	if d.Freq < 0 {
		return fmt.Errorf("config: display freq %d: %w", d.Freq, ErrInvalid)
	}
	e := c.Encoder
	if e.A == "" || e.B == "" || e.Button == "" {
		return fmt.Errorf("config: encoder needs a, b and button: %w", ErrInvalid)
	}
	if e.A == e.B || e.A == e.Button || e.B == e.Button {
		return fmt.Errorf("config: encoder lines must differ: %w", ErrInvalid)
	}
	if _, err := e.GPIOPull(); err != nil {
		return err
	}
	if e.PollHz < 0 {
		return fmt.Errorf("config: encoder pollHz %d: %w", e.PollHz, ErrInvalid)
	}
	r := c.Refresh
	if r.Interval <= 0 {
		return fmt.Errorf("config: refresh interval %s: %w", r.Interval, ErrInvalid)
	}
	if r.Scale < 1 {
		return fmt.Errorf("config: refresh scale %d: %w", r.Scale, ErrInvalid)
	}
	return nil
}

// BusFreq returns the configured I²C clock.
func (d *Display) BusFreq() physic.Frequency {
	return physic.Frequency(d.Freq) * physic.Hertz
}

// PollFreq returns the polled edge detection rate, 0 when disabled.
func (e *Encoder) PollFreq() physic.Frequency {
	return physic.Frequency(e.PollHz) * physic.Hertz
}

// GPIOPull converts Pull.
func (e *Encoder) GPIOPull() (gpio.Pull, error) {
	switch e.Pull {
	case "", "up":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	case "float":
		return gpio.Float, nil
	default:
		return gpio.PullNoChange, fmt.Errorf("config: encoder pull %q: %w", e.Pull, ErrInvalid)
	}
}
