// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// rotarycounter shows a counter driven by a rotary encoder on an OLED panel.
//
// Turning the knob clockwise increments the counter, counter-clockwise
// decrements it, both wrapping between 0 and 255. Pressing the knob resets it
// to 0.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/GermanBionicSystems/rotarycounter/config"
	"github.com/GermanBionicSystems/rotarycounter/framedump"
	"github.com/GermanBionicSystems/rotarycounter/oled"
	"github.com/GermanBionicSystems/rotarycounter/quadrature"
	"github.com/GermanBionicSystems/rotarycounter/refresher"
	"github.com/GermanBionicSystems/rotarycounter/rotary"
	"github.com/GermanBionicSystems/rotarycounter/term"
	"github.com/dikkadev/prettyslog"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	configPath = flag.String("config", "", "YAML wiring file; the reference wiring if empty")
	output     = flag.String("display", "oled", "where to draw: oled, term or png")
	pngPath    = flag.String("png", "rotarycounter.png", "file written with -display=png")
	verbose    = flag.Bool("v", false, "log every decoded edge and dropped event")
)

func main() {
	flag.Parse()
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(prettyslog.NewPrettyslogHandler("rotary", prettyslog.WithLevel(level))))

	if err := mainImpl(); err != nil {
		slog.Error("rotarycounter: fatal", "err", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if _, err := host.Init(); err != nil {
		return err
	}

	screen, closeScreen, err := openScreen(cfg)
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}
	defer closeScreen()
	slog.Info("display ready", "dev", screen.String())

	pins, err := openPins(&cfg.Encoder)
	if err != nil {
		return fmt.Errorf("encoder: %w", err)
	}
	pull, err := cfg.Encoder.GPIOPull()
	if err != nil {
		return err
	}
	counter := &quadrature.Counter{}
	enc, err := rotary.New(pins[0], pins[1], pins[2], counter, &rotary.Opts{
		Pull:        pull,
		Poll:        cfg.Encoder.PollFreq(),
		EventBuffer: 64,
	})
	if err != nil {
		return fmt.Errorf("encoder: %w", err)
	}
	defer enc.Halt()
	slog.Info("encoder ready", "dev", enc.String())

	ref := refresher.New(counter, screen, &refresher.Opts{
		Interval: cfg.Refresh.Interval,
		X:        cfg.Refresh.X,
		Y:        cfg.Refresh.Y,
		Scale:    cfg.Refresh.Scale,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return enc.Run(ctx) })
	g.Go(func() error { return ref.Run(ctx) })
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ch := <-enc.Events():
				slog.Info(ch.Event.String(), "value", ch.Value)
			}
		}
	})
	err = g.Wait()
	slog.Info("stopped", "edges", enc.Edges(), "dropped", enc.Dropped(), "renders", ref.Renders())
	return err
}

// openScreen returns the Screen selected by -display and a func releasing it.
func openScreen(cfg *config.Config) (*oled.Screen, func(), error) {
	d := &cfg.Display
	face, err := oled.Face(d.Font, d.FontSize)
	if err != nil {
		return nil, nil, err
	}
	opts := &oled.Opts{Face: face}
	switch *output {
	case "oled":
		b, err := i2creg.Open(d.Bus)
		if err != nil {
			return nil, nil, err
		}
		if d.Freq != 0 {
			if err := b.SetSpeed(d.BusFreq()); err != nil {
				_ = b.Close()
				return nil, nil, err
			}
		}
		s, err := oled.Open(b, d.Width, d.Height, d.Address, opts)
		if err != nil {
			_ = b.Close()
			return nil, nil, err
		}
		return s, func() {
			_ = s.Halt()
			_ = b.Close()
		}, nil
	case "term":
		s := oled.NewScreen(term.New(&term.Opts{W: d.Width, H: d.Height, Downsample: 2}), opts)
		return s, func() { _ = s.Halt() }, nil
	case "png":
		dev, err := framedump.New(&framedump.Opts{W: d.Width, H: d.Height, Path: *pngPath})
		if err != nil {
			return nil, nil, err
		}
		return oled.NewScreen(dev, opts), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown -display %q", *output)
	}
}

func openPins(e *config.Encoder) ([3]gpio.PinIO, error) {
	var pins [3]gpio.PinIO
	var errs []error
	for i, name := range []string{e.A, e.B, e.Button} {
		if pins[i] = gpioreg.ByName(name); pins[i] == nil {
			errs = append(errs, fmt.Errorf("%s: no such pin", name))
		}
	}
	return pins, errors.Join(errs...)
}
