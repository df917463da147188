// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package oled

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/font/basicfont"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// recorder is a display.Drawer keeping a copy of every drawn frame.
type recorder struct {
	rect   image.Rectangle
	frames []*image1bit.VerticalLSB
	err    error
	halted bool
}

func (r *recorder) String() string          { return "recorder" }
func (r *recorder) Halt() error             { r.halted = true; return nil }
func (r *recorder) ColorModel() color.Model { return image1bit.BitModel }
func (r *recorder) Bounds() image.Rectangle { return r.rect }

func (r *recorder) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if r.err != nil {
		return r.err
	}
	img := image1bit.NewVerticalLSB(r.rect)
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		for x := dst.Min.X; x < dst.Max.X; x++ {
			img.Set(x, y, src.At(x-dst.Min.X+sp.X, y-dst.Min.Y+sp.Y))
		}
	}
	r.frames = append(r.frames, img)
	return nil
}

// lit returns the bounding box of the pixels that are on.
func lit(img *image1bit.VerticalLSB) image.Rectangle {
	var b image.Rectangle
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			if img.BitAt(x, y) == image1bit.On {
				b = b.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return b
}

func TestDrawText(t *testing.T) {
	rec := &recorder{rect: image.Rect(0, 0, 128, 64)}
	s := NewScreen(rec, nil)
	if s.Bounds() != rec.rect {
		t.Fatalf("Bounds() = %v", s.Bounds())
	}

	s.DrawText(10, 10, 1, "8")
	one := lit(s.Frame())
	if one.Empty() {
		t.Fatal("nothing drawn")
	}
	// basicfont.Face7x13 is 7x13 per glyph.
	if !one.In(image.Rect(10, 10, 17, 23)) {
		t.Errorf("scale 1 drawn at %v, outside the glyph cell", one)
	}

	s.Clear()
	if b := lit(s.Frame()); !b.Empty() {
		t.Fatalf("Clear() left %v", b)
	}

	s.DrawText(10, 10, 2, "8")
	two := lit(s.Frame())
	wantMin := image.Pt(10+2*(one.Min.X-10), 10+2*(one.Min.Y-10))
	if two.Min != wantMin || two.Dx() != 2*one.Dx() || two.Dy() != 2*one.Dy() {
		t.Errorf("scale 2 drawn at %v, want %v sized %dx%d", two, wantMin, 2*one.Dx(), 2*one.Dy())
	}

	if len(rec.frames) != 0 {
		t.Fatal("drawer called before Flush")
	}
	if err := s.Flush(); err != nil {
		t.Fatal(err)
	}
	if len(rec.frames) != 1 || lit(rec.frames[0]) != two {
		t.Errorf("flushed frame does not match")
	}
}

func TestDrawTextWidth(t *testing.T) {
	s := NewScreen(&recorder{rect: image.Rect(0, 0, 128, 64)}, nil)
	s.DrawText(0, 0, 2, "255")
	b := lit(s.Frame())
	if b.Max.X > 3*7*2 || b.Max.X <= 2*7*2 {
		t.Errorf("3 digits at scale 2 span %v", b)
	}
}

func TestDrawTextClipped(t *testing.T) {
	s := NewScreen(&recorder{rect: image.Rect(0, 0, 32, 16)}, nil)
	s.DrawText(20, 0, 4, "000")
	b := lit(s.Frame())
	if b.Empty() || !b.In(s.Bounds()) {
		t.Errorf("clipped text at %v", b)
	}
	s.Clear()
	s.DrawText(0, 0, 0, "")
	if b := lit(s.Frame()); !b.Empty() {
		t.Errorf("empty text drew %v", b)
	}
}

func TestGoRegular(t *testing.T) {
	face, err := GoRegular(16)
	if err != nil {
		t.Fatal(err)
	}
	s := NewScreen(&recorder{rect: image.Rect(0, 0, 128, 64)}, &Opts{Face: face})
	s.DrawText(0, 0, 1, "42")
	if b := lit(s.Frame()); b.Empty() {
		t.Error("nothing drawn with TrueType face")
	}
}

func TestFace(t *testing.T) {
	for _, name := range []string{"", "basic"} {
		f, err := Face(name, 0)
		if err != nil || f != basicfont.Face7x13 {
			t.Errorf("Face(%q) = %v, %v", name, f, err)
		}
	}
	f, err := Face("goregular", 20)
	if err != nil {
		t.Fatal(err)
	}
	if h := f.Metrics().Height.Ceil(); h < 20 {
		t.Errorf("goregular 20pt height = %d", h)
	}
	if _, err := Face("comic", 12); err == nil {
		t.Error("expected error for unknown font")
	}
}

func TestFlushError(t *testing.T) {
	want := errors.New("bus fault")
	rec := &recorder{rect: image.Rect(0, 0, 128, 64), err: want}
	s := NewScreen(rec, nil)
	if err := s.Flush(); !errors.Is(err, want) {
		t.Errorf("Flush() = %v", err)
	}
	if err := s.Halt(); err != nil || !rec.halted {
		t.Error("Halt not forwarded")
	}
}

func TestOpenFailure(t *testing.T) {
	// Nothing answers on the bus.
	bus := &i2ctest.Playback{DontPanic: true}
	if _, err := Open(bus, 128, 64, 0x3C, nil); err == nil {
		t.Fatal("expected error")
	}
}
