// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rotarycounter counts the detents of a quadrature rotary encoder and
// shows the current value on a small monochrome display.
//
// The decoding state machine lives in quadrature, the GPIO edge plumbing in
// rotary and the display side in ssd1306, oled and refresher. Two commands
// tie them together: cmd/rotarycounter for periph.io hosts and
// cmd/rotarycounter-pico for RP2040 boards built with TinyGo.
package rotarycounter
