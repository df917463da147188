// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ssd1306 controls a monochrome OLED display via a SSD1306, SH1106,
// or SH1107 controller. The variant is read from the controller's status
// byte.
//
// The driver does differential updates: it only sends the pages and columns
// that changed, to economize bus bandwidth. At the default I²C speed of
// 100kHz a full 128x64 frame takes about 100ms; redrawing a 3 digit number
// costs a fraction of it.
//
// # Datasheets
//
// https://cdn-shop.adafruit.com/datasheets/SSD1306.pdf
//
// https://cdn.velleman.eu/downloads/29/infosheets/sh1106_datasheet.pdf
//
// https://www.displayfuture.com/Display/datasheet/controller/SH1107.pdf
package ssd1306
