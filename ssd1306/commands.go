// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ssd1306

import "fmt"

// Commands are listed on page 28 of the SSD1306 datasheet.
const (
	cmdChargePump        = 0x8D
	cmdColumnAddr        = 0x21
	cmdComScanDec        = 0xC8
	cmdComScanInc        = 0xC0
	cmdDCDCSetting       = 0xAD
	cmdDeactivateScroll  = 0x2E
	cmdDisplayAllOnResum = 0xA4
	cmdDisplayOff        = 0xAE
	cmdDisplayOn         = 0xAF
	cmdInvertDisplay     = 0xA7
	cmdMemoryMode        = 0x20
	cmdNormalDisplay     = 0xA6
	cmdPageAddr          = 0x22
	cmdPageStart         = 0xB0
	cmdSegRemap          = 0xA0
	cmdSegRemapFlip      = 0xA1
	cmdSetComPins        = 0xDA
	cmdSetContrast       = 0x81
	cmdSetClockDiv       = 0xD5
	cmdSetDisplayOffset  = 0xD3
	cmdHighColumn        = 0x10
	cmdLowColumn         = 0x00
	cmdSetMultiplex      = 0xA8
	cmdSetPrecharge      = 0xD9
	cmdSetStartLine      = 0x40
	cmdSetVComDetect     = 0xDB
)

type variant string

const (
	variantSSD1306 variant = "SSD1306"
	variantSH1106  variant = "SH1106"
	variantSH1107  variant = "SH1107"
)

func detect(id byte) variant {
	switch id & 0x0F {
	case 0x07, 0x0F:
		return variantSH1107
	case 0x08:
		return variantSH1106
	default:
		return variantSSD1306
	}
}

func (v variant) validate(w, h int) error {
	if w < 8 || w > 128 || w&7 != 0 {
		return fmt.Errorf("%s: invalid width %d", v, w)
	}
	maxH := 64
	if v == variantSH1107 {
		maxH = 128
	}
	if h < 8 || h > maxH || h&7 != 0 {
		return fmt.Errorf("%s: invalid height %d", v, h)
	}
	return nil
}

func initSequence(opts *Opts, v variant) []byte {
	if v == variantSH1107 {
		// From the adafruit driver.
		return []byte{
			cmdDisplayOff,
			cmdSetMultiplex, byte(opts.H - 1),
			cmdMemoryMode,
			cmdPageStart,
			cmdDCDCSetting, 0x81,
			cmdSetClockDiv, 0x50,
			cmdSetVComDetect, 0x35,
			cmdSetPrecharge, 0x22,
			cmdDisplayOn,
		}
	}
	comScan := byte(cmdComScanDec)
	if opts.MirrorVertical {
		comScan = cmdComScanInc
	}
	segRemap := byte(cmdSegRemapFlip)
	if opts.MirrorHorizontal {
		segRemap = cmdSegRemap
	}
	// Page 40.
	comPins := byte(0x02)
	if !opts.Sequential {
		comPins |= 0x10
	}
	if opts.SwapTopBottom {
		comPins |= 0x20
	}
	// Full reset of all values, page 64 has the recommended flow.
	return []byte{
		cmdDisplayOff,
		cmdSetDisplayOffset, 0x00,
		cmdSetStartLine,
		segRemap,
		comScan,
		cmdSetComPins, comPins,
		cmdSetContrast, 0xFF,
		cmdDisplayAllOnResum,
		cmdNormalDisplay,
		cmdSetClockDiv, 0xF0, // Max frequency reduces tearing on I²C.
		cmdChargePump, 0x14,
		cmdSetPrecharge, 0xF1,
		cmdSetVComDetect, 0x40,
		cmdDeactivateScroll,
		cmdSetMultiplex, byte(opts.H - 1),
		cmdMemoryMode, 0x00, // Horizontal addressing.
		cmdColumnAddr, 0, byte(opts.W - 1),
		cmdPageAddr, 0, byte(opts.H/8 - 1),
		cmdDisplayOn,
	}
}
