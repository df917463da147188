// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package quadrature

import (
	"strconv"
	"sync/atomic"
)

// Counter is an 8 bit value shared between one writer and any number of
// readers.
//
// Arithmetic wraps modulo 256. The zero value is ready to use and holds 0.
type Counter struct {
	// Only the low 8 bits are meaningful; uint32 arithmetic modulo 2³² is
	// congruent modulo 256.
	v atomic.Uint32
}

// Load returns the current value.
func (c *Counter) Load() uint8 {
	return uint8(c.v.Load())
}

// Store sets the value.
func (c *Counter) Store(v uint8) {
	c.v.Store(uint32(v))
}

// Inc adds one, 255 becomes 0.
func (c *Counter) Inc() {
	c.v.Add(1)
}

// Dec subtracts one, 0 becomes 255.
func (c *Counter) Dec() {
	c.v.Add(^uint32(0))
}

func (c *Counter) String() string {
	return "Counter(" + strconv.Itoa(int(c.Load())) + ")"
}

