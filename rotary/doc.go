// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rotary reads a quadrature rotary encoder with push-button, such as
// the KY-040 module, over three GPIO inputs.
//
// All three lines are configured for falling edge detection. A goroutine per
// line waits for edges and samples both rotation lines as soon as the edge is
// reported. The samples are funneled to a single goroutine that owns the
// quadrature.Decoder, so it behaves as the interrupt handler on a
// microcontroller would: one writer of the counter, never blocking.
//
// # Sampling
//
// A host kernel reports an edge some time after it happened, and New reads A
// and B with two separate calls once the waiting goroutine is scheduled. A
// fast turn can move the lines again in between, and edges seen on different
// pins can reach the decoder out of order. Either way a detent may be lost.
//
// NewGroup reads both lines in one gpio.Group.Read. If the group can also
// report edges, they are decoded in the order the group delivers them; this
// is the closest a host gets to the single interrupt handler of a
// microcontroller. Without group edges the ordering caveat remains.
//
// # Wiring
//
// Connect CLK to A, DT to B and SW to the button line. The module has pull-up
// resistors on CLK and DT but often not on SW.
package rotary
