// Copyright 2023 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package quadrature decodes a mechanical rotary encoder with an integrated
// push-button into discrete rotation and reset events.
//
// The decoder is driven by falling edges only. Each edge is reported with the
// line that fired and a snapshot of both rotation lines taken when the edge
// occurred. One detent of a 2-bit grey code encoder visits 11→10→00→01→11 in
// one direction and the reverse in the other. The intermediate code arms a
// direction, the return to 00 on the opposite line confirms it. Partial
// jitter that goes back to its starting code without crossing the opposite
// intermediate code never confirms.
//
// There is no timing based debounce. Contact bounce that reproduces the
// confirming sequence is counted.
//
// Decoder is not safe for concurrent use: exactly one context, the interrupt
// handler or the goroutine standing in for it, calls HandleEdge. Counter is
// the only value shared with other goroutines.
package quadrature
