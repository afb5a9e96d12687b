// SPDX-License-Identifier: MIT
package dsp

import "equalizer/pkg/bitint"

// PreparedLength returns the interleaved buffer length for a frame of n
// samples: the smallest power of two >= 2n, and never less than one complex
// point.
func PreparedLength(n int) int {
	return max(bitint.NextPowerOfTwo(2*n), 2)
}

// Prepare windows frame and lays it out as an interleaved complex buffer.
// Sample i lands at slot 2i, its imaginary slot 2i+1 is zero, and
// everything past 2*len(frame) is zero padding.
func Prepare(frame Frame, w Window) []float32 {
	return PrepareInto(nil, frame, w)
}

// PrepareInto is Prepare writing into dst when it has enough capacity. The
// returned slice may share storage with dst.
func PrepareInto(dst []float32, frame Frame, w Window) []float32 {
	n := PreparedLength(len(frame))
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	length := len(frame)
	for i, sample := range frame {
		dst[2*i] = w.Apply(sample, i, length)
		dst[2*i+1] = 0
	}
	clear(dst[2*length:])
	return dst
}
