// SPDX-License-Identifier: MIT
/*
Package bitint provides the power-of-two helpers shared by the ring buffer
and the FFT buffer preparation. Every operation is O(1), allocation free and
safe to call from the audio callback.

Usage:

	// Size an interleaved FFT buffer for a 441 sample frame.
	n := bitint.NextPowerOfTwo(2 * 441) // 1024

	// Validate a ring buffer capacity before using it as a mask.
	ok := bitint.IsPowerOfTwo(16)

	// Wrap a monotonically increasing cursor into a slot index.
	idx := bitint.Mask(cursor, 16)

NextPowerOfTwo works on size-1 so that an exact power of two maps to
itself: for 8, bits.Len(7) is 3 and 1<<3 is 8. Without the subtraction
bits.Len(8) is 4 and the result would double.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so clearing the lowest set bit leaves zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Mask wraps v into [0, size). size must be a power of two; the result is
// undefined otherwise. Cursor overflow is harmless because the low bits of
// a wrapped uint are unaffected.
func Mask(v uint, size int) int {
	return int(v & uint(size-1))
}

// Log2 returns the exponent of a power of two n. It returns -1 when n is not
// a power of two.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
