// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"

	"equalizer/pkg/bitint"
)

// Transform computes the forward FFT of data in place. data holds len(data)/2
// complex points, interleaved real/imaginary, and len(data) must be a power
// of two of at least 2. The result is unnormalized: magnitudes grow with the
// number of points.
//
// The algorithm is the iterative radix-2 decimation-in-time FFT:
//
//  1. Bit-reversal reordering. Only the first half of the pairs is walked;
//     each swap whose reversed index falls in the first quarter has a mirror
//     image near the tail, swapped in the same step.
//  2. Butterfly passes. The sub-transform span mmax doubles from 2 up to
//     len(data). Twiddle factors are advanced with the half-angle recurrence
//     w <- w + w*(wpr + i*wpi), where wpr = -2*sin^2(theta/2) and
//     wpi = sin(theta), so each pass calls sin exactly twice.
//
// A length that is not a power of two is a programming error and panics.
func Transform(data []float32) {
	n := len(data)
	if n < 2 || !bitint.IsPowerOfTwo(n) {
		panic(fmt.Sprintf("dsp: transform length must be a power of two >= 2, got %d", n))
	}

	reverseBits(data)
	butterflies(data)
}

// reverseBits permutes the complex pairs of data into bit-reversed order.
// i and j are the indices of the real slots of the forward and reversed
// pairs respectively.
func reverseBits(data []float32) {
	n := len(data)
	half, quarter := n/2, n/4

	j := 0
	for i := 0; i < half; i += 2 {
		if j > i {
			swapPair(data, i, j)
			if j/2 < quarter {
				swapPair(data, n-i-2, n-j-2)
			}
		}

		m := half
		for m >= 2 && j >= m {
			j -= m
			m >>= 1
		}
		j += m
	}
}

func swapPair(data []float32, a, b int) {
	data[a], data[b] = data[b], data[a]
	data[a+1], data[b+1] = data[b+1], data[a+1]
}

// butterflies runs the Danielson-Lanczos passes over bit-reversed data.
// Twiddles are carried in float64 to keep the recurrence drift well below
// float32 resolution.
func butterflies(data []float32) {
	n := len(data)
	for mmax := 2; mmax < n; {
		istep := mmax << 1
		theta := -2 * math.Pi / float64(mmax)
		wtemp := math.Sin(0.5 * theta)
		wpr := -2 * wtemp * wtemp
		wpi := math.Sin(theta)
		wr, wi := 1.0, 0.0

		for m := 0; m < mmax; m += 2 {
			wr32, wi32 := float32(wr), float32(wi)
			for i := m; i < n; i += istep {
				j := i + mmax
				tempr := wr32*data[j] - wi32*data[j+1]
				tempi := wr32*data[j+1] + wi32*data[j]
				data[j] = data[i] - tempr
				data[j+1] = data[i+1] - tempi
				data[i] += tempr
				data[i+1] += tempi
			}
			wtemp = wr
			wr = wr*wpr - wi*wpi + wr
			wi = wi*wpr + wtemp*wpi + wi
		}
		mmax = istep
	}
}
