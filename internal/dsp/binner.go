// SPDX-License-Identifier: MIT
package dsp

import "math"

const (
	// DefaultBins is the number of bars shown when none is configured.
	DefaultBins = 31
	// MaxBins is the largest supported bin count, one per ISO third-octave
	// label.
	MaxBins = 31
	// MaxTransformLength is the sanity ceiling on the interleaved length of
	// a transformed buffer. A single callback never legitimately delivers
	// more than a second of audio at the nominal sample rate.
	MaxTransformLength = 44100
)

// BinWidth returns how many complex points each of k bins aggregates for a
// transformed buffer of the given interleaved length.
func BinWidth(length, k int) int {
	points := length / 4
	if k <= 0 || points == 0 {
		return 1
	}
	return (points + k - 1) / k
}

// Bin reduces a transformed buffer to k display bins.
//
// Only the non-redundant half of the spectrum is inspected: for real input
// the upper half mirrors the lower, so the walk covers the first len/4
// complex points (float positions [0, len/2)) and skips the DC pair. Each
// pair adds re^2+im^2 to bin pos/(2*binWidth). The sum is then divided by
// binWidth and truncated, discarding the fractional part. The last bin may
// cover fewer points than the others.
//
// A buffer longer than MaxTransformLength is treated as a corrupted capture:
// Bin returns an empty snapshot and ErrOversizedCapture.
func Bin(transformed []float32, k int) (Snapshot, error) {
	if len(transformed) > MaxTransformLength {
		return Snapshot{}, ErrOversizedCapture
	}
	if k <= 0 {
		return Snapshot{}, ErrInvalidBinCount
	}
	return BinInto(make(Snapshot, k), transformed), nil
}

// BinInto is Bin writing into dst, whose length sets the bin count. It
// assumes the caller already applied the length guard.
func BinInto(dst Snapshot, transformed []float32) Snapshot {
	k := len(dst)
	clear(dst)
	if k == 0 {
		return dst
	}

	width := BinWidth(len(transformed), k)
	stride := 2 * width
	end := len(transformed) / 2
	for pos := 2; pos+1 < len(transformed) && pos < end; pos += 2 {
		re := float64(transformed[pos])
		im := float64(transformed[pos+1])
		bin := pos / stride
		if bin >= k {
			bin = k - 1
		}
		dst[bin] += re*re + im*im
	}

	for i := range dst {
		dst[i] = math.Floor(dst[i] / float64(width))
	}
	return dst
}

// Process runs the whole pipeline for one frame: prepare, transform and bin.
func Process(frame Frame, w Window, k int) (Snapshot, error) {
	buf := Prepare(frame, w)
	Transform(buf)
	return Bin(buf, k)
}
