// SPDX-License-Identifier: MIT
/*
Package dsp turns a mono frame of samples into a bar-graph snapshot:

	Frame -> Prepare (window, interleave, zero-pad) -> Transform (radix-2 FFT) -> Bin

All buffers are float32 and interleaved: real parts at even indices,
imaginary parts at odd indices. Lengths are always powers of two.

The functions are pure apart from the scratch buffer a caller may pass to
PrepareInto. They are designed to be driven by a single worker goroutine and
do not lock.
*/
package dsp

import "errors"

// Frame is one batch of mono samples delivered by a single audio callback.
// Its length is driver-determined and need not be a power of two.
type Frame []float32

// Snapshot holds the aggregated magnitude of each display bin. Entries are
// non-negative and integer-normalized.
type Snapshot []float64

var (
	// ErrOversizedCapture means the transformed buffer exceeded
	// MaxTransformLength. The tick should be discarded, it is not a silent
	// spectrum.
	ErrOversizedCapture = errors.New("transformed buffer larger than the sample rate ceiling, discarding capture")
	// ErrInvalidBinCount is returned for a non-positive bin count.
	ErrInvalidBinCount = errors.New("bin count must be positive")
)

// Peak returns the index and value of the largest entry, or -1 for an empty
// snapshot.
func (s Snapshot) Peak() (int, float64) {
	idx, peak := -1, 0.0
	for i, v := range s {
		if idx < 0 || v > peak {
			idx, peak = i, v
		}
	}
	return idx, peak
}

// Clone returns a copy that does not alias s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
