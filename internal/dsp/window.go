// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the per-sample window applied before the transform.
type WindowFunc int

// Available window functions. The closed-form kinds are evaluated per
// sample; the tabulated kinds take their coefficients from gonum.
const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	Rectangular
	BartlettHann
	BlackmanNuttall
	Lanczos
	Nuttall
)

var windowNames = map[WindowFunc]string{
	Hann:            "hann",
	Hamming:         "hamming",
	Blackman:        "blackman",
	Rectangular:     "rectangular",
	BartlettHann:    "bartletthann",
	BlackmanNuttall: "blackmannuttall",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("window(%d)", int(w))
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. It
// returns Hann together with an error for unknown names.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "hann", "hanning", "":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "rectangular", "none", "boxcar":
		return Rectangular, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// Window applies a window function to one sample at a time. The function is
// picked once in NewWindow, so Prepare calls a plain func value per sample.
//
// A Window built from a tabulated kind caches its coefficient table and is
// not safe for concurrent use; give each worker its own Window.
type Window struct {
	kind  WindowFunc
	apply func(sample float32, index, length int) float32
}

// NewWindow returns the Window for kind. Unknown kinds fall back to Hann.
func NewWindow(kind WindowFunc) Window {
	switch kind {
	case Hann:
		return Window{kind: kind, apply: hann}
	case Hamming:
		return Window{kind: kind, apply: hamming}
	case Blackman:
		return Window{kind: kind, apply: blackman}
	case Rectangular:
		return Window{kind: kind, apply: rectangular}
	case BartlettHann:
		return Window{kind: kind, apply: newTable(window.BartlettHann).apply}
	case BlackmanNuttall:
		return Window{kind: kind, apply: newTable(window.BlackmanNuttall).apply}
	case Lanczos:
		return Window{kind: kind, apply: newTable(window.Lanczos).apply}
	case Nuttall:
		return Window{kind: kind, apply: newTable(window.Nuttall).apply}
	default:
		return Window{kind: Hann, apply: hann}
	}
}

// Kind reports which window function w applies.
func (w Window) Kind() WindowFunc {
	return w.kind
}

// Apply returns sample weighted by the window coefficient at index within a
// frame of the given length. The zero Window behaves as Hann.
func (w Window) Apply(sample float32, index, length int) float32 {
	if w.apply == nil {
		return hann(sample, index, length)
	}
	return w.apply(sample, index, length)
}

// hann multiplies by 0.5*(1 - cos(2*pi*i/L)), tapering both frame edges to
// zero to reduce leakage from the discontinuity at the buffer boundary.
func hann(sample float32, index, length int) float32 {
	phase := 2 * math.Pi * float64(index) / float64(length)
	return sample * float32(0.5*(1-math.Cos(phase)))
}

func hamming(sample float32, index, length int) float32 {
	phase := 2 * math.Pi * float64(index) / float64(length)
	return sample * float32(0.54-0.46*math.Cos(phase))
}

func blackman(sample float32, index, length int) float32 {
	phase := 2 * math.Pi * float64(index) / float64(length)
	return sample * float32(0.42-0.5*math.Cos(phase)+0.08*math.Cos(2*phase))
}

func rectangular(sample float32, _, _ int) float32 {
	return sample
}

// table caches the coefficients of a gonum window for the last frame length
// seen. Frame lengths rarely change between callbacks, so this is rebuilt
// only when the driver switches buffer size.
type table struct {
	fill   func([]float64) []float64
	coeffs []float64
}

func newTable(fill func([]float64) []float64) *table {
	return &table{fill: fill}
}

func (t *table) apply(sample float32, index, length int) float32 {
	if len(t.coeffs) != length {
		coeffs := make([]float64, length)
		for i := range coeffs {
			coeffs[i] = 1
		}
		t.coeffs = t.fill(coeffs)
	}
	return sample * float32(t.coeffs[index])
}
