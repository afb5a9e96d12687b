// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/dsp/window"
)

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"hann", Hann, false},
		{"Hanning", Hann, false},
		{"", Hann, false},
		{"HAMMING", Hamming, false},
		{"blackman", Blackman, false},
		{"none", Rectangular, false},
		{"boxcar", Rectangular, false},
		{" nuttall ", Nuttall, false},
		{"bartletthann", BartlettHann, false},
		{"blackmannuttall", BlackmanNuttall, false},
		{"lanczos", Lanczos, false},
		{"kaiser", Hann, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindowFunc(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseWindowFunc(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestWindowFuncStringRoundTrip(t *testing.T) {
	for kind := range windowNames {
		got, err := ParseWindowFunc(kind.String())
		if err != nil {
			t.Fatalf("ParseWindowFunc(%q) error = %v", kind.String(), err)
		}
		if got != kind {
			t.Errorf("round trip of %v gave %v", kind, got)
		}
	}

	if got := WindowFunc(99).String(); got != "window(99)" {
		t.Errorf("String() of unknown kind = %q", got)
	}
}

func TestHannCoefficients(t *testing.T) {
	const length = 8
	w := NewWindow(Hann)

	for i := range length {
		want := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/length))
		got := float64(w.Apply(1, i, length))
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("hann[%d] = %f, want %f", i, got, want)
		}
	}

	if got := w.Apply(1, 0, length); got != 0 {
		t.Errorf("hann should zero the first sample, got %f", got)
	}
	if got := w.Apply(1, length/2, length); math.Abs(float64(got)-1) > 1e-6 {
		t.Errorf("hann should pass the center sample, got %f", got)
	}
}

func TestZeroWindowIsHann(t *testing.T) {
	var zero Window
	hw := NewWindow(Hann)
	for i := range 16 {
		if zero.Apply(0.75, i, 16) != hw.Apply(0.75, i, 16) {
			t.Fatalf("zero Window differs from Hann at %d", i)
		}
	}
	if zero.Kind() != Hann {
		t.Errorf("zero Window kind = %v, want hann", zero.Kind())
	}
}

func TestClosedFormWindows(t *testing.T) {
	tests := []struct {
		kind WindowFunc
		coef func(i, n int) float64
	}{
		{Hamming, func(i, n int) float64 {
			return 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n))
		}},
		{Blackman, func(i, n int) float64 {
			p := 2 * math.Pi * float64(i) / float64(n)
			return 0.42 - 0.5*math.Cos(p) + 0.08*math.Cos(2*p)
		}},
		{Rectangular, func(int, int) float64 { return 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			w := NewWindow(tt.kind)
			if w.Kind() != tt.kind {
				t.Fatalf("Kind() = %v, want %v", w.Kind(), tt.kind)
			}
			for i := range 32 {
				got := float64(w.Apply(1, i, 32))
				if want := tt.coef(i, 32); math.Abs(got-want) > 1e-6 {
					t.Errorf("coef[%d] = %f, want %f", i, got, want)
				}
			}
		})
	}
}

func TestTabulatedWindowsMatchGonum(t *testing.T) {
	tests := []struct {
		kind WindowFunc
		fill func([]float64) []float64
	}{
		{BartlettHann, window.BartlettHann},
		{BlackmanNuttall, window.BlackmanNuttall},
		{Lanczos, window.Lanczos},
		{Nuttall, window.Nuttall},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			w := NewWindow(tt.kind)

			// Two lengths in a row exercise the table rebuild.
			for _, length := range []int{64, 100} {
				ones := make([]float64, length)
				for i := range ones {
					ones[i] = 1
				}
				want := tt.fill(ones)

				for i := range length {
					got := float64(w.Apply(1, i, length))
					if math.Abs(got-want[i]) > 1e-6 {
						t.Fatalf("length %d coef[%d] = %f, want %f", length, i, got, want[i])
					}
				}
			}
		})
	}
}

func TestNewWindowUnknownFallsBackToHann(t *testing.T) {
	w := NewWindow(WindowFunc(42))
	if w.Kind() != Hann {
		t.Errorf("Kind() = %v, want hann", w.Kind())
	}
}
