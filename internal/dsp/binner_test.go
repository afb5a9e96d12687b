// SPDX-License-Identifier: MIT
package dsp

import (
	"errors"
	"math"
	"testing"

	"equalizer/pkg/utils"
)

func TestBinWidth(t *testing.T) {
	tests := []struct {
		length int
		k      int
		want   int
	}{
		{2048, 31, 17},
		{1024, 31, 9},
		{64, 31, 1},
		{2, 31, 1},
		{2048, 1, 512},
		{2048, 0, 1},
	}

	for _, tt := range tests {
		if got := BinWidth(tt.length, tt.k); got != tt.want {
			t.Errorf("BinWidth(%d, %d) = %d, want %d", tt.length, tt.k, got, tt.want)
		}
	}
}

func TestBinProducesKNonNegativeEntries(t *testing.T) {
	for _, k := range []int{1, 7, 16, 31} {
		for _, samples := range []int{1, 32, 441, 1024} {
			frame := utils.GenerateComplexWave(samples, testSampleRate)
			snap, err := Process(frame, NewWindow(Hann), k)
			if err != nil {
				t.Fatalf("Process(%d samples, k=%d) error = %v", samples, k, err)
			}
			if len(snap) != k {
				t.Fatalf("len(snapshot) = %d, want %d", len(snap), k)
			}
			for i, v := range snap {
				if v < 0 || v != math.Floor(v) {
					t.Fatalf("bin %d = %f, want non-negative integer", i, v)
				}
			}
		}
	}
}

func TestBinSilence(t *testing.T) {
	snap, err := Process(make(Frame, 512), NewWindow(Hann), DefaultBins)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(snap) != DefaultBins {
		t.Fatalf("len(snapshot) = %d, want %d", len(snap), DefaultBins)
	}
	for i, v := range snap {
		if v != 0 {
			t.Errorf("bin %d = %f, want 0", i, v)
		}
	}
}

func TestBinEmptyFrame(t *testing.T) {
	snap, err := Process(nil, NewWindow(Hann), DefaultBins)
	if err != nil {
		t.Fatalf("Process(nil) error = %v", err)
	}
	if len(snap) != DefaultBins {
		t.Fatalf("len(snapshot) = %d, want %d", len(snap), DefaultBins)
	}
	for i, v := range snap {
		if v != 0 {
			t.Errorf("bin %d = %f, want 0", i, v)
		}
	}
}

func TestBinSinePeak(t *testing.T) {
	tests := []struct {
		name      string
		samples   int
		frequency float64
	}{
		{"7.6kHz", 1024, 7666.4},
		{"1kHz", 1024, 1000},
		{"12kHz", 1024, 12000},
		{"odd frame", 1000, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := utils.GenerateSineWave(tt.samples, testSampleRate, tt.frequency, 1)
			snap, err := Process(frame, NewWindow(Hann), DefaultBins)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}

			length := PreparedLength(tt.samples)
			points := length / 2
			point := int(math.Round(tt.frequency * float64(points) / testSampleRate))
			want := min(point/BinWidth(length, DefaultBins), DefaultBins-1)

			got := utils.FindPeakBin(snap, 0, len(snap)-1)
			if got != want {
				t.Fatalf("peak bin = %d, want %d (snapshot %v)", got, want, snap)
			}
			if !utils.IsStrictPeak(snap, got) {
				t.Errorf("bin %d is not a strict maximum: %v", got, snap)
			}
		})
	}
}

func TestBinKnownSpectrum(t *testing.T) {
	// 8 complex points, only points 0..3 inspected, DC skipped. With k=2
	// each bin spans 2 points: point 1 goes to bin 0, points 2 and 3 to bin 1.
	data := []float32{
		100, 100, // DC, ignored
		3, 4, // 25
		1, 0, // 1
		2, 2, // 8
		50, 50, 50, 50, 50, 50, 50, 50, // upper half, ignored
	}

	snap, err := Bin(data, 2)
	if err != nil {
		t.Fatalf("Bin() error = %v", err)
	}
	want := Snapshot{12, 4} // floor(25/2), floor(9/2)
	for i := range want {
		if snap[i] != want[i] {
			t.Errorf("bin %d = %f, want %f", i, snap[i], want[i])
		}
	}
}

func TestBinOversizedCapture(t *testing.T) {
	data := make([]float32, 65536)
	data[10] = 1000

	snap, err := Bin(data, DefaultBins)
	if !errors.Is(err, ErrOversizedCapture) {
		t.Fatalf("Bin() error = %v, want ErrOversizedCapture", err)
	}
	if len(snap) != 0 {
		t.Errorf("len(snapshot) = %d, want 0", len(snap))
	}

	// 22050 samples prepare to 65536 floats.
	snap, err = Process(make(Frame, 22050), NewWindow(Hann), DefaultBins)
	if !errors.Is(err, ErrOversizedCapture) || len(snap) != 0 {
		t.Errorf("Process(22050) = %d entries, %v; want 0 entries, ErrOversizedCapture", len(snap), err)
	}

	// 16384 samples prepare to 32768 floats, under the ceiling.
	snap, err = Process(make(Frame, 16384), NewWindow(Hann), DefaultBins)
	if err != nil || len(snap) != DefaultBins {
		t.Errorf("Process(16384) = %d entries, %v; want %d entries", len(snap), err, DefaultBins)
	}
}

func TestBinInvalidCount(t *testing.T) {
	for _, k := range []int{0, -1} {
		snap, err := Bin(make([]float32, 16), k)
		if !errors.Is(err, ErrInvalidBinCount) {
			t.Errorf("Bin(k=%d) error = %v, want ErrInvalidBinCount", k, err)
		}
		if len(snap) != 0 {
			t.Errorf("Bin(k=%d) returned %d entries", k, len(snap))
		}
	}
}

func TestSnapshotPeakAndClone(t *testing.T) {
	s := Snapshot{1, 9, 3}
	if idx, v := s.Peak(); idx != 1 || v != 9 {
		t.Errorf("Peak() = (%d, %f), want (1, 9)", idx, v)
	}
	if idx, _ := (Snapshot{}).Peak(); idx != -1 {
		t.Errorf("Peak() of empty = %d, want -1", idx)
	}

	c := s.Clone()
	c[0] = 42
	if s[0] != 1 {
		t.Error("Clone aliases the original")
	}
	if Snapshot(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}

func TestProcessHotPathZeroAllocs(t *testing.T) {
	frame := utils.GenerateSineWave(testFrameSize, testSampleRate, 440, 1)
	w := NewWindow(Hann)
	scratch := make([]float32, PreparedLength(len(frame)))
	dst := make(Snapshot, DefaultBins)

	// Warm-up call.
	BinInto(dst, transformInPlace(PrepareInto(scratch, frame, w)))

	allocs := testing.AllocsPerRun(100, func() {
		BinInto(dst, transformInPlace(PrepareInto(scratch, frame, w)))
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in the prepare/transform/bin path, got %.1f", allocs)
	}
}

func transformInPlace(buf []float32) []float32 {
	Transform(buf)
	return buf
}

func TestLabels(t *testing.T) {
	labels := Labels(DefaultBins)
	if len(labels) != DefaultBins || labels[0] != "20" || labels[30] != "20k" {
		t.Errorf("Labels(31) = %v", labels)
	}
	if got := Labels(50); len(got) != MaxBins {
		t.Errorf("Labels(50) has %d entries, want %d", len(got), MaxBins)
	}
	if got := Labels(-3); len(got) != 0 {
		t.Errorf("Labels(-3) has %d entries, want 0", len(got))
	}
	if got := CenterFrequencies(3); got[2] != 31.5 {
		t.Errorf("CenterFrequencies(3) = %v", got)
	}
}

func TestBinRange(t *testing.T) {
	// 2048 floats: 1024 points, resolution 44100/1024 Hz, width 17 points.
	lo, hi := BinRange(1, DefaultBins, 2048, testSampleRate)
	res := float64(testSampleRate) / 1024
	if math.Abs(lo-17*res) > 1e-9 || math.Abs(hi-34*res) > 1e-9 {
		t.Errorf("BinRange(1) = [%f, %f)", lo, hi)
	}
	if lo, hi := BinRange(0, DefaultBins, 0, testSampleRate); lo != 0 || hi != 0 {
		t.Errorf("BinRange on empty buffer = [%f, %f)", lo, hi)
	}
}

func BenchmarkProcess(b *testing.B) {
	frame := utils.GenerateComplexWave(testFrameSize, testSampleRate)
	w := NewWindow(Hann)
	scratch := make([]float32, PreparedLength(len(frame)))
	dst := make(Snapshot, DefaultBins)

	b.ReportAllocs()
	for b.Loop() {
		buf := PrepareInto(scratch, frame, w)
		Transform(buf)
		BinInto(dst, buf)
	}
}
