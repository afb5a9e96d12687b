// SPDX-License-Identifier: MIT
package dsp

// isoCenters are the ISO 266 third-octave center frequencies in Hz. They
// label bars on screen only and play no part in the binning math.
var isoCenters = [MaxBins]float64{
	20, 25, 31.5, 40, 50, 63, 80, 100, 125, 160,
	200, 250, 315, 400, 500, 630, 800, 1000, 1250, 1600,
	2000, 2500, 3150, 4000, 5000, 6300, 8000, 10000, 12500, 16000,
	20000,
}

var isoLabels = [MaxBins]string{
	"20", "25", "31", "40", "50", "63", "80", "100", "125", "160",
	"200", "250", "315", "400", "500", "630", "800", "1k", "1k2", "1k6",
	"2k", "2k5", "3k1", "4k", "5k", "6k3", "8k", "10k", "12k", "16k",
	"20k",
}

// Labels returns the display labels for the first k bars.
func Labels(k int) []string {
	k = min(max(k, 0), MaxBins)
	return append([]string(nil), isoLabels[:k]...)
}

// CenterFrequencies returns the nominal center frequencies for the first k
// bars.
func CenterFrequencies(k int) []float64 {
	k = min(max(k, 0), MaxBins)
	return append([]float64(nil), isoCenters[:k]...)
}

// BinRange returns the frequency span in Hz that bin i actually covers for a
// transformed buffer of the given interleaved length.
func BinRange(i, k, length int, sampleRate float64) (lowHz, highHz float64) {
	points := length / 2
	if points == 0 {
		return 0, 0
	}
	width := BinWidth(length, k)
	resolution := sampleRate / float64(points)
	return float64(i*width) * resolution, float64((i+1)*width) * resolution
}
