// SPDX-License-Identifier: MIT
//
// Package utils holds signal generators and assertions shared by the tests
// of the DSP, equalizer, display and transport packages.
package utils

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// MockTransport records every payload it is asked to send.
type MockTransport struct {
	mu     sync.Mutex
	Sent   []any
	Closed bool
}

// Send stores the payload for later inspection instead of transmitting.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Payloads returns a copy of everything sent so far.
func (m *MockTransport) Payloads() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]any(nil), m.Sent...)
}

// GenerateSineWave returns size mono samples of a sine at frequency Hz with
// the given peak amplitude.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	FillSineWave(buffer, 0, sampleRate, frequency, amplitude)
	return buffer
}

// FillSineWave writes a sine into buffer starting at sample offset and
// returns the offset of the sample following the last one written, so
// consecutive calls produce a continuous tone.
func FillSineWave(buffer []float32, offset int, sampleRate, frequency, amplitude float64) int {
	for i := range buffer {
		t := float64(offset+i) / sampleRate
		buffer[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return offset + len(buffer)
}

// GenerateComplexWave returns a 440Hz fundamental with its second and third
// harmonics.
func GenerateComplexWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// FindPeakBin returns the index of the largest value within [startBin,
// endBin], clamped to the slice bounds. It returns 0 for an empty slice.
func FindPeakBin(values []float64, startBin, endBin int) int {
	if len(values) == 0 {
		return 0
	}
	startBin = max(startBin, 0)
	endBin = min(endBin, len(values)-1)
	if startBin > endBin {
		return startBin
	}
	return startBin + floats.MaxIdx(values[startBin:endBin+1])
}

// IsStrictPeak reports whether values[idx] is strictly greater than every
// other entry.
func IsStrictPeak(values []float64, idx int) bool {
	if idx < 0 || idx >= len(values) {
		return false
	}
	for i, v := range values {
		if i != idx && v >= values[idx] {
			return false
		}
	}
	return true
}
