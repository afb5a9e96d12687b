// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"time"

	applog "equalizer/internal/log"
)

// SyntheticConfig describes a logarithmic sine sweep.
type SyntheticConfig struct {
	SampleRate      float64
	FramesPerBuffer int
	MinHz           float64
	MaxHz           float64
	Period          time.Duration // one sweep from MinHz to MaxHz
	Amplitude       float64
	Realtime        bool
}

// DefaultSyntheticConfig sweeps the audible range every eight seconds.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		SampleRate:      44100,
		FramesPerBuffer: DefaultFramesPerBuffer,
		MinHz:           40,
		MaxHz:           16000,
		Period:          8 * time.Second,
		Amplitude:       0.8,
		Realtime:        true,
	}
}

// SyntheticSource produces a sine that glides up the spectrum and wraps
// around, so every bar lights in turn without any audio hardware.
type SyntheticSource struct {
	config SyntheticConfig
	log    applog.Logger
}

// NewSyntheticSource fills unset fields from DefaultSyntheticConfig.
func NewSyntheticSource(config SyntheticConfig, logger applog.Logger) *SyntheticSource {
	def := DefaultSyntheticConfig()
	if config.SampleRate <= 0 {
		config.SampleRate = def.SampleRate
	}
	if config.FramesPerBuffer <= 0 {
		config.FramesPerBuffer = def.FramesPerBuffer
	}
	if config.MinHz <= 0 {
		config.MinHz = def.MinHz
	}
	if config.MaxHz <= config.MinHz {
		config.MaxHz = max(def.MaxHz, config.MinHz)
	}
	if config.Period <= 0 {
		config.Period = def.Period
	}
	if config.Amplitude <= 0 {
		config.Amplitude = def.Amplitude
	}
	return &SyntheticSource{config: config, log: applog.OrNop(logger)}
}

// Open returns a stream positioned at the start of the sweep.
func (s *SyntheticSource) Open(handler FrameHandler) (Stream, error) {
	g := &sweep{config: s.config}
	return newPacedStream("SyntheticSource", g.fill, handler, s.config.FramesPerBuffer,
		s.config.SampleRate, s.config.Realtime, nil, s.log), nil
}

// SampleRate returns the configured rate.
func (s *SyntheticSource) SampleRate() float64 {
	return s.config.SampleRate
}

// Name identifies the source in the status line.
func (s *SyntheticSource) Name() string {
	return "synthetic sweep"
}

type sweep struct {
	config SyntheticConfig
	phase  float64
	sample int
}

// frequency returns the sweep frequency at sample n.
func (g *sweep) frequency(n int) float64 {
	periodSamples := g.config.Period.Seconds() * g.config.SampleRate
	pos := math.Mod(float64(n), periodSamples) / periodSamples
	return g.config.MinHz * math.Pow(g.config.MaxHz/g.config.MinHz, pos)
}

func (g *sweep) fill(frame []float32) (int, error) {
	for i := range frame {
		f := g.frequency(g.sample)
		frame[i] = float32(g.config.Amplitude * math.Sin(g.phase))
		g.phase = math.Mod(g.phase+2*math.Pi*f/g.config.SampleRate, 2*math.Pi)
		g.sample++
	}
	return len(frame), nil
}

var _ Source = (*SyntheticSource)(nil)
