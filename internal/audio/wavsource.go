// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "equalizer/internal/log"
)

// DefaultFramesPerBuffer is the frame size used by file and synthetic
// sources when none is configured.
const DefaultFramesPerBuffer = 1024

// WavConfig describes a WAV replay.
type WavConfig struct {
	Path            string
	FramesPerBuffer int
	Loop            bool // restart from the beginning at end of file
	Realtime        bool // pace frames at the file's sample rate
}

// WavSource replays a PCM WAV file as mono frames. Multi-channel files are
// mixed down by averaging.
type WavSource struct {
	config     WavConfig
	sampleRate int
	channels   int
	bitDepth   int
	log        applog.Logger
}

// NewWavSource validates the file header.
func NewWavSource(config WavConfig, logger applog.Logger) (*WavSource, error) {
	if config.FramesPerBuffer <= 0 {
		config.FramesPerBuffer = DefaultFramesPerBuffer
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: invalid WAV file", config.Path)
	}
	dec.ReadInfo()
	if dec.SampleRate == 0 || dec.NumChans == 0 || dec.BitDepth == 0 {
		return nil, fmt.Errorf("%s: incomplete WAV format chunk", config.Path)
	}

	s := &WavSource{
		config:     config,
		sampleRate: int(dec.SampleRate),
		channels:   int(dec.NumChans),
		bitDepth:   int(dec.BitDepth),
		log:        applog.OrNop(logger),
	}
	s.log.Infof("WavSource: %s (%d Hz, %d channels, %d bit)", config.Path, s.sampleRate, s.channels, s.bitDepth)
	return s, nil
}

// Open opens the file for reading. Each Start resumes where the last Stop
// left off.
func (s *WavSource) Open(handler FrameHandler) (Stream, error) {
	f, err := os.Open(s.config.Path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}

	r := &wavReader{
		file:     f,
		dec:      wav.NewDecoder(f),
		channels: s.channels,
		bitDepth: s.bitDepth,
		loop:     s.config.Loop,
		buf: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: s.channels, SampleRate: s.sampleRate},
			Data:   make([]int, s.config.FramesPerBuffer*s.channels),
		},
	}

	return newPacedStream("WavSource", r.fill, handler, s.config.FramesPerBuffer,
		float64(s.sampleRate), s.config.Realtime, f, s.log), nil
}

// SampleRate returns the file's sample rate.
func (s *WavSource) SampleRate() float64 {
	return float64(s.sampleRate)
}

// Name returns the file's base name.
func (s *WavSource) Name() string {
	return filepath.Base(s.config.Path)
}

type wavReader struct {
	file     *os.File
	dec      *wav.Decoder
	buf      *audio.IntBuffer
	channels int
	bitDepth int
	loop     bool
}

func (r *wavReader) fill(frame []float32) (int, error) {
	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		if !r.loop {
			return 0, io.EOF
		}
		if err := r.rewind(); err != nil {
			return 0, err
		}
		if n, err = r.dec.PCMBuffer(r.buf); err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
	}

	return mixDown(frame, r.buf.Data[:n], r.channels, r.bitDepth), nil
}

func (r *wavReader) rewind() error {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind wav: %w", err)
	}
	r.dec = wav.NewDecoder(r.file)
	return nil
}

// mixDown averages interleaved integer samples into mono floats in [-1, 1]
// and returns the number of frames written.
func mixDown(dst []float32, samples []int, channels, bitDepth int) int {
	scale := float64(int(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		offset = 128 // 8-bit PCM is unsigned
	}

	frames := min(len(samples)/channels, len(dst))
	for i := range frames {
		sum := 0
		for c := range channels {
			sum += samples[i*channels+c] - offset
		}
		dst[i] = float32(float64(sum) / float64(channels) / scale)
	}
	return frames
}

var _ Source = (*WavSource)(nil)
