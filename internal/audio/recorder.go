// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "equalizer/internal/log"
)

const (
	recorderQueue    = 64
	recorderBitDepth = 16
)

// Recorder writes mono frames to a 16-bit PCM WAV file. Write never blocks:
// frames are queued to a goroutine that owns the encoder, and dropped when
// the queue is full.
type Recorder struct {
	path    string
	file    *os.File
	encoder *wav.Encoder
	buf     *audio.IntBuffer
	log     applog.Logger

	mu     sync.RWMutex // guards frames against Write after Close
	closed bool
	frames chan []float32
	wg     sync.WaitGroup
	err    error

	written atomic.Uint64
	dropped atomic.Uint64
}

// NewRecorder creates path and starts the writer goroutine.
func NewRecorder(path string, sampleRate int, logger applog.Logger) (*Recorder, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("recorder: invalid sample rate %d", sampleRate)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("recorder: %w", err)
	}

	r := &Recorder{
		path:    path,
		file:    file,
		encoder: wav.NewEncoder(file, sampleRate, recorderBitDepth, 1, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: recorderBitDepth,
		},
		log:    applog.OrNop(logger),
		frames: make(chan []float32, recorderQueue),
	}

	r.wg.Add(1)
	go r.run()

	r.log.Infof("Recorder: writing %s (%d Hz, mono, %d bit)", path, sampleRate, recorderBitDepth)
	return r, nil
}

func (r *Recorder) run() {
	defer r.wg.Done()

	for frame := range r.frames {
		if r.err != nil {
			continue // keep draining so Write never stalls
		}
		if err := r.encode(frame); err != nil {
			r.err = err
			r.log.Errorf("Recorder: error writing to WAV file: %v", err)
		}
	}
}

func (r *Recorder) encode(frame []float32) error {
	if cap(r.buf.Data) < len(frame) {
		r.buf.Data = make([]int, len(frame))
	}
	r.buf.Data = r.buf.Data[:len(frame)]

	const full = 1<<(recorderBitDepth-1) - 1
	for i, v := range frame {
		v = max(-1, min(1, v))
		r.buf.Data[i] = int(math.Round(float64(v) * full))
	}

	if err := r.encoder.Write(r.buf); err != nil {
		return err
	}
	r.written.Add(uint64(len(frame)))
	return nil
}

// Write queues frame for encoding. It has the FrameHandler signature so it
// can be used as a tap on the capture callback.
func (r *Recorder) Write(frame []float32) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}
	select {
	case r.frames <- frame:
	default:
		r.dropped.Add(1)
	}
}

// Written returns the number of samples encoded so far.
func (r *Recorder) Written() uint64 {
	return r.written.Load()
}

// Dropped returns the number of frames discarded because the writer fell
// behind.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// Close flushes queued frames, finalizes the WAV header and closes the
// file. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.frames)
	r.mu.Unlock()

	r.wg.Wait()

	err := r.err
	if cerr := r.encoder.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := r.file.Close(); cerr != nil && err == nil {
		err = cerr
	}

	if dropped := r.dropped.Load(); dropped > 0 {
		r.log.Warnf("Recorder: %d frames dropped while writing %s", dropped, r.path)
	}
	if err != nil {
		return fmt.Errorf("recorder: %w", err)
	}
	return nil
}
