// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"io"
	"sync"
	"time"

	applog "equalizer/internal/log"
)

// fillFunc writes the next frame into buf and returns how many samples it
// produced. io.EOF ends the stream.
type fillFunc func(buf []float32) (int, error)

// pacedStream drives a fillFunc from its own goroutine, one frame per
// interval. A zero interval delivers frames back to back.
type pacedStream struct {
	name     string
	fill     fillFunc
	handler  FrameHandler
	frames   int
	interval time.Duration
	closer   io.Closer
	log      applog.Logger

	mu     sync.Mutex
	stop   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

func newPacedStream(name string, fill fillFunc, handler FrameHandler, frames int, sampleRate float64, realtime bool, closer io.Closer, logger applog.Logger) *pacedStream {
	var interval time.Duration
	if realtime && sampleRate > 0 {
		interval = time.Duration(float64(frames) / sampleRate * float64(time.Second))
	}
	return &pacedStream{
		name:     name,
		fill:     fill,
		handler:  handler,
		frames:   frames,
		interval: interval,
		closer:   closer,
		log:      applog.OrNop(logger),
	}
}

// Start launches the delivery goroutine. Calling Start on a running stream
// is a no-op.
func (s *pacedStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if s.stop != nil {
		return nil
	}

	stop := make(chan struct{})
	s.stop = stop

	s.wg.Add(1)
	go s.run(stop)
	return nil
}

func (s *pacedStream) run(stop chan struct{}) {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		frame := make([]float32, s.frames)
		n, err := s.fill(frame)
		if n > 0 {
			s.handler(frame[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.Infof("%s: end of input", s.name)
			} else {
				s.log.Errorf("%s: read failed: %v", s.name, err)
			}
			return
		}

		if tick != nil {
			select {
			case <-tick:
			case <-stop:
				return
			}
		}
	}
}

// Stop pauses delivery and waits for the goroutine to exit. The position in
// the input is kept for the next Start.
func (s *pacedStream) Stop() error {
	s.mu.Lock()
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	s.wg.Wait()
	return nil
}

// Close stops the stream and releases its input.
func (s *pacedStream) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

var _ Stream = (*pacedStream)(nil)
