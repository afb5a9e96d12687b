// SPDX-License-Identifier: MIT
/*
Package equalizer connects an audio source to the spectrum pipeline.

The audio callback hands each frame to Send, which never blocks: a frame is
dropped when the processing worker is still busy with the previous one. The
worker publishes one snapshot per accepted frame, in order, to a bounded
queue that the render tick drains with Poll.

	callback --Send--> worker (prepare, transform, bin) --> queue --Poll--> render
*/
package equalizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"equalizer/internal/audio"
	"equalizer/internal/dsp"
	applog "equalizer/internal/log"
)

// Options configures an Equalizer. Zero values select the defaults.
type Options struct {
	Bins       int            // number of display bins, defaults to dsp.DefaultBins
	Window     dsp.WindowFunc // defaults to dsp.Hann
	QueueDepth int            // frames buffered ahead of the worker, 0 for none
	Blocking   bool           // wait for the worker instead of dropping (file replay)
	Logger     applog.Logger
	Tap        audio.FrameHandler // sees every captured frame, e.g. a Recorder
}

// Stats counts frames through the pipeline.
type Stats struct {
	Accepted  uint64 // frames handed to the worker
	Dropped   uint64 // frames discarded because the worker was busy
	Published uint64 // results queued for Poll
}

// Equalizer owns the input stream and the processing worker.
type Equalizer struct {
	source audio.Source
	opts   Options
	log    applog.Logger
	worker *worker

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	stream audio.Stream
	closed bool

	accepted atomic.Uint64
	dropped  atomic.Uint64
}

// New starts the processing worker. The input stream is built later by
// Connect.
func New(source audio.Source, opts Options) (*Equalizer, error) {
	if source == nil {
		return nil, errors.New("equalizer: source cannot be nil")
	}
	if opts.Bins == 0 {
		opts.Bins = dsp.DefaultBins
	}
	if opts.Bins < 0 || opts.Bins > dsp.MaxBins {
		return nil, fmt.Errorf("equalizer: %w: %d (max %d)", dsp.ErrInvalidBinCount, opts.Bins, dsp.MaxBins)
	}
	if opts.QueueDepth < 0 {
		return nil, fmt.Errorf("equalizer: invalid queue depth %d", opts.QueueDepth)
	}

	logger := applog.OrNop(opts.Logger)
	ctx, cancel := context.WithCancel(context.Background())

	e := &Equalizer{
		source: source,
		opts:   opts,
		log:    logger,
		worker: newWorker(dsp.NewWindow(opts.Window), opts.Bins, opts.QueueDepth, logger),
		ctx:    ctx,
		cancel: cancel,
	}

	logger.Infof("Equalizer: %s at %.0f Hz, %d bins, %s window", source.Name(), source.SampleRate(), opts.Bins, opts.Window)
	return e, nil
}

// Send offers a frame to the worker without blocking. The frame is dropped
// when the worker is busy or stopped. The Equalizer takes ownership of
// frame.
func (e *Equalizer) Send(frame dsp.Frame) {
	if e.worker.trySend(frame) {
		e.accepted.Add(1)
		return
	}
	e.dropped.Add(1)
}

// Submit hands a frame to the worker, waiting until it is accepted, ctx is
// done or the Equalizer is closed.
func (e *Equalizer) Submit(ctx context.Context, frame dsp.Frame) error {
	err := e.worker.submit(ctx, frame)
	if err == nil {
		e.accepted.Add(1)
	}
	return err
}

// Poll returns the oldest unread snapshot without blocking. It returns
// ErrNoData when nothing is ready, dsp.ErrOversizedCapture for a frame
// that was discarded, and ErrWorkerStopped once the worker has exited and
// every pending snapshot has been read.
func (e *Equalizer) Poll() (dsp.Snapshot, error) {
	r, ok := e.worker.tryReceive()
	if !ok {
		return nil, ErrNoData
	}
	return r.snapshot, r.err
}

// Connect builds the input stream with the Equalizer as its callback. The
// stream is not started. Calling Connect again is a no-op.
func (e *Equalizer) Connect() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return &StreamError{Op: OpBuild, Err: ErrWorkerStopped}
	}
	if e.stream != nil {
		return nil
	}

	stream, err := e.source.Open(e.handle)
	if err != nil {
		return &StreamError{Op: OpBuild, Err: err}
	}
	e.stream = stream
	e.log.Debugf("Equalizer: stream built for %s", e.source.Name())
	return nil
}

func (e *Equalizer) handle(frame []float32) {
	if e.opts.Tap != nil {
		e.opts.Tap(frame)
	}
	if !e.opts.Blocking {
		e.Send(frame)
		return
	}
	if err := e.Submit(e.ctx, frame); err != nil {
		e.dropped.Add(1)
	}
}

// Play starts the input stream.
func (e *Equalizer) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return &StreamError{Op: OpPlay, Err: ErrNotConnected}
	}
	if err := e.stream.Start(); err != nil {
		return &StreamError{Op: OpPlay, Err: err}
	}
	e.log.Infof("Equalizer: playing")
	return nil
}

// Pause stops the input stream. Frames already accepted are still
// processed and published.
func (e *Equalizer) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return &StreamError{Op: OpPause, Err: ErrNotConnected}
	}
	if err := e.stream.Stop(); err != nil {
		return &StreamError{Op: OpPause, Err: err}
	}
	e.log.Infof("Equalizer: paused")
	return nil
}

// Close stops and releases the stream, then terminates the worker and
// waits for it to exit. Unread snapshots remain available to Poll.
func (e *Equalizer) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	stream := e.stream
	e.stream = nil
	e.mu.Unlock()

	// Unblocks a callback waiting in Submit.
	e.cancel()

	var errs []error
	if stream != nil {
		if err := stream.Stop(); err != nil {
			errs = append(errs, &StreamError{Op: OpPause, Err: err})
		}
		if err := stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stream: %w", err))
		}
	}

	e.worker.terminate()

	stats := e.Stats()
	e.log.Infof("Equalizer: closed (accepted %d, dropped %d, published %d)", stats.Accepted, stats.Dropped, stats.Published)
	return errors.Join(errs...)
}

// Stats returns a snapshot of the frame counters.
func (e *Equalizer) Stats() Stats {
	return Stats{
		Accepted:  e.accepted.Load(),
		Dropped:   e.dropped.Load(),
		Published: e.worker.published.Load(),
	}
}

// SampleRate returns the source sample rate.
func (e *Equalizer) SampleRate() float64 {
	return e.source.SampleRate()
}

// Bins returns the number of display bins per snapshot.
func (e *Equalizer) Bins() int {
	return e.opts.Bins
}

// SourceName returns the name of the connected source.
func (e *Equalizer) SourceName() string {
	return e.source.Name()
}
