// SPDX-License-Identifier: MIT
package equalizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"equalizer/internal/dsp"
	applog "equalizer/internal/log"
)

// resultDepth bounds the number of published results waiting for the
// render tick.
const resultDepth = 16

type message struct {
	frame     dsp.Frame
	terminate bool
}

type result struct {
	snapshot dsp.Snapshot
	err      error
}

// worker owns the whole DSP pipeline on a single goroutine. It consumes
// frames in arrival order and publishes exactly one result per frame.
type worker struct {
	window dsp.Window
	bins   int
	log    applog.Logger

	in     chan message
	out    chan result
	done   chan struct{} // closed by terminate, unblocks a pending publish
	exited chan struct{} // closed when the goroutine returns

	stopOnce sync.Once
	wg       sync.WaitGroup

	published atomic.Uint64

	scratch []float32
}

// newWorker starts the processing goroutine. depth is the capacity of the
// inbound queue; zero means a frame is only accepted when the worker is
// idle.
func newWorker(window dsp.Window, bins, depth int, logger applog.Logger) *worker {
	w := &worker{
		window: window,
		bins:   bins,
		log:    applog.OrNop(logger),
		in:     make(chan message, max(depth, 0)),
		out:    make(chan result, resultDepth),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()
	return w
}

func (w *worker) run() {
	defer w.wg.Done()
	defer close(w.exited)
	defer close(w.out)

	w.log.Debugf("Worker: started (bins %d, window %s)", w.bins, w.window.Kind())
	for msg := range w.in {
		if msg.terminate {
			w.log.Debugf("Worker: terminate received")
			return
		}
		if !w.publish(w.process(msg.frame)) {
			w.log.Debugf("Worker: result dropped during shutdown")
		}
	}
}

func (w *worker) process(frame dsp.Frame) result {
	w.scratch = dsp.PrepareInto(w.scratch, frame, w.window)
	dsp.Transform(w.scratch)

	snap, err := dsp.Bin(w.scratch, w.bins)
	if errors.Is(err, dsp.ErrOversizedCapture) {
		w.log.Warnf("Worker: discarding %d-sample frame, transform length %d exceeds %d",
			len(frame), len(w.scratch), dsp.MaxTransformLength)
	}
	return result{snapshot: snap, err: err}
}

// publish queues the result. It only waits when the outbound queue is full,
// and then gives up once terminate is called.
func (w *worker) publish(r result) bool {
	select {
	case w.out <- r:
		w.published.Add(1)
		return true
	default:
	}

	select {
	case w.out <- r:
		w.published.Add(1)
		return true
	case <-w.done:
		return false
	}
}

// trySend hands frame to the worker without blocking.
func (w *worker) trySend(frame dsp.Frame) bool {
	select {
	case <-w.exited:
		return false
	default:
	}

	select {
	case w.in <- message{frame: frame}:
		return true
	default:
		return false
	}
}

// submit hands frame to the worker, waiting for it to become ready.
func (w *worker) submit(ctx context.Context, frame dsp.Frame) error {
	select {
	case w.in <- message{frame: frame}:
		return nil
	case <-w.exited:
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tryReceive returns the oldest published result without blocking. ok is
// false when nothing is ready; a closed outbound queue yields
// ErrWorkerStopped.
func (w *worker) tryReceive() (r result, ok bool) {
	select {
	case r, open := <-w.out:
		if !open {
			return result{err: ErrWorkerStopped}, true
		}
		return r, true
	default:
		return result{}, false
	}
}

// terminate asks the worker to finish the frame in hand and exit, then
// waits for it. Safe to call more than once.
func (w *worker) terminate() {
	w.stopOnce.Do(func() {
		close(w.done)
		select {
		case w.in <- message{terminate: true}:
		case <-w.exited:
		}
	})
	w.wg.Wait()
}
