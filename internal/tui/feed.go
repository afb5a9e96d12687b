// SPDX-License-Identifier: MIT
package tui

import (
	"errors"

	"equalizer/internal/dsp"
	"equalizer/internal/equalizer"
	applog "equalizer/internal/log"
	"equalizer/internal/transport"
	"equalizer/pkg/ringbuffer"
)

// feedDepth bounds the snapshots collected in one render tick. It matches
// the worker's result queue, so a single tick can empty it.
const feedDepth = 16

// Poller is the read side of the equalizer.
type Poller interface {
	Poll() (dsp.Snapshot, error)
}

// Feed moves snapshots from the equalizer to the screen and the transports,
// once per render tick. It is owned by the render loop and is not safe for
// concurrent use.
type Feed struct {
	source Poller
	out    transport.Transport
	log    applog.Logger
	queue  *ringbuffer.Buffer[dsp.Snapshot]

	last    dsp.Snapshot
	seq     uint64
	skipped uint64
}

// NewFeed returns a Feed reading from source. out may be nil.
func NewFeed(source Poller, out transport.Transport, logger applog.Logger) *Feed {
	return &Feed{
		source: source,
		out:    out,
		log:    applog.OrNop(logger),
		queue:  ringbuffer.New[dsp.Snapshot](feedDepth),
	}
}

// Tick drains every ready snapshot, forwards each one in order and returns
// the newest. When nothing arrived the previous snapshot is returned again.
// Captures discarded as oversized are counted and skipped. Once the
// equalizer has stopped and nothing is left, Tick returns
// equalizer.ErrWorkerStopped along with the last snapshot.
func (f *Feed) Tick() (dsp.Snapshot, error) {
	var stopped error
	for !f.queue.Full() {
		snap, err := f.source.Poll()
		if errors.Is(err, equalizer.ErrNoData) {
			break
		}
		if errors.Is(err, dsp.ErrOversizedCapture) {
			f.skipped++
			continue
		}
		if err != nil {
			stopped = err
			break
		}
		if err := f.queue.Push(snap); errors.Is(err, ringbuffer.ErrBufferFull) {
			break
		}
	}

	for !f.queue.Empty() {
		snap, err := f.queue.Pop()
		if err != nil {
			break
		}
		f.seq++
		f.last = snap
		if f.out == nil {
			continue
		}
		if err := f.out.Send(transport.NewSpectrumMessage(f.seq, snap)); err != nil {
			f.log.Warnf("Feed: forwarding snapshot %d: %v", f.seq, err)
		}
	}

	return f.last, stopped
}

// Last returns the most recent snapshot, or nil before the first one.
func (f *Feed) Last() dsp.Snapshot {
	return f.last
}

// Seq returns the number of snapshots forwarded so far.
func (f *Feed) Seq() uint64 {
	return f.seq
}

// Skipped returns the number of oversized captures that were discarded.
func (f *Feed) Skipped() uint64 {
	return f.skipped
}
