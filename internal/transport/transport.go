// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"time"

	"equalizer/internal/dsp"
)

// Transport defines a generic interface for sending snapshots or events.
// Implementations should be thread-safe and must not block the caller for
// long: they are fed from the render tick.
type Transport interface {
	Send(data any) error
	Close() error
}

// MessageTypeSpectrum tags a SpectrumMessage on the wire.
const MessageTypeSpectrum = "spectrum"

// SpectrumMessage is the JSON form of one snapshot.
type SpectrumMessage struct {
	Type      string    `json:"type"`
	Seq       uint64    `json:"seq"`
	Timestamp int64     `json:"ts"` // Unix milliseconds
	Bins      []float64 `json:"bins"`
	Labels    []string  `json:"labels,omitempty"`
}

// NewSpectrumMessage wraps snap. The bins are copied so the message can
// outlive the render buffer it came from.
func NewSpectrumMessage(seq uint64, snap dsp.Snapshot) SpectrumMessage {
	return SpectrumMessage{
		Type:      MessageTypeSpectrum,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		Bins:      snap.Clone(),
		Labels:    dsp.Labels(len(snap)),
	}
}

// snapshotOf extracts the bins from the payload types transports accept.
func snapshotOf(data any) (dsp.Snapshot, bool) {
	switch v := data.(type) {
	case dsp.Snapshot:
		return v, true
	case SpectrumMessage:
		return v.Bins, true
	case *SpectrumMessage:
		if v == nil {
			return nil, false
		}
		return v.Bins, true
	case []float64:
		return v, true
	default:
		return nil, false
	}
}

// Fanout sends every payload to each of its transports.
type Fanout []Transport

// Send forwards data to all transports and joins their errors.
func (f Fanout) Send(data any) error {
	var errs []error
	for _, t := range f {
		if err := t.Send(data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all transports and joins their errors.
func (f Fanout) Close() error {
	var errs []error
	for _, t := range f {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Transport = Fanout(nil)
