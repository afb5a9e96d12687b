// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"testing"

	"equalizer/internal/dsp"
	"equalizer/pkg/utils"
)

type failingTransport struct{ err error }

func (f failingTransport) Send(any) error { return f.err }
func (f failingTransport) Close() error   { return f.err }

func TestNewSpectrumMessage(t *testing.T) {
	snap := dsp.Snapshot{1, 2, 3}
	msg := NewSpectrumMessage(7, snap)

	if msg.Type != MessageTypeSpectrum || msg.Seq != 7 || msg.Timestamp == 0 {
		t.Errorf("unexpected header: %+v", msg)
	}
	if len(msg.Labels) != 3 || msg.Labels[0] != "20" {
		t.Errorf("labels = %v", msg.Labels)
	}

	snap[0] = 99
	if msg.Bins[0] != 1 {
		t.Error("message bins alias the snapshot")
	}
}

func TestFanout(t *testing.T) {
	a, b := &utils.MockTransport{}, &utils.MockTransport{}
	boom := errors.New("boom")
	f := Fanout{a, failingTransport{boom}, b}

	if err := f.Send(dsp.Snapshot{1}); !errors.Is(err, boom) {
		t.Errorf("Send() error = %v, want %v", err, boom)
	}
	if len(a.Payloads()) != 1 || len(b.Payloads()) != 1 {
		t.Error("a failing transport must not stop delivery to the others")
	}

	if err := f.Close(); !errors.Is(err, boom) {
		t.Errorf("Close() error = %v, want %v", err, boom)
	}
	if !a.Closed || !b.Closed {
		t.Error("all transports should be closed")
	}

	if err := (Fanout{}).Send(1); err != nil {
		t.Errorf("empty Fanout Send() error = %v", err)
	}
}

func TestSnapshotOf(t *testing.T) {
	msg := NewSpectrumMessage(1, dsp.Snapshot{4, 5})
	var nilMsg *SpectrumMessage

	tests := []struct {
		name string
		data any
		want int
		ok   bool
	}{
		{"snapshot", dsp.Snapshot{1, 2, 3}, 3, true},
		{"message", msg, 2, true},
		{"message pointer", &msg, 2, true},
		{"nil message pointer", nilMsg, 0, false},
		{"float slice", []float64{1}, 1, true},
		{"string", "hello", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, ok := snapshotOf(tt.data)
			if ok != tt.ok || len(snap) != tt.want {
				t.Errorf("snapshotOf() = %v, %v; want %d bins, %v", snap, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport(nil)
	for _, data := range []any{dsp.Snapshot{1, 9, 3}, "not a snapshot"} {
		if err := lt.Send(data); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	if lt.Count() != 2 {
		t.Errorf("Count() = %d, want 2", lt.Count())
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
