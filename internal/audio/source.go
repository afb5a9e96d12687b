// SPDX-License-Identifier: MIT
/*
Package audio delivers mono float32 frames from an input to a callback.

Three sources are available:
  - PortAudioSource captures from a sound card through PortAudio.
  - WavSource replays a WAV file at real-time pace.
  - SyntheticSource generates a sine sweep, for running without hardware.

A Source is opened once with the callback that receives frames; the
returned Stream is then started and stopped by its owner. Frames handed to
the callback are freshly allocated and owned by the receiver.

Recorder writes the same frames to a WAV file from its own goroutine.
*/
package audio

import "errors"

// FrameHandler receives one frame of mono samples in [-1, 1]. It is called
// from the driver's thread or a pacing goroutine and must not block.
type FrameHandler func(frame []float32)

// Stream is an opened input. Start and Stop may be called repeatedly; Close
// releases it for good.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Source opens streams that deliver frames to a FrameHandler.
type Source interface {
	Open(handler FrameHandler) (Stream, error)
	SampleRate() float64
	Name() string
}

var (
	// ErrNoDevice means the requested input device does not exist, or no
	// default input device is available.
	ErrNoDevice = errors.New("no matching input device")
	// ErrNoHost means the requested host API does not exist.
	ErrNoHost = errors.New("no matching audio host")
	// ErrStreamClosed is returned when a closed stream is started again.
	ErrStreamClosed = errors.New("stream closed")
)
