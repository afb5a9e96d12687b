// SPDX-License-Identifier: MIT
package equalizer

import (
	"errors"
	"fmt"
)

// Op names the stream lifecycle step that failed.
type Op string

const (
	OpBuild Op = "build"
	OpPlay  Op = "play"
	OpPause Op = "pause"
)

var (
	// ErrNotConnected is returned by Play and Pause before Connect succeeded.
	ErrNotConnected = errors.New("stream not connected")
	// ErrNoData means no snapshot was ready. It is the normal idle case.
	ErrNoData = errors.New("no snapshot available")
	// ErrWorkerStopped means the processing goroutine is gone and no further
	// snapshots will arrive. Callers should treat it as fatal.
	ErrWorkerStopped = errors.New("processing worker stopped")
)

// StreamError wraps a failure to build, start or stop the input stream.
type StreamError struct {
	Op  Op
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Op, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
