// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	applog "equalizer/internal/log"
)

// LoggingTransport implements the Transport interface by logging a one-line
// summary of each snapshot at debug level.
type LoggingTransport struct {
	log   applog.Logger
	count atomic.Uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport(logger applog.Logger) *LoggingTransport {
	logger = applog.OrNop(logger)
	logger.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{log: logger}
}

// Send logs the peak bin of the received snapshot. Unknown payloads are
// logged by type.
func (lt *LoggingTransport) Send(data any) error {
	n := lt.count.Add(1)

	snap, ok := snapshotOf(data)
	if !ok {
		lt.log.Debugf("LoggingTransport: #%d received (%T)", n, data)
		return nil
	}

	idx, peak := snap.Peak()
	lt.log.Debugf("LoggingTransport: #%d %d bins, peak bin %d = %.0f", n, len(snap), idx, peak)
	return nil // Logging transport never fails to "send"
}

// Count returns the number of payloads received.
func (lt *LoggingTransport) Count() uint64 {
	return lt.count.Load()
}

// Close logs the total.
func (lt *LoggingTransport) Close() error {
	lt.log.Debugf("LoggingTransport: Close called after %d payloads.", lt.count.Load())
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
