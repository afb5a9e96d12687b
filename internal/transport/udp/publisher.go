// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"equalizer/internal/dsp"
	applog "equalizer/internal/log"
	"equalizer/internal/transport"
)

// HeaderSize is the byte length of the packet header.
const HeaderSize = 4 + 8 + 2

// UDPPublisher periodically sends the most recent snapshot handed to Send,
// packed into a binary packet, through a UDPSender. It runs in a separate
// goroutine managed by Start and Stop, so the render tick never waits on
// the network.
type UDPPublisher struct {
	sender   *UDPSender
	interval time.Duration
	log      applog.Logger

	latest  atomic.Pointer[dsp.Snapshot] // Set by Send, read on each tick.
	lastRef *dsp.Snapshot                // The snapshot sent on the previous tick.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum uint32 // Monotonically increasing sequence number for packets.

	// Reused on every tick.
	f32Buffer    []float32
	packetBuffer *bytes.Buffer
}

// NewUDPPublisher creates and initializes a new UDPPublisher.
// If the provided interval is invalid (<= 0), it defaults to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender, logger applog.Logger) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	logger = applog.OrNop(logger)

	if interval <= 0 {
		interval = 16 * time.Millisecond // Default to ~60Hz if invalid
		logger.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	logger.Infof("UDPPublisher: Initializing (Interval: %s, Target: %s)", interval, sender.Target())

	return &UDPPublisher{
		sender:       sender,
		interval:     interval,
		log:          logger,
		f32Buffer:    make([]float32, 0, dsp.MaxBins),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Send records the latest snapshot; the next tick transmits it. Payloads
// without bins are ignored.
func (p *UDPPublisher) Send(data any) error {
	var snap dsp.Snapshot
	switch v := data.(type) {
	case dsp.Snapshot:
		snap = v
	case transport.SpectrumMessage:
		snap = v.Bins
	case []float64:
		snap = v
	default:
		return nil
	}
	snap = snap.Clone()
	p.latest.Store(&snap)
	return nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	// Prevent starting if already running
	if p.ticker != nil {
		p.mu.Unlock()
		p.log.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset stopOnce for this run

	// Capture local variables for the goroutine to avoid data races on p.ticker/p.doneChan
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.log.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				p.log.Debugf("UDPPublisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Debugf("UDPPublisher: Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Bin Count         | uint16         | 2            | Number of floats (N)    |
| Bins              | []float32      | N * 4        | Snapshot bin values     |
+-----------------------------------------------------------------------------+
*/

// buildAndSendPacket packs the latest snapshot and sends it. A tick with no
// new snapshot since the previous one sends nothing.
func (p *UDPPublisher) buildAndSendPacket() {
	ref := p.latest.Load()
	if ref == nil || ref == p.lastRef {
		return
	}
	p.lastRef = ref
	snap := *ref

	p.f32Buffer = p.f32Buffer[:0]
	for _, v := range snap {
		p.f32Buffer = append(p.f32Buffer, float32(v))
	}

	p.sequenceNum++
	packet, err := appendPacket(p.packetBuffer, p.sequenceNum, time.Now().UnixNano(), p.f32Buffer)
	if err != nil {
		p.log.Errorf("UDPPublisher: Error packing data into binary buffer: %v", err)
		return
	}

	// Error logging is handled within sender.Send.
	if err := p.sender.Send(packet); err == nil {
		p.log.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(packet))
	}
}

func appendPacket(buf *bytes.Buffer, seq uint32, timestamp int64, bins []float32) ([]byte, error) {
	buf.Reset()

	// Chain error checks for cleaner code.
	err := binary.Write(buf, binary.BigEndian, seq)
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, uint16(len(bins)))
	}
	if err == nil {
		err = binary.Write(buf, binary.BigEndian, bins)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Packet is a decoded snapshot packet.
type Packet struct {
	Seq       uint32
	Timestamp int64
	Bins      []float32
}

// ParsePacket decodes a packet produced by UDPPublisher.
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, errors.New("packet shorter than header")
	}

	var pkt Packet
	pkt.Seq = binary.BigEndian.Uint32(b[0:4])
	pkt.Timestamp = int64(binary.BigEndian.Uint64(b[4:12]))
	count := int(binary.BigEndian.Uint16(b[12:14]))

	if len(b) != HeaderSize+4*count {
		return Packet{}, fmt.Errorf("packet length %d does not match %d bins", len(b), count)
	}
	pkt.Bins = make([]float32, count)
	if err := binary.Read(bytes.NewReader(b[HeaderSize:]), binary.BigEndian, pkt.Bins); err != nil {
		return Packet{}, err
	}
	return pkt, nil
}

// Close implements the io.Closer interface. It stops the publisher goroutine;
// the sender is owned and closed by the caller.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

// Ensure UDPPublisher satisfies the Transport interface at compile time.
var _ transport.Transport = (*UDPPublisher)(nil)
