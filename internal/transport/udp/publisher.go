// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"vocalscope/internal/analysis"
	applog "vocalscope/internal/log"
)

// AnalysisSource provides the latest analysis results for publishing.
// The analysis loop implements it.
type AnalysisSource interface {
	Latest() analysis.Metrics
	SnapshotInto(dst []uint8) error
	Bins() int
}

// Publisher periodically fetches the latest metrics and spectral
// column, packs them into a binary packet, and sends them over UDP.
// It runs in its own goroutine managed by Start and Stop.
type Publisher struct {
	sender   *Sender
	source   AnalysisSource
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop

	sequenceNum uint32

	// Pre-allocated buffers to keep the per-packet path allocation-free.
	snapshotBuf  []uint8
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher. An interval <= 0 defaults to 33ms
// (~30 packets/s).
func NewPublisher(interval time.Duration, sender *Sender, source AnalysisSource) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("udp publisher: analysis source cannot be nil")
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("UDP Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	bins := source.Bins()
	applog.Infof("UDP Publisher: Initializing (Interval: %s, Bins: %d)", interval, bins)

	return &Publisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		snapshotBuf:  make([]uint8, bins),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publisher goroutine. Safe to call repeatedly;
// calls while running are no-ops.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDP Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture locals so the goroutine never races Start/Stop on the
	// struct fields.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it.
// Idempotent.
func (p *Publisher) Stop() error {
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
	return nil
}

/*
Packet layout (BigEndian):

	| Field        | Type      | Bytes |
	|--------------|-----------|-------|
	| Sequence     | uint32    | 4     |
	| Timestamp    | int64     | 8     |
	| Pitch Hz     | float32   | 4     |
	| Volume dBFS  | float32   | 4     |
	| Clarity      | float32   | 4     |
	| Bin Count    | uint16    | 2     |
	| Column       | [N]uint8  | N     |
*/
func (p *Publisher) buildAndSendPacket() {
	metrics := p.source.Latest()
	if err := p.source.SnapshotInto(p.snapshotBuf); err != nil {
		applog.Errorf("UDP Publisher: Error getting snapshot: %v", err)
		return
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()

	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(metrics.Pitch))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(metrics.Volume))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, float32(metrics.Clarity))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(p.snapshotBuf)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.snapshotBuf)
	}
	if err != nil {
		applog.Errorf("UDP Publisher: Error packing data into binary buffer: %v", err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("UDP Publisher: Sent packet %d (%d bytes)", p.sequenceNum, p.packetBuffer.Len())
	}
}

// Close stops the publisher goroutine and closes the owned sender.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}

var _ interface{ Close() error } = (*Publisher)(nil)
