/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
)

var errEngineClosed = errors.New("engine closed")

// extensionDelay is the safety margin, in link cycles, subtracted from the
// pause count before the monitor re-checks the threshold. It gives a new
// pause message time to reach the remote sender before the previous pause
// elapses.
const extensionDelay = 10

// fallbackPauseCount is substituted for pause counts that do not exceed the
// extension delay.
const fallbackPauseCount = 100

// Write process states.
type writeState int

const (
	writeReadyForData writeState = iota
	writeWritePacket
	writeEndOfPacket
)

// Monitor process states.
type monitorState int

const (
	monitorIdle monitorState = iota
	monitorSendPause
	monitorSendStop
	monitorPauseSent
	monitorStopSent
	monitorSendResume
)

// FlowControlConfig contains the tunable parameters of a FlowControlEngine.
type FlowControlConfig struct {
	// ChdrWidth is the bus width in bits.
	ChdrWidth int
	// MaxPacketWords is the largest packet size in bus words.
	MaxPacketWords int
	// ThresholdWidth is the bit width of the threshold fields. The receive
	// buffer is sized as MaxPacketWords + 2^ThresholdWidth so that frames in
	// flight when a pause or stop message is issued cannot overflow it.
	ThresholdWidth int
	// PauseCount is the pause duration in link cycles. 0 selects stop mode;
	// valid non-zero values are 11-255.
	PauseCount uint8
	// PauseThreshold is the free-space level below which a pause or stop
	// message is sent.
	PauseThreshold uint16
	// ResumeThreshold is the free-space level above which a resume message is
	// sent in stop mode. Must be greater than PauseThreshold.
	ResumeThreshold uint16
	// CyclePeriod is the duration of one link cycle for the monitor ticker.
	CyclePeriod time.Duration

	// testMode suppresses the overflow log assertion. Settable only from
	// within this package; production builds never enable it.
	testMode bool
}

// DefaultFlowControlConfig returns a configuration with stop-mode flow
// control and the thresholds used by the sample configuration.
func DefaultFlowControlConfig() FlowControlConfig {
	return FlowControlConfig{
		ChdrWidth:       ChdrWidth,
		MaxPacketWords:  defn.MaxPacketWords,
		ThresholdWidth:  8,
		PauseCount:      0,
		PauseThreshold:  160,
		ResumeThreshold: 200,
		CyclePeriod:     time.Microsecond,
	}
}

// Validate checks the configuration, substitutes documented fallbacks, and
// returns the normalized configuration. A threshold ordering violation is a
// fatal configuration error: a stop message sent with resume_threshold <=
// pause_threshold would never be followed by a resume.
func (c FlowControlConfig) Validate() (FlowControlConfig, error) {
	if c.PauseThreshold >= c.ResumeThreshold {
		return c, core.ErrInvalidThresholds
	}
	if c.ChdrWidth == 0 {
		c.ChdrWidth = ChdrWidth
	}
	if c.MaxPacketWords == 0 {
		c.MaxPacketWords = defn.MaxPacketWords
	}
	if c.ThresholdWidth == 0 {
		c.ThresholdWidth = 8
	}
	if c.CyclePeriod == 0 {
		c.CyclePeriod = time.Microsecond
	}
	if c.PauseCount > 0 && c.PauseCount <= extensionDelay {
		core.LogWarn("FlowControlConfig", "Pause count ", c.PauseCount,
			" does not exceed extension delay, using ", fallbackPauseCount)
		c.PauseCount = fallbackPauseCount
	}
	return c, nil
}

// bufferCapacity returns the receive buffer size in frames.
func (c FlowControlConfig) bufferCapacity() int {
	return c.MaxPacketWords + (1 << c.ThresholdWidth)
}

// FlowControlEngine absorbs inbound frames from the link into a bounded
// buffer, validates per-packet integrity, forwards valid packets downstream,
// and signals the remote sender over the NFC side channel to prevent buffer
// overflow. The write, read, and monitor processes run as independent
// goroutines sharing the data FIFO and the control-metadata queue; one
// metadata record exists for every completed packet in the data FIFO, in
// arrival order.
type FlowControlEngine struct {
	linkID    uint64
	transport transport
	conf      FlowControlConfig
	counters  *Counters

	fifo *frameFIFO
	meta chan packetMeta
	in   chan defn.RxFrame
	out  chan defn.Frame

	encoder *wireEncoder

	ticks  <-chan time.Time
	ticker *time.Ticker

	// Outbound pause state driven by NFC messages from the remote peer.
	pauseMtx       sync.Mutex
	pauseCond      *sync.Cond
	outboundPaused bool
	pauseTimer     *time.Timer
	closed         bool

	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// MakeFlowControlEngine creates a flow-control engine on the given transport.
// The configuration is validated; a threshold ordering violation is returned
// as an error before any traffic can flow.
func MakeFlowControlEngine(t transport, conf FlowControlConfig, counters *Counters) (*FlowControlEngine, error) {
	conf, err := conf.Validate()
	if err != nil {
		return nil, err
	}
	if counters == nil {
		counters = new(Counters)
	}

	e := &FlowControlEngine{
		transport: t,
		conf:      conf,
		counters:  counters,
		fifo:      newFrameFIFO(conf.bufferCapacity()),
		meta:      make(chan packetMeta, conf.bufferCapacity()),
		in:        make(chan defn.RxFrame, 64),
		out:       make(chan defn.Frame, linkQueueSize),
		encoder:   newWireEncoder(),
		quit:      make(chan struct{}),
	}
	e.pauseCond = sync.NewCond(&e.pauseMtx)
	if t != nil {
		t.setEngine(e)
	}
	return e, nil
}

func (e *FlowControlEngine) String() string {
	if e.transport != nil {
		return "FlowControlEngine, " + e.transport.String()
	}
	return "FlowControlEngine, LinkID=" + strconv.FormatUint(e.linkID, 10)
}

// SetLinkID sets the link ID of the engine.
func (e *FlowControlEngine) SetLinkID(linkID uint64) {
	e.linkID = linkID
	if e.transport != nil {
		e.transport.setLinkID(linkID)
	}
}

// LinkID returns the link ID of the engine.
func (e *FlowControlEngine) LinkID() uint64 {
	return e.linkID
}

// Transport returns the transport of the engine.
func (e *FlowControlEngine) Transport() transport {
	return e.transport
}

// State returns the state of the underlying transport.
func (e *FlowControlEngine) State() defn.State {
	if e.transport == nil {
		return defn.Down
	}
	return e.transport.State()
}

// Counters returns the event counters of the engine.
func (e *FlowControlEngine) Counters() *Counters {
	return e.counters
}

// Config returns the normalized configuration of the engine.
func (e *FlowControlEngine) Config() FlowControlConfig {
	return e.conf
}

// Out returns the stream of validated frames for the TX datapath.
func (e *FlowControlEngine) Out() <-chan defn.Frame {
	return e.out
}

// BufferFree returns the current free space of the receive buffer in frames.
func (e *FlowControlEngine) BufferFree() int {
	return e.fifo.Free()
}

// BufferCapacity returns the total receive buffer capacity in frames.
func (e *FlowControlEngine) BufferCapacity() int {
	return e.fifo.Cap()
}

// SetTickSource replaces the monitor's cycle tick source. Must be called
// before Run.
func (e *FlowControlEngine) SetTickSource(ticks <-chan time.Time) {
	e.ticks = ticks
}

// Run starts the engine and its transport. Blocks until Close.
func (e *FlowControlEngine) Run() {
	if e.transport == nil {
		core.LogError(e, "Unable to start engine due to unset transport")
		return
	}

	if e.ticks == nil {
		e.ticker = time.NewTicker(e.conf.CyclePeriod)
		e.ticks = e.ticker.C
	}

	go e.transport.runReceive()

	e.wg.Add(3)
	go e.runWrite()
	go e.runRead()
	go e.runMonitor()
	e.wg.Wait()
}

// Close stops the engine and its transport.
func (e *FlowControlEngine) Close() {
	e.closeOnce.Do(func() {
		close(e.quit)
		if e.ticker != nil {
			e.ticker.Stop()
		}
		e.pauseMtx.Lock()
		e.closed = true
		if e.pauseTimer != nil {
			e.pauseTimer.Stop()
		}
		e.pauseCond.Broadcast()
		e.pauseMtx.Unlock()
		if e.transport != nil {
			e.transport.Close()
		}
	})
}

//
// Inbound path (TX datapath: link to packet-processing domain)
//

// handleIncomingFrame queues one received frame for the write process.
// Called by the transport's decoder.
func (e *FlowControlEngine) handleIncomingFrame(rx defn.RxFrame) {
	select {
	case e.in <- rx:
	case <-e.quit:
	}
}

// runWrite is the write process: it absorbs frames into the data FIFO, tracks
// packet boundaries, and emits one control-metadata record per packet. When
// the FIFO is full the incoming word is dropped, an overflow event is
// counted, and the in-flight packet is latched corrupted until a packet end
// is observed with available space.
func (e *FlowControlEngine) runWrite() {
	defer e.wg.Done()

	state := writeReadyForData
	words := 0
	corrupt := false

	for {
		select {
		case <-e.quit:
			return
		case rx := <-e.in:
			if state == writeReadyForData {
				state = writeWritePacket
				words = 0
			}

			pushed := e.fifo.Push(rx.Frame)
			if pushed {
				words++
			} else {
				e.counters.Overflow.Add(1)
				if !e.conf.testMode {
					core.LogWarn(e, "Receive buffer overflow - dropping word")
				}
				corrupt = true
			}

			if rx.Last {
				state = writeEndOfPacket
				pass := rx.IntegrityOK && !corrupt
				if !rx.IntegrityOK {
					e.counters.CRCErrors.Add(1)
					core.LogDebug(e, "Integrity check failed for received packet")
				}
				e.counters.RxPackets.Add(1)

				select {
				case e.meta <- packetMeta{words: words, pass: pass}:
				case <-e.quit:
					return
				}

				// The corrupted-packet latch clears only when the packet end
				// was stored with available space.
				if pushed {
					corrupt = false
				}
				state = writeReadyForData
			}
		}
	}
}

// runRead is the read process: it pops one metadata record per packet and
// either forwards the packet's frames downstream or discards them. Both
// paths consume the buffered frames so the write side is never blocked by a
// dropped packet.
func (e *FlowControlEngine) runRead() {
	defer e.wg.Done()

	for {
		var m packetMeta
		select {
		case <-e.quit:
			return
		case m = <-e.meta:
		}

		for i := 0; i < m.words; i++ {
			frame, ok := e.fifo.Pop()
			if !ok {
				// Metadata/data misalignment; should be unreachable.
				core.LogError(e, "Metadata record without matching buffered frames")
				break
			}
			if !m.pass {
				continue
			}
			select {
			case e.out <- frame:
			case <-e.quit:
				return
			}
		}
		if !m.pass {
			core.LogDebug(e, "Dropped packet of ", m.words, " words")
		}
	}
}

// pendingMetadata returns the number of queued control-metadata records.
func (e *FlowControlEngine) pendingMetadata() int {
	return len(e.meta)
}

//
// Monitor process
//

// runMonitor is the monitor process: it observes free buffer space once per
// link cycle and drives the NFC side channel. In pause mode it re-arms the
// pause before the remote resumes; in stop mode it sends a single resume once
// free space exceeds the resume threshold.
func (e *FlowControlEngine) runMonitor() {
	defer e.wg.Done()

	state := monitorIdle
	countdown := 0

	for {
		select {
		case <-e.quit:
			return
		case <-e.ticks:
		}

		free := e.fifo.Free()

		switch state {
		case monitorIdle:
			countdown = 0
			if free < int(e.conf.PauseThreshold) {
				if e.conf.PauseCount > 0 {
					state = monitorSendPause
				} else {
					state = monitorSendStop
				}
			}
		case monitorPauseSent:
			if countdown > 0 {
				countdown--
				break
			}
			if free < int(e.conf.PauseThreshold) {
				// Pause extension: re-arm before the remote resumes.
				state = monitorSendPause
			} else {
				state = monitorIdle
			}
		case monitorStopSent:
			if free > int(e.conf.ResumeThreshold) {
				state = monitorSendResume
			}
		}

		// Transient send states complete within the same cycle.
		switch state {
		case monitorSendPause:
			e.sendNFC(NFCPause(e.conf.PauseCount))
			countdown = int(e.conf.PauseCount) - extensionDelay
			state = monitorPauseSent
		case monitorSendStop:
			e.sendNFC(NFCStop())
			state = monitorStopSent
		case monitorSendResume:
			e.sendNFC(NFCResume())
			state = monitorIdle
		}
	}
}

func (e *FlowControlEngine) sendNFC(msg NFCMessage) {
	core.LogDebug(e, "Sending ", msg)
	e.transport.sendFrame(encodeNFC(msg))
}

//
// Outbound path (RX datapath: packet-processing domain to link)
//

// SendPacket transmits one packet to the link, honoring pause and stop
// messages received from the remote peer. Single producer only.
func (e *FlowControlEngine) SendPacket(pkt []defn.Frame) error {
	e.pauseMtx.Lock()
	for e.outboundPaused && !e.closed {
		e.pauseCond.Wait()
	}
	closed := e.closed
	e.pauseMtx.Unlock()
	if closed {
		return errEngineClosed
	}

	for _, frame := range pkt {
		e.transport.sendFrame(e.encoder.encodeFrame(frame))
	}
	e.counters.TxPackets.Add(1)
	return nil
}

// handleNFC reacts to a flow-control message from the remote peer by pausing
// or resuming the outbound path. Called by the transport's decoder.
func (e *FlowControlEngine) handleNFC(msg NFCMessage) {
	core.LogDebug(e, "Received ", msg)
	switch {
	case msg.IsResume():
		e.resumeOutbound()
	case msg.IsStop():
		e.pauseOutbound(0)
	default:
		e.pauseOutbound(time.Duration(msg.Pause) * e.conf.CyclePeriod)
	}
}

// pauseOutbound pauses the outbound path, until resumed explicitly when d is
// zero or for the given duration otherwise.
func (e *FlowControlEngine) pauseOutbound(d time.Duration) {
	e.pauseMtx.Lock()
	defer e.pauseMtx.Unlock()
	e.outboundPaused = true
	if e.pauseTimer != nil {
		e.pauseTimer.Stop()
		e.pauseTimer = nil
	}
	if d > 0 {
		e.pauseTimer = time.AfterFunc(d, e.resumeOutbound)
	}
}

func (e *FlowControlEngine) resumeOutbound() {
	e.pauseMtx.Lock()
	defer e.pauseMtx.Unlock()
	e.outboundPaused = false
	e.pauseCond.Broadcast()
}
