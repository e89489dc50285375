/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tx

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gu-peter/aurora-link/chdr"
	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
)

// StopPolicy selects what happens to arriving packets while a channel is
// stopped.
type StopPolicy int

const (
	// PolicyDrop consumes and discards whole packets while stopped.
	PolicyDrop StopPolicy = iota
	// PolicyBuffer stalls the input while stopped. With multiple channels
	// sharing one flow-control engine, a stopped Buffer-policy channel never
	// frees space, so the engine will perpetually signal Pause/Stop and wedge
	// the remaining channels.
	PolicyBuffer
)

func (p StopPolicy) String() string {
	switch p {
	case PolicyDrop:
		return "Drop"
	case PolicyBuffer:
		return "Buffer"
	default:
		return "Unknown (" + strconv.Itoa(int(p)) + ")"
	}
}

// Controller gates forwarding of validated packets to the local consumer for
// one channel. Started and stopped by one-shot commands; while stopped the
// stop policy decides between dropping and back-pressure. For timed bursts it
// pops one timestamp entry at burst start and rewrites every packet's
// timestamp by accumulating payload item counts.
type Controller struct {
	channel   int
	chdrWidth int
	itemSize  int

	in  <-chan defn.Frame
	out chan defn.Frame

	tsQueue *timestampQueue

	// One-shot commands, consumed at packet boundaries.
	policy       atomic.Int32
	startPending atomic.Bool
	stopPending  atomic.Bool
	wake         chan struct{}

	started atomic.Bool

	// Burst state, owned by the run goroutine.
	inBurst bool
	tsValid bool
	nextTS  uint64

	quit      chan struct{}
	closeOnce sync.Once
	hasQuit   chan bool
}

// MakeController creates a burst transmission controller for the given
// channel, consuming validated frames from in. chdrWidth is the bus width in
// bits; itemSize the payload item size in bytes.
func MakeController(channel int, in <-chan defn.Frame, chdrWidth int, itemSize int) *Controller {
	return &Controller{
		channel:   channel,
		chdrWidth: chdrWidth,
		itemSize:  itemSize,
		in:        in,
		out:       make(chan defn.Frame, txQueueSize),
		tsQueue:   newTimestampQueue(tsQueueCapacity),
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		hasQuit:   make(chan bool, 1),
	}
}

func (c *Controller) String() string {
	return "TxController, Channel=" + strconv.Itoa(c.channel)
}

// Channel returns the channel number of the controller.
func (c *Controller) Channel() int {
	return c.channel
}

// Out returns the stream of forwarded frames for the local consumer.
func (c *Controller) Out() <-chan defn.Frame {
	return c.out
}

// Started returns whether the channel is currently enabled.
func (c *Controller) Started() bool {
	return c.started.Load()
}

// Policy returns the stop policy of the channel.
func (c *Controller) Policy() StopPolicy {
	return StopPolicy(c.policy.Load())
}

// Start enables forwarding. One-shot, takes effect at the next packet
// boundary.
func (c *Controller) Start() {
	c.startPending.Store(true)
	c.notify()
}

// Stop disables forwarding. One-shot; if a burst is mid-transmission the
// controller forces the end-of-burst bit on the next packet boundary before
// going idle, so the burst is closed cleanly downstream.
func (c *Controller) Stop() {
	c.stopPending.Store(true)
	c.notify()
}

// SetPolicy sets the stop policy of the channel.
func (c *Controller) SetPolicy(policy StopPolicy) {
	c.policy.Store(int32(policy))
	core.LogInfo(c, "Stop policy set to ", policy)
	c.notify()
}

// EnqueueTimestamp adds one timestamp entry for a future burst.
func (c *Controller) EnqueueTimestamp(ts uint64) error {
	return c.tsQueue.Enqueue(ts)
}

// ClearTimestampQueue drains all queued timestamp entries.
func (c *Controller) ClearTimestampQueue() {
	c.tsQueue.Clear()
}

// TimestampQueueFullness returns the number of queued timestamp entries.
func (c *Controller) TimestampQueueFullness() int {
	return c.tsQueue.Fullness()
}

// TimestampQueueSize returns the capacity of the timestamp queue.
func (c *Controller) TimestampQueueSize() int {
	return c.tsQueue.Size()
}

func (c *Controller) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Run runs the controller state machine. Blocks until Close.
func (c *Controller) Run() {
	defer func() { c.hasQuit <- true }()

	for {
		if !c.inBurst {
			c.consumeCommands()
		}

		if !c.started.Load() {
			// Idle
			if c.Policy() == PolicyDrop {
				select {
				case <-c.quit:
					return
				case <-c.wake:
				case frame := <-c.in:
					if !c.dropPacket(frame) {
						return
					}
				}
			} else {
				// Buffer: input is not consumed while stopped
				select {
				case <-c.quit:
					return
				case <-c.wake:
				}
			}
			continue
		}

		// StartOfBurstHeader / PacketHeader
		var header defn.Frame
		select {
		case <-c.quit:
			return
		case <-c.wake:
			continue
		case header = <-c.in:
		}
		if !c.forwardPacket(header) {
			return
		}
	}
}

// Close stops the controller.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
		<-c.hasQuit
	})
}

// consumeCommands applies pending one-shot commands. Called only between
// bursts; a stop during an open burst is handled at the packet boundary
// instead.
func (c *Controller) consumeCommands() {
	if c.startPending.Swap(false) {
		if !c.started.Swap(true) {
			core.LogInfo(c, "Started")
		}
	}
	if c.stopPending.Swap(false) {
		if c.started.Swap(false) {
			core.LogInfo(c, "Stopped")
		}
	}
}

// dropPacket consumes and discards one whole packet, so that no partial
// packet can corrupt the stream when the channel is restarted.
func (c *Controller) dropPacket(first defn.Frame) bool {
	last := first.Last
	for !last {
		select {
		case <-c.quit:
			return false
		case frame := <-c.in:
			last = frame.Last
		}
	}
	core.LogTrace(c, "Dropped packet while stopped")
	return true
}

// forwardPacket forwards one packet beginning with the given header frame,
// applying burst timestamping and end-of-burst forcing. Returns false when
// the controller is shutting down.
func (c *Controller) forwardPacket(header defn.Frame) bool {
	hdrWord := header.Data[0]
	timed := chdr.Type(hdrWord) == chdr.TypeDataTimestamped

	// Header words are held locally until rewrites are committed, so nothing
	// is lost while the output is blocked.
	held := []defn.Frame{header}

	// On a 64-bit bus the timestamp occupies its own word after the header.
	if timed && c.chdrWidth == defn.WordSize && !header.Last {
		select {
		case <-c.quit:
			return false
		case frame := <-c.in:
			held = append(held, frame)
		}
	}

	// A stop observed here takes effect on this packet boundary.
	forceEOB := c.stopPending.Swap(false)

	if !c.inBurst {
		// Burst start: pop one timestamp entry when available. Without an
		// entry the carried timestamp is forwarded unmodified; a downstream
		// consumer that requires timing will reject an invalid timestamp
		// itself.
		c.inBurst = true
		c.tsValid = false
		if timed {
			if ts, ok := c.tsQueue.pop(); ok {
				c.tsValid = true
				c.nextTS = ts
				core.LogDebug(c, "Popped timestamp ", ts, " for new burst")
			}
		}
	}

	if timed && c.tsValid {
		// A timed packet too short to carry a timestamp must not advance the
		// accumulator, or the rest of the burst would be mistimed.
		if chdr.SetTimestamp(held, c.chdrWidth, c.nextTS) {
			c.nextTS += chdr.PayloadItemCount(hdrWord, c.chdrWidth, c.itemSize)
		} else {
			core.LogWarn(c, "Unable to rewrite timestamp of malformed timed packet")
		}
	}

	eob := chdr.EndOfBurst(hdrWord)
	if forceEOB && !eob {
		held[0].Data[0] = chdr.SetEndOfBurst(hdrWord, true)
		eob = true
		core.LogInfo(c, "Forcing end of burst after stop")
	}

	for _, frame := range held {
		if !c.emit(frame) {
			return false
		}
	}

	// Transmit the remainder of the packet
	last := held[len(held)-1].Last
	for !last {
		select {
		case <-c.quit:
			return false
		case frame := <-c.in:
			last = frame.Last
			if !c.emit(frame) {
				return false
			}
		}
	}

	if eob {
		// TransmitEndOfBurst: the burst is closed
		c.inBurst = false
		c.tsValid = false
		if forceEOB {
			c.started.Store(false)
			core.LogInfo(c, "Stopped at end of burst")
		}
	}
	return true
}

func (c *Controller) emit(frame defn.Frame) bool {
	select {
	case c.out <- frame:
		return true
	case <-c.quit:
		return false
	}
}
