/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tx

import (
	"sync"
	"sync/atomic"

	"github.com/gu-peter/aurora-link/chdr"
	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
)

// Demux routes validated frames from the flow-control engine to the
// per-channel controller selected by the virtual channel field of each packet
// header. Sends to a channel's input block when that channel applies
// back-pressure; this is what couples a stopped Buffer-policy channel to the
// shared flow-control engine.
type Demux struct {
	in    <-chan defn.Frame
	table *Table

	inputs   map[int]chan defn.Frame
	inputMtx sync.Mutex

	// nDropped counts packets addressed to an unregistered channel.
	nDropped atomic.Uint64

	quit      chan struct{}
	closeOnce sync.Once
	hasQuit   chan bool
}

// MakeDemux creates a demux reading from in and routing to the controllers
// in the given table.
func MakeDemux(in <-chan defn.Frame, table *Table) *Demux {
	return &Demux{
		in:      in,
		table:   table,
		inputs:  make(map[int]chan defn.Frame),
		quit:    make(chan struct{}),
		hasQuit: make(chan bool, 1),
	}
}

func (d *Demux) String() string {
	return "TxDemux"
}

// AddChannel creates a controller input for the given channel, registers the
// controller, and starts it. chdrWidth is the bus width in bits; itemSize the
// payload item size in bytes.
func (d *Demux) AddChannel(channel int, chdrWidth int, itemSize int) *Controller {
	d.inputMtx.Lock()
	defer d.inputMtx.Unlock()

	if _, ok := d.inputs[channel]; ok {
		core.LogWarn(d, "Channel ", channel, " already exists")
		return d.table.Get(channel)
	}

	input := make(chan defn.Frame, txQueueSize)
	d.inputs[channel] = input
	c := MakeController(channel, input, chdrWidth, itemSize)
	d.table.Add(c)
	go c.Run()
	return c
}

// DroppedPackets returns the number of packets dropped because no controller
// was registered for their channel.
func (d *Demux) DroppedPackets() uint64 {
	return d.nDropped.Load()
}

func (d *Demux) input(channel int) chan defn.Frame {
	d.inputMtx.Lock()
	defer d.inputMtx.Unlock()
	return d.inputs[channel]
}

// Run routes packets until Close. Packet boundaries are tracked so that every
// frame of a packet goes to the channel named by its header.
func (d *Demux) Run() {
	defer func() { d.hasQuit <- true }()

	for {
		var header defn.Frame
		select {
		case <-d.quit:
			return
		case header = <-d.in:
		}

		vc := chdr.VirtChan(header.Data[0])
		input := d.input(vc)
		if input == nil {
			d.nDropped.Add(1)
			core.LogWarn(d, "No controller for channel ", vc, " - DROP packet")
		}

		frame := header
		for {
			if input != nil {
				select {
				case input <- frame:
				case <-d.quit:
					return
				}
			}
			if frame.Last {
				break
			}
			select {
			case <-d.quit:
				return
			case frame = <-d.in:
			}
		}
	}
}

// Close stops the demux and all registered controllers.
func (d *Demux) Close() {
	d.closeOnce.Do(func() {
		close(d.quit)
		<-d.hasQuit
		for _, c := range d.table.GetAll() {
			c.Close()
		}
	})
}
