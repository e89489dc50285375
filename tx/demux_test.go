/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tx_test

import (
	"testing"
	"time"

	"github.com/gu-peter/aurora-link/chdr"
	"github.com/gu-peter/aurora-link/defn"
	"github.com/gu-peter/aurora-link/tx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemuxRouting(t *testing.T) {
	in := make(chan defn.Frame, 64)
	d := tx.MakeDemux(in, &tx.ControllerTable)
	c0 := d.AddChannel(0, 64, 4)
	c1 := d.AddChannel(1, 64, 4)
	go d.Run()
	t.Cleanup(d.Close)

	// A duplicate channel returns the existing controller
	assert.Same(t, c0, d.AddChannel(0, 64, 4))
	assert.Same(t, c0, tx.ControllerTable.Get(0))
	assert.Same(t, c1, tx.ControllerTable.Get(1))

	startController(t, c0)
	startController(t, c1)

	// Packets go to the channel named by their header
	pkt0 := chdr.BuildDataPacket(64, 0, 0, true, nil, []uint64{10, 11})
	pkt1 := chdr.BuildDataPacket(64, 1, 0, true, nil, []uint64{20})
	feed(in, pkt0)
	feed(in, pkt1)
	assert.Equal(t, pkt0, collect(t, c0.Out(), len(pkt0)))
	assert.Equal(t, pkt1, collect(t, c1.Out(), len(pkt1)))

	// A packet for an unknown channel is dropped whole and counted; routing
	// continues
	assert.Equal(t, uint64(0), d.DroppedPackets())
	feed(in, chdr.BuildDataPacket(64, 5, 0, true, nil, []uint64{30, 31}))
	pkt0 = chdr.BuildDataPacket(64, 0, 1, true, nil, []uint64{12})
	feed(in, pkt0)
	assert.Equal(t, pkt0, collect(t, c0.Out(), len(pkt0)))
	assert.Equal(t, uint64(1), d.DroppedPackets())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, len(c1.Out()))
}

func TestDemuxMultiFramePackets(t *testing.T) {
	in := make(chan defn.Frame, 64)
	d := tx.MakeDemux(in, &tx.ControllerTable)
	c2 := d.AddChannel(2, 64, 4)
	require.NotNil(t, c2)
	go d.Run()
	t.Cleanup(d.Close)

	startController(t, c2)

	// Every frame of a packet follows its header, including frames whose
	// payload words would alias another channel number
	pkt := chdr.BuildDataPacket(64, 2, 0, true, nil, []uint64{0, 1, 2, 3, 4, 5, 6, 7})
	feed(in, pkt)
	assert.Equal(t, pkt, collect(t, c2.Out(), len(pkt)))
}
