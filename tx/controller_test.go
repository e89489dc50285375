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

func makeTestController(t *testing.T, channel int) (*tx.Controller, chan defn.Frame) {
	in := make(chan defn.Frame, 64)
	c := tx.MakeController(channel, in, 64, 4)
	go c.Run()
	t.Cleanup(c.Close)
	return c, in
}

func startController(t *testing.T, c *tx.Controller) {
	c.Start()
	require.Eventually(t, c.Started, time.Second, time.Millisecond, "controller did not start")
}

func feed(in chan<- defn.Frame, pkt []defn.Frame) {
	for _, frame := range pkt {
		in <- frame
	}
}

func collect(t *testing.T, out <-chan defn.Frame, n int) []defn.Frame {
	frames := make([]defn.Frame, 0, n)
	for i := 0; i < n; i++ {
		select {
		case frame := <-out:
			frames = append(frames, frame)
		case <-time.After(time.Second):
			t.Fatal("timed out collecting frame ", i, " of ", n)
		}
	}
	return frames
}

func TestControllerPassthrough(t *testing.T) {
	c, in := makeTestController(t, 0)
	startController(t, c)

	// An untimed packet passes through unmodified
	pkt := chdr.BuildDataPacket(64, 0, 1, true, nil, []uint64{10, 11})
	feed(in, pkt)
	got := collect(t, c.Out(), len(pkt))
	assert.Equal(t, pkt, got)

	// A timed packet with no queued timestamp entry keeps its carried value
	ts := uint64(0xBAD)
	pkt = chdr.BuildDataPacket(64, 0, 2, true, &ts, []uint64{12})
	feed(in, pkt)
	got = collect(t, c.Out(), len(pkt))
	carried, ok := chdr.Timestamp(got, 64)
	require.True(t, ok)
	assert.Equal(t, uint64(0xBAD), carried)
}

func TestControllerBurstTimestamping(t *testing.T) {
	c, in := makeTestController(t, 0)
	startController(t, c)

	// One entry per burst
	bases := []uint64{1000, 2000, 3000, 4000, 5000}
	for _, base := range bases {
		require.NoError(t, c.EnqueueTimestamp(base))
	}
	assert.Equal(t, len(bases), c.TimestampQueueFullness())

	// Each burst is 3 timed packets of 4 payload words. With 4-byte items a
	// packet covers (48 - 16) / 4 = 8 items.
	garbage := uint64(0xFFFFFFFF)
	seq := uint16(0)
	for _, base := range bases {
		for p := 0; p < 3; p++ {
			pkt := chdr.BuildDataPacket(64, 0, seq, p == 2, &garbage, []uint64{1, 2, 3, 4})
			seq++
			feed(in, pkt)
			got := collect(t, c.Out(), len(pkt))
			ts, ok := chdr.Timestamp(got, 64)
			require.True(t, ok)
			assert.Equal(t, base+uint64(p)*8, ts)
		}
	}
	assert.Equal(t, 0, c.TimestampQueueFullness())
}

func TestControllerMalformedTimedPacket(t *testing.T) {
	c, in := makeTestController(t, 0)
	startController(t, c)

	require.NoError(t, c.EnqueueTimestamp(5000))

	// A timed header with the last-word marker set carries no timestamp word
	// on a 64-bit bus. It opens the burst but must not consume any of the
	// timestamp budget.
	hdr := chdr.NewHeader(chdr.TypeDataTimestamped, 0, 0, 48, false)
	feed(in, []defn.Frame{{Data: []uint64{hdr}, Last: true}})
	got := collect(t, c.Out(), 1)
	assert.Equal(t, hdr, got[0].Data[0])

	// The next packet of the burst starts at the queued entry, not past it
	garbage := uint64(0xFFFFFFFF)
	pkt := chdr.BuildDataPacket(64, 0, 1, true, &garbage, []uint64{1, 2, 3, 4})
	feed(in, pkt)
	got = collect(t, c.Out(), len(pkt))
	ts, ok := chdr.Timestamp(got, 64)
	require.True(t, ok)
	assert.Equal(t, uint64(5000), ts)
}

func TestControllerStopMidBurst(t *testing.T) {
	c, in := makeTestController(t, 0)
	startController(t, c)

	// Open a burst
	pkt := chdr.BuildDataPacket(64, 0, 0, false, nil, []uint64{1})
	feed(in, pkt)
	got := collect(t, c.Out(), len(pkt))
	assert.False(t, chdr.EndOfBurst(got[0].Data[0]))

	// Stop mid-burst: exactly one more packet is forwarded, with the
	// end-of-burst bit forced, then the channel goes idle
	c.Stop()
	pkt = chdr.BuildDataPacket(64, 0, 1, false, nil, []uint64{2})
	feed(in, pkt)
	got = collect(t, c.Out(), len(pkt))
	assert.True(t, chdr.EndOfBurst(got[0].Data[0]))
	require.Eventually(t, func() bool { return !c.Started() }, time.Second, time.Millisecond,
		"controller did not stop at end of burst")

	// Idle with the drop policy: packets are consumed, nothing is forwarded
	pkt = chdr.BuildDataPacket(64, 0, 2, false, nil, []uint64{3})
	feed(in, pkt)
	require.Eventually(t, func() bool { return len(in) == 0 }, time.Second, time.Millisecond,
		"input not consumed while stopped")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, len(c.Out()))

	// Restart resumes forwarding
	startController(t, c)
	pkt = chdr.BuildDataPacket(64, 0, 3, true, nil, []uint64{4})
	feed(in, pkt)
	got = collect(t, c.Out(), len(pkt))
	assert.Equal(t, pkt, got)
}

func TestControllerStopBetweenBursts(t *testing.T) {
	c, in := makeTestController(t, 0)
	startController(t, c)

	// A complete burst, then a stop with no burst open: no extra packet is
	// forwarded
	pkt := chdr.BuildDataPacket(64, 0, 0, true, nil, []uint64{1})
	feed(in, pkt)
	collect(t, c.Out(), len(pkt))

	c.Stop()
	require.Eventually(t, func() bool { return !c.Started() }, time.Second, time.Millisecond,
		"controller did not stop")

	feed(in, chdr.BuildDataPacket(64, 0, 1, true, nil, []uint64{2}))
	require.Eventually(t, func() bool { return len(in) == 0 }, time.Second, time.Millisecond,
		"input not consumed while stopped")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, len(c.Out()))
}

func TestControllerBufferPolicy(t *testing.T) {
	c, in := makeTestController(t, 0)

	c.SetPolicy(tx.PolicyBuffer)
	assert.Equal(t, tx.PolicyBuffer, c.Policy())

	// While stopped with the buffer policy the input is not consumed
	pkt := chdr.BuildDataPacket(64, 0, 0, true, nil, []uint64{1})
	feed(in, pkt)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, len(pkt), len(in))
	assert.Equal(t, 0, len(c.Out()))

	// Switching to the drop policy releases the back-pressure
	c.SetPolicy(tx.PolicyDrop)
	require.Eventually(t, func() bool { return len(in) == 0 }, time.Second, time.Millisecond,
		"input not consumed after policy change")
	assert.Equal(t, 0, len(c.Out()))
}

func TestStopPolicyString(t *testing.T) {
	assert.Equal(t, "Drop", tx.PolicyDrop.String())
	assert.Equal(t, "Buffer", tx.PolicyBuffer.String())
}
