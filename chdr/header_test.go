/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package chdr_test

import (
	"testing"

	"github.com/gu-peter/aurora-link/chdr"
	"github.com/gu-peter/aurora-link/defn"
	"github.com/stretchr/testify/assert"
)

func TestHeaderFields(t *testing.T) {
	hdr := chdr.NewHeader(chdr.TypeDataTimestamped, 3, 0x1234, 48, true)
	assert.Equal(t, chdr.TypeDataTimestamped, chdr.Type(hdr))
	assert.Equal(t, 3, chdr.VirtChan(hdr))
	assert.Equal(t, uint16(0x1234), chdr.SeqNum(hdr))
	assert.Equal(t, uint16(48), chdr.Length(hdr))
	assert.True(t, chdr.EndOfBurst(hdr))
	assert.Equal(t, uint16(0), chdr.DstEPID(hdr))

	hdr = chdr.SetEndOfBurst(hdr, false)
	assert.False(t, chdr.EndOfBurst(hdr))
	assert.Equal(t, chdr.TypeDataTimestamped, chdr.Type(hdr))

	hdr = chdr.SetVirtChan(hdr, 17)
	assert.Equal(t, 17, chdr.VirtChan(hdr))
	assert.Equal(t, uint16(0x1234), chdr.SeqNum(hdr))

	hdr = chdr.SetLength(hdr, 1000)
	assert.Equal(t, uint16(1000), chdr.Length(hdr))

	hdr = chdr.SetType(hdr, chdr.TypeData)
	assert.Equal(t, chdr.TypeData, chdr.Type(hdr))
	assert.Equal(t, 17, chdr.VirtChan(hdr))
}

func TestPacketType(t *testing.T) {
	assert.True(t, chdr.TypeData.IsData())
	assert.True(t, chdr.TypeDataTimestamped.IsData())
	assert.False(t, chdr.TypeControl.IsData())
	assert.Equal(t, "DataTimestamped", chdr.TypeDataTimestamped.String())
	assert.Equal(t, "Management", chdr.TypeManagement.String())
}

func TestHeaderBytes(t *testing.T) {
	// 64-bit bus: header one word, timestamp another
	assert.Equal(t, 8, chdr.HeaderBytes(chdr.TypeData, 64))
	assert.Equal(t, 16, chdr.HeaderBytes(chdr.TypeDataTimestamped, 64))

	// Wider buses: header and timestamp share the first bus word
	assert.Equal(t, 16, chdr.HeaderBytes(chdr.TypeData, 128))
	assert.Equal(t, 16, chdr.HeaderBytes(chdr.TypeDataTimestamped, 128))
	assert.Equal(t, 64, chdr.HeaderBytes(chdr.TypeData, 512))
}

func TestPayloadItemCount(t *testing.T) {
	// 48-byte timed packet on a 64-bit bus: 16 bytes framing, 32 bytes payload
	hdr := chdr.NewHeader(chdr.TypeDataTimestamped, 0, 0, 48, false)
	assert.Equal(t, uint64(8), chdr.PayloadItemCount(hdr, 64, 4))
	assert.Equal(t, uint64(4), chdr.PayloadItemCount(hdr, 64, 8))

	// Same packet on a 128-bit bus has the same framing overhead
	assert.Equal(t, uint64(8), chdr.PayloadItemCount(hdr, 128, 4))

	// Untimed packet carries 8 more payload bytes on a 64-bit bus
	hdr = chdr.NewHeader(chdr.TypeData, 0, 0, 48, false)
	assert.Equal(t, uint64(10), chdr.PayloadItemCount(hdr, 64, 4))

	// Degenerate lengths
	hdr = chdr.NewHeader(chdr.TypeDataTimestamped, 0, 0, 16, false)
	assert.Equal(t, uint64(0), chdr.PayloadItemCount(hdr, 64, 4))
	assert.Equal(t, uint64(0), chdr.PayloadItemCount(hdr, 64, 0))
}

func TestTimestamp64(t *testing.T) {
	ts := uint64(0xDEADBEEF)
	pkt := chdr.BuildDataPacket(64, 0, 0, false, &ts, []uint64{1, 2, 3, 4})
	assert.Len(t, pkt, 6)
	assert.False(t, pkt[0].Last)
	assert.True(t, pkt[5].Last)

	got, ok := chdr.Timestamp(pkt, 64)
	assert.True(t, ok)
	assert.Equal(t, ts, got)

	assert.True(t, chdr.SetTimestamp(pkt, 64, 42))
	got, ok = chdr.Timestamp(pkt, 64)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), got)

	// Untimed packets carry no timestamp
	pkt = chdr.BuildDataPacket(64, 0, 0, false, nil, []uint64{1, 2})
	_, ok = chdr.Timestamp(pkt, 64)
	assert.False(t, ok)
	assert.False(t, chdr.SetTimestamp(pkt, 64, 42))
}

func TestTimestamp128(t *testing.T) {
	ts := uint64(0xCAFE)
	pkt := chdr.BuildDataPacket(128, 0, 0, false, &ts, []uint64{1, 2, 3, 4})
	// First frame holds header and timestamp, payload fills two more frames
	assert.Len(t, pkt, 3)
	assert.Equal(t, 2, pkt[0].Words())
	assert.True(t, pkt[2].Last)

	got, ok := chdr.Timestamp(pkt, 128)
	assert.True(t, ok)
	assert.Equal(t, ts, got)

	assert.True(t, chdr.SetTimestamp(pkt, 128, 7))
	got, _ = chdr.Timestamp(pkt, 128)
	assert.Equal(t, uint64(7), got)
}

func TestBuildDataPacket(t *testing.T) {
	pkt := chdr.BuildDataPacket(64, 5, 9, true, nil, []uint64{10, 11})
	assert.Len(t, pkt, 3)

	hdr := pkt[0].Data[0]
	assert.Equal(t, chdr.TypeData, chdr.Type(hdr))
	assert.Equal(t, 5, chdr.VirtChan(hdr))
	assert.Equal(t, uint16(9), chdr.SeqNum(hdr))
	assert.Equal(t, uint16(24), chdr.Length(hdr))
	assert.True(t, chdr.EndOfBurst(hdr))
	assert.Equal(t, uint64(10), pkt[1].Data[0])
	assert.Equal(t, uint64(11), pkt[2].Data[0])

	// Odd payload on a 128-bit bus pads the final beat
	ts := uint64(1)
	pkt = chdr.BuildDataPacket(128, 0, 0, false, &ts, []uint64{20, 21, 22})
	assert.Len(t, pkt, 3)
	assert.Equal(t, []uint64{22, 0}, pkt[2].Data)
}

func TestFrameClone(t *testing.T) {
	f := defn.Frame{Data: []uint64{1, 2}, Last: true}
	g := f.Clone()
	g.Data[0] = 99
	assert.Equal(t, uint64(1), f.Data[0])
	assert.True(t, g.Last)
	assert.Equal(t, 2, f.Words())
}
