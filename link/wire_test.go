/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"testing"

	"github.com/gu-peter/aurora-link/defn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireRoundtrip(t *testing.T) {
	enc := newWireEncoder()

	var frames []defn.RxFrame
	dec := newWireDecoder(func(rx defn.RxFrame) {
		frames = append(frames, rx)
	}, nil)

	pkt := []defn.Frame{
		{Data: []uint64{0x1111}},
		{Data: []uint64{0x2222}},
		{Data: []uint64{0x3333}, Last: true},
	}
	for _, frame := range pkt {
		require.NoError(t, dec.decode(enc.encodeFrame(frame)))
	}

	require.Len(t, frames, 3)
	for i, rx := range frames {
		assert.Equal(t, pkt[i].Data, rx.Data)
		assert.Equal(t, pkt[i].Last, rx.Last)
	}

	// The integrity verdict travels on the last frame only
	assert.False(t, frames[0].IntegrityOK)
	assert.False(t, frames[1].IntegrityOK)
	assert.True(t, frames[2].IntegrityOK)
}

func TestWireChecksumMismatch(t *testing.T) {
	enc := newWireEncoder()

	var frames []defn.RxFrame
	dec := newWireDecoder(func(rx defn.RxFrame) {
		frames = append(frames, rx)
	}, nil)

	require.NoError(t, dec.decode(enc.encodeFrame(defn.Frame{Data: []uint64{1}})))

	// Flip a payload bit on the last frame
	record := enc.encodeFrame(defn.Frame{Data: []uint64{2}, Last: true})
	record[3] ^= 0x01
	require.NoError(t, dec.decode(record))

	require.Len(t, frames, 2)
	assert.False(t, frames[1].IntegrityOK)

	// The decoder digest resets per packet, so the next packet is unaffected
	require.NoError(t, dec.decode(enc.encodeFrame(defn.Frame{Data: []uint64{3}, Last: true})))
	require.Len(t, frames, 3)
	assert.True(t, frames[2].IntegrityOK)
}

func TestWireMultiWordFrames(t *testing.T) {
	enc := newWireEncoder()

	var frames []defn.RxFrame
	dec := newWireDecoder(func(rx defn.RxFrame) {
		frames = append(frames, rx)
	}, nil)

	pkt := []defn.Frame{
		{Data: []uint64{1, 2, 3, 4}},
		{Data: []uint64{5, 6, 7, 8}, Last: true},
	}
	for _, frame := range pkt {
		require.NoError(t, dec.decode(enc.encodeFrame(frame)))
	}

	require.Len(t, frames, 2)
	assert.Equal(t, []uint64{1, 2, 3, 4}, frames[0].Data)
	assert.Equal(t, []uint64{5, 6, 7, 8}, frames[1].Data)
	assert.True(t, frames[1].IntegrityOK)
}

func TestWireNFCRecord(t *testing.T) {
	var msgs []NFCMessage
	dec := newWireDecoder(nil, func(msg NFCMessage) {
		msgs = append(msgs, msg)
	})

	require.NoError(t, dec.decode(encodeNFC(NFCStop())))
	require.NoError(t, dec.decode(encodeNFC(NFCResume())))
	require.NoError(t, dec.decode(encodeNFC(NFCPause(42))))

	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].IsStop())
	assert.True(t, msgs[1].IsResume())
	assert.False(t, msgs[2].StopMode)
	assert.Equal(t, uint8(42), msgs[2].Pause)
}

func TestWireMalformedRecords(t *testing.T) {
	dec := newWireDecoder(nil, nil)

	assert.ErrorIs(t, dec.decode([]byte{recData}), errShortRecord)
	assert.ErrorIs(t, dec.decode([]byte{recData, 0, 2, 0, 0}), errShortRecord)
	assert.ErrorIs(t, dec.decode([]byte{0x7F, 0, 0}), errBadRecordType)
}
