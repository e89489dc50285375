/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package chdr provides read/write access to the CHDR packet header fields
// consumed by the link core: packet type, end-of-burst flag, payload length,
// and the timestamp of timed data packets. The full header format is owned by
// the packet-processing domain; nothing here constructs or validates whole
// packets beyond these fields.
package chdr

import (
	"github.com/gu-peter/aurora-link/defn"
)

// PacketType is the CHDR packet type field.
type PacketType uint8

// CHDR packet types.
const (
	TypeManagement      PacketType = 0x0
	TypeStreamStatus    PacketType = 0x1
	TypeStreamCommand   PacketType = 0x2
	TypeControl         PacketType = 0x4
	TypeData            PacketType = 0x6
	TypeDataTimestamped PacketType = 0x7
)

func (t PacketType) String() string {
	switch t {
	case TypeManagement:
		return "Management"
	case TypeStreamStatus:
		return "StreamStatus"
	case TypeStreamCommand:
		return "StreamCommand"
	case TypeControl:
		return "Control"
	case TypeData:
		return "Data"
	case TypeDataTimestamped:
		return "DataTimestamped"
	default:
		return "Unknown"
	}
}

// IsData returns whether the packet type carries stream data.
func (t PacketType) IsData() bool {
	return t == TypeData || t == TypeDataTimestamped
}

// Header field positions within the first 64-bit word.
const (
	vcPos     = 58
	vcMask    = 0x3F
	eobPos    = 57
	eovPos    = 56
	typePos   = 53
	typeMask  = 0x7
	nmdataPos = 48
	nmdataMsk = 0x1F
	seqPos    = 32
	seqMask   = 0xFFFF
	lenPos    = 16
	lenMask   = 0xFFFF
	epidMask  = 0xFFFF
)

// Type returns the packet type field of the header word.
func Type(hdr uint64) PacketType {
	return PacketType((hdr >> typePos) & typeMask)
}

// SetType overwrites the packet type field of the header word.
func SetType(hdr uint64, t PacketType) uint64 {
	return (hdr &^ (uint64(typeMask) << typePos)) | (uint64(t&typeMask) << typePos)
}

// EndOfBurst returns the end-of-burst flag of the header word.
func EndOfBurst(hdr uint64) bool {
	return hdr&(1<<eobPos) != 0
}

// SetEndOfBurst overwrites the end-of-burst flag of the header word.
func SetEndOfBurst(hdr uint64, eob bool) uint64 {
	if eob {
		return hdr | (1 << eobPos)
	}
	return hdr &^ (1 << eobPos)
}

// VirtChan returns the virtual channel field of the header word.
func VirtChan(hdr uint64) int {
	return int((hdr >> vcPos) & vcMask)
}

// SetVirtChan overwrites the virtual channel field of the header word.
func SetVirtChan(hdr uint64, vc int) uint64 {
	return (hdr &^ (uint64(vcMask) << vcPos)) | (uint64(vc)&vcMask)<<vcPos
}

// SeqNum returns the sequence number field of the header word.
func SeqNum(hdr uint64) uint16 {
	return uint16((hdr >> seqPos) & seqMask)
}

// Length returns the packet length field (in bytes, including the header) of
// the header word.
func Length(hdr uint64) uint16 {
	return uint16((hdr >> lenPos) & lenMask)
}

// SetLength overwrites the packet length field of the header word.
func SetLength(hdr uint64, length uint16) uint64 {
	return (hdr &^ (uint64(lenMask) << lenPos)) | (uint64(length) << lenPos)
}

// DstEPID returns the destination endpoint ID field of the header word.
func DstEPID(hdr uint64) uint16 {
	return uint16(hdr & epidMask)
}

// NewHeader builds a header word from its fields.
func NewHeader(t PacketType, vc int, seq uint16, length uint16, eob bool) uint64 {
	hdr := uint64(t&typeMask) << typePos
	hdr |= (uint64(vc) & vcMask) << vcPos
	hdr |= uint64(seq) << seqPos
	hdr |= uint64(length) << lenPos
	return SetEndOfBurst(hdr, eob)
}

// HeaderBytes returns the number of bytes consumed by the header (and, for
// timed packets, the timestamp) before the payload starts. For a 64-bit bus
// the header and timestamp occupy one word each; for wider buses the first
// bus word holds both and the payload starts on the next word.
func HeaderBytes(t PacketType, chdrWidth int) int {
	if chdrWidth == defn.WordSize {
		if t == TypeDataTimestamped {
			return 16
		}
		return 8
	}
	return chdrWidth / 8
}

// PayloadItemCount derives the number of payload items in a packet from its
// length field, correcting for the header/timestamp framing of the given bus
// width. itemSize is the size of one item in bytes.
func PayloadItemCount(hdr uint64, chdrWidth int, itemSize int) uint64 {
	length := int(Length(hdr))
	overhead := HeaderBytes(Type(hdr), chdrWidth)
	if length <= overhead || itemSize <= 0 {
		return 0
	}
	return uint64((length - overhead) / itemSize)
}

// Timestamp returns the timestamp of a timed data packet, or false when the
// packet is not timestamp-bearing or too short to carry one.
func Timestamp(pkt []defn.Frame, chdrWidth int) (uint64, bool) {
	if len(pkt) == 0 || Type(pkt[0].Data[0]) != TypeDataTimestamped {
		return 0, false
	}
	if chdrWidth == defn.WordSize {
		if len(pkt) < 2 {
			return 0, false
		}
		return pkt[1].Data[0], true
	}
	if len(pkt[0].Data) < 2 {
		return 0, false
	}
	return pkt[0].Data[1], true
}

// SetTimestamp overwrites the timestamp of a timed data packet in place.
// Returns false when the packet cannot carry a timestamp.
func SetTimestamp(pkt []defn.Frame, chdrWidth int, ts uint64) bool {
	if len(pkt) == 0 || Type(pkt[0].Data[0]) != TypeDataTimestamped {
		return false
	}
	if chdrWidth == defn.WordSize {
		if len(pkt) < 2 {
			return false
		}
		pkt[1].Data[0] = ts
		return true
	}
	if len(pkt[0].Data) < 2 {
		return false
	}
	pkt[0].Data[1] = ts
	return true
}
