/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

// WordSize is the width of one data word in bits. CHDR widths are multiples of this.
const WordSize = 64

// MaxPacketWords is the default maximum number of bus words in one packet.
const MaxPacketWords = 1024

// Frame is one bus-width unit of data on the link, tagged with a last-word
// marker. A sequence of frames terminated by a frame with Last set forms one
// packet.
type Frame struct {
	// Data holds chdr_width/64 words, least-significant word first.
	Data []uint64
	// Last is set on the final frame of a packet.
	Last bool
}

// Words returns the number of 64-bit words in the frame.
func (f Frame) Words() int {
	return len(f.Data)
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	data := make([]uint64, len(f.Data))
	copy(data, f.Data)
	return Frame{Data: data, Last: f.Last}
}

// RxFrame is a frame received from the link together with the per-packet
// integrity verdict. IntegrityOK is meaningful only on frames with Last set;
// the wire codec guarantees the verdict is delivered on the same frame as the
// last-word marker and it is false on all other frames.
type RxFrame struct {
	Frame
	IntegrityOK bool
}
