/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package chdr

import (
	"github.com/gu-peter/aurora-link/defn"
)

// BuildDataPacket constructs a data packet as a sequence of frames for the
// given bus width. When ts is non-nil the packet is typed DataTimestamped and
// carries the timestamp in the position appropriate for the bus width. The
// payload words are copied into the frames following the header framing.
// Intended for tests and traffic generators; production packets originate in
// the packet-processing domain.
func BuildDataPacket(chdrWidth int, vc int, seq uint16, eob bool, ts *uint64, payload []uint64) []defn.Frame {
	t := TypeData
	if ts != nil {
		t = TypeDataTimestamped
	}
	length := uint16(HeaderBytes(t, chdrWidth) + len(payload)*8)
	hdr := NewHeader(t, vc, seq, length, eob)

	wordsPerFrame := chdrWidth / defn.WordSize
	var words []uint64
	if chdrWidth == defn.WordSize {
		words = append(words, hdr)
		if ts != nil {
			words = append(words, *ts)
		}
		words = append(words, payload...)
	} else {
		first := make([]uint64, wordsPerFrame)
		first[0] = hdr
		if ts != nil {
			first[1] = *ts
		}
		words = append(words, first...)
		words = append(words, payload...)
		// Pad the final beat to a full bus word.
		for len(words)%wordsPerFrame != 0 {
			words = append(words, 0)
		}
	}

	nFrames := (len(words) + wordsPerFrame - 1) / wordsPerFrame
	pkt := make([]defn.Frame, 0, nFrames)
	for i := 0; i < len(words); i += wordsPerFrame {
		end := i + wordsPerFrame
		if end > len(words) {
			end = len(words)
		}
		data := make([]uint64, end-i)
		copy(data, words[i:end])
		pkt = append(pkt, defn.Frame{Data: data, Last: end == len(words)})
	}
	return pkt
}
