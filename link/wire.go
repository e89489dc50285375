/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"encoding/binary"
	"errors"
	"hash"

	"github.com/cespare/xxhash"
	"github.com/gu-peter/aurora-link/defn"
)

// Wire record types. Every transport payload is one record: either a data
// frame or an NFC side-channel message.
const (
	recData byte = 0x0
	recNFC  byte = 0x1
)

const frameFlagLast byte = 0x1

// maxRecordSize bounds one wire record: header, up to 255 words, checksum.
const maxRecordSize = 3 + 255*8 + 8

var errShortRecord = errors.New("wire record too short")
var errBadRecordType = errors.New("unknown wire record type")

// wireEncoder encodes frames for transmission, accumulating a per-packet
// checksum that is carried on the last frame of each packet. The remote
// decoder recomputes it to produce the integrity verdict.
type wireEncoder struct {
	digest hash.Hash64
}

func newWireEncoder() *wireEncoder {
	return &wireEncoder{digest: xxhash.New()}
}

// encodeFrame encodes one data frame record.
// Layout: type(1) flags(1) words(1) payload(8*words) [checksum(8) when last].
func (enc *wireEncoder) encodeFrame(frame defn.Frame) []byte {
	record := make([]byte, 3, 3+len(frame.Data)*8+8)
	record[0] = recData
	if frame.Last {
		record[1] |= frameFlagLast
	}
	record[2] = byte(len(frame.Data))

	var word [8]byte
	for _, w := range frame.Data {
		binary.LittleEndian.PutUint64(word[:], w)
		enc.digest.Write(word[:])
		record = append(record, word[:]...)
	}

	if frame.Last {
		binary.LittleEndian.PutUint64(word[:], enc.digest.Sum64())
		record = append(record, word[:]...)
		enc.digest.Reset()
	}
	return record
}

// encodeNFC encodes one NFC message record.
func encodeNFC(msg NFCMessage) []byte {
	record := make([]byte, 3)
	record[0] = recNFC
	binary.LittleEndian.PutUint16(record[1:], msg.Encode())
	return record
}

// wireDecoder decodes wire records, recomputing the per-packet checksum to
// derive the integrity verdict delivered with each last frame. The verdict is
// produced on the same record as the last-word marker; it is never valid on
// any other frame.
type wireDecoder struct {
	digest  hash.Hash64
	onFrame func(defn.RxFrame)
	onNFC   func(NFCMessage)
}

func newWireDecoder(onFrame func(defn.RxFrame), onNFC func(NFCMessage)) *wireDecoder {
	return &wireDecoder{
		digest:  xxhash.New(),
		onFrame: onFrame,
		onNFC:   onNFC,
	}
}

// decode processes one wire record.
func (dec *wireDecoder) decode(record []byte) error {
	if len(record) < 3 {
		return errShortRecord
	}

	switch record[0] {
	case recNFC:
		if dec.onNFC != nil {
			dec.onNFC(DecodeNFCMessage(binary.LittleEndian.Uint16(record[1:])))
		}
		return nil
	case recData:
		last := record[1]&frameFlagLast != 0
		words := int(record[2])
		need := 3 + words*8
		if last {
			need += 8
		}
		if len(record) < need {
			return errShortRecord
		}

		frame := defn.Frame{Data: make([]uint64, words), Last: last}
		for i := 0; i < words; i++ {
			frame.Data[i] = binary.LittleEndian.Uint64(record[3+i*8:])
			dec.digest.Write(record[3+i*8 : 3+i*8+8])
		}

		integrityOK := false
		if last {
			carried := binary.LittleEndian.Uint64(record[3+words*8:])
			integrityOK = carried == dec.digest.Sum64()
			dec.digest.Reset()
		}

		if dec.onFrame != nil {
			dec.onFrame(defn.RxFrame{Frame: frame, IntegrityOK: integrityOK})
		}
		return nil
	default:
		return errBadRecordType
	}
}
