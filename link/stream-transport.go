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
	"io"

	"github.com/zjkmxy/stealthpool"
)

// Stream transports carry wire records with a 2-byte little-endian length
// prefix, since TCP provides no message boundaries.
const streamLengthPrefix = 2

const streamPoolBlockCnt = 64
const streamPoolBlockSize = maxRecordSize * 32

// streamPool supplies receive buffers to all stream transports. Allocated off
// the Go heap to keep the per-connection buffers out of GC scans.
var streamPool *stealthpool.Pool

func init() {
	var err error
	streamPool, err = stealthpool.New(streamPoolBlockCnt, stealthpool.WithBlockSize(streamPoolBlockSize))
	if err != nil {
		// Fall back to heap allocation in readStreamTransport.
		streamPool = nil
	}
}

// getStreamRecvBuf returns a receive buffer and a function returning it to
// the pool.
func getStreamRecvBuf() ([]byte, func()) {
	if streamPool != nil {
		if buf, err := streamPool.Get(); err == nil {
			return buf[:streamPoolBlockSize], func() { streamPool.Return(buf) }
		}
	}
	return make([]byte, streamPoolBlockSize), func() {}
}

// readStreamTransport reads length-prefixed wire records from a byte stream
// and hands each complete record to recordCb. Returns on read error or when
// an oversized record indicates stream corruption.
func readStreamTransport(reader io.Reader, recordCb func([]byte)) error {
	recvBuf, release := getStreamRecvBuf()
	defer release()

	recvOff := 0
	recOff := 0

	for {
		readSize, err := reader.Read(recvBuf[recvOff:])
		recvOff += readSize
		if err != nil {
			return err
		}

		// Deliver every complete record in the buffer
		for {
			if recvOff-recOff < streamLengthPrefix {
				// Incomplete length prefix
				break
			}

			recordSize := int(binary.LittleEndian.Uint16(recvBuf[recOff:]))
			if recordSize > maxRecordSize {
				return errors.New("received record larger than maximum record size")
			}

			if recvOff-recOff >= streamLengthPrefix+recordSize {
				recordCb(recvBuf[recOff+streamLengthPrefix : recOff+streamLengthPrefix+recordSize])
				recOff += streamLengthPrefix + recordSize
			} else {
				// Incomplete record
				break
			}
		}

		// If less than one record of space remains in buffer, shift to beginning
		if len(recvBuf)-recvOff < streamLengthPrefix+maxRecordSize {
			copy(recvBuf, recvBuf[recOff:recvOff])
			recvOff -= recOff
			recOff = 0
		}
	}
}

// prependStreamPrefix wraps one wire record with the stream length prefix.
func prependStreamPrefix(record []byte) []byte {
	out := make([]byte, streamLengthPrefix+len(record))
	binary.LittleEndian.PutUint16(out, uint16(len(record)))
	copy(out[streamLengthPrefix:], record)
	return out
}
