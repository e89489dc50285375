/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"sync"
	"sync/atomic"

	"github.com/gu-peter/aurora-link/defn"
)

// packetMeta is the control-metadata record emitted for every completed
// packet in the data FIFO. words counts the frames actually buffered for the
// packet (dropped words are not included); pass marks the packet for
// forwarding rather than discard.
type packetMeta struct {
	words int
	pass  bool
}

// frameFIFO is a bounded ring of frames. The free-space count is maintained
// atomically so the monitor process can observe occupancy without taking the
// lock.
type frameFIFO struct {
	mtx    sync.Mutex
	frames []defn.Frame
	head   int
	count  int
	free   atomic.Int64
}

func newFrameFIFO(capacity int) *frameFIFO {
	q := &frameFIFO{
		frames: make([]defn.Frame, capacity),
	}
	q.free.Store(int64(capacity))
	return q
}

// Push appends a frame. Returns false when the FIFO is full; the frame is not
// stored in that case.
func (q *frameFIFO) Push(frame defn.Frame) bool {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if q.count == len(q.frames) {
		return false
	}
	q.frames[(q.head+q.count)%len(q.frames)] = frame
	q.count++
	q.free.Add(-1)
	return true
}

// Pop removes and returns the oldest frame.
func (q *frameFIFO) Pop() (defn.Frame, bool) {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if q.count == 0 {
		return defn.Frame{}, false
	}
	frame := q.frames[q.head]
	q.frames[q.head] = defn.Frame{}
	q.head = (q.head + 1) % len(q.frames)
	q.count--
	q.free.Add(1)
	return frame, true
}

// Free returns the number of free frame slots.
func (q *frameFIFO) Free() int {
	return int(q.free.Load())
}

// Len returns the number of buffered frames.
func (q *frameFIFO) Len() int {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return q.count
}

// Cap returns the total capacity.
func (q *frameFIFO) Cap() int {
	return len(q.frames)
}
