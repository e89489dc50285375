/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tx

import (
	"sync"

	"github.com/gu-peter/aurora-link/core"
)

// timestampQueue is a bounded FIFO of absolute time values, one entry
// intended per burst. Single producer (the control interface), single
// consumer (the controller), plus an external bulk clear.
type timestampQueue struct {
	mtx      sync.Mutex
	entries  []uint64
	capacity int
}

func newTimestampQueue(capacity int) *timestampQueue {
	return &timestampQueue{
		entries:  make([]uint64, 0, capacity),
		capacity: capacity,
	}
}

// Enqueue appends one timestamp entry. Returns ErrQueueFull when the queue is
// at capacity.
func (q *timestampQueue) Enqueue(ts uint64) error {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if len(q.entries) >= q.capacity {
		return core.ErrQueueFull
	}
	q.entries = append(q.entries, ts)
	return nil
}

// pop removes and returns the oldest entry, if any.
func (q *timestampQueue) pop() (uint64, bool) {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	if len(q.entries) == 0 {
		return 0, false
	}
	ts := q.entries[0]
	q.entries = q.entries[1:]
	return ts, true
}

// Clear drains all entries, e.g. after an error recovery.
func (q *timestampQueue) Clear() {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	q.entries = q.entries[:0]
}

// Fullness returns the current number of entries.
func (q *timestampQueue) Fullness() int {
	q.mtx.Lock()
	defer q.mtx.Unlock()
	return len(q.entries)
}

// Size returns the queue capacity.
func (q *timestampQueue) Size() int {
	return q.capacity
}
