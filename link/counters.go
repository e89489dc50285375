/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import "sync/atomic"

// Counters holds the monotonically increasing event counters of one link
// core. The counters are owned by the reporting layer; the engine only ever
// increments them on single events.
type Counters struct {
	// RxPackets counts packets received from the link, including packets
	// later dropped for integrity failures.
	RxPackets atomic.Uint64
	// TxPackets counts packets transmitted to the link.
	TxPackets atomic.Uint64
	// Overflow counts data words dropped because the receive buffer had no
	// free space. With flow control configured correctly this stays 0.
	Overflow atomic.Uint64
	// CRCErrors counts packets dropped due to an integrity-check failure.
	CRCErrors atomic.Uint64
}
