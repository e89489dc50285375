/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import "github.com/gu-peter/aurora-link/core"

// linkQueueSize is the maximum number of frames that can be buffered to be
// sent or received on a link.
var linkQueueSize int

// AuroraEtherType is the EtherType used for Aurora frames on raw Ethernet
// links. Derived from the block's NoC identifier.
var AuroraEtherType int

// TCPUnicastPort is the default TCP port for Aurora link endpoints.
var TCPUnicastPort uint16

// WebSocketPort is the default WebSocket port for Aurora link endpoints.
var WebSocketPort uint16

// ChdrWidth is the configured CHDR bus width in bits.
var ChdrWidth int

// ItemSize is the size of one payload item in bytes, used for timestamp
// increment derivation.
var ItemSize int

// lockThreadsToCores determines whether receive threads will be locked to
// logical cores.
var lockThreadsToCores bool

// Configure configures the link system.
func Configure() {
	linkQueueSize = core.GetConfigIntDefault("link.queue_size", 1024)
	AuroraEtherType = core.GetConfigIntDefault("link.ethernet.ethertype", 0xA404)
	TCPUnicastPort = core.GetConfigUint16Default("link.tcp.port_unicast", 41988)
	WebSocketPort = core.GetConfigUint16Default("link.websocket.port", 41989)
	ChdrWidth = core.GetConfigIntDefault("link.chdr_width", 64)
	ItemSize = core.GetConfigIntDefault("link.item_size", 4)
	lockThreadsToCores = core.GetConfigBoolDefault("link.lock_threads_to_cores", false)
}

func init() {
	// Usable defaults when running without a configuration file (tests).
	linkQueueSize = 1024
	AuroraEtherType = 0xA404
	TCPUnicastPort = 41988
	WebSocketPort = 41989
	ChdrWidth = 64
	ItemSize = 4
}
