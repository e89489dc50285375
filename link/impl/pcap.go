/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package impl

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// PcapHandle contains a subset of *pcap.Handle methods.
type PcapHandle interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
	WritePacketData(data []byte) error
	Close()
}
