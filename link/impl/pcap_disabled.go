//go:build !windows && !cgo

/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package impl

import (
	"errors"

	"github.com/gu-peter/aurora-link/core"
)

// OpenPcap returns an error on unsupported platform.
func OpenPcap(device, bpfFilter string) (PcapHandle, error) {
	core.LogError("Link-Pcap", "PCAP not supported on this platform")
	return nil, errors.New("pcap not supported on this platform")
}
