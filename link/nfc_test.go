/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link_test

import (
	"testing"

	"github.com/gu-peter/aurora-link/link"
	"github.com/stretchr/testify/assert"
)

func TestNFCStopResume(t *testing.T) {
	stop := link.NFCStop()
	assert.True(t, stop.IsStop())
	assert.False(t, stop.IsResume())
	assert.Equal(t, "NFC(Stop)", stop.String())

	resume := link.NFCResume()
	assert.True(t, resume.IsResume())
	assert.False(t, resume.IsStop())
	assert.Equal(t, "NFC(Resume)", resume.String())
}

func TestNFCPause(t *testing.T) {
	pause := link.NFCPause(100)
	assert.False(t, pause.IsStop())
	assert.False(t, pause.IsResume())
	assert.Equal(t, uint8(100), pause.Pause)
	assert.Equal(t, "NFC(Pause=100)", pause.String())

	// A timed pause of 0xFF cycles is not a stop; the stop-mode bit decides
	pause = link.NFCPause(0xFF)
	assert.False(t, pause.IsStop())
}

func TestNFCEncoding(t *testing.T) {
	assert.Equal(t, uint16(0x01FF), link.NFCStop().Encode())
	assert.Equal(t, uint16(0x0100), link.NFCResume().Encode())
	assert.Equal(t, uint16(0x0064), link.NFCPause(100).Encode())

	for _, msg := range []link.NFCMessage{link.NFCStop(), link.NFCResume(), link.NFCPause(17)} {
		assert.Equal(t, msg, link.DecodeNFCMessage(msg.Encode()))
	}

	// Reserved bits are ignored on decode
	msg := link.DecodeNFCMessage(0xFE00 | link.NFCStop().Encode())
	assert.True(t, msg.IsStop())
}
