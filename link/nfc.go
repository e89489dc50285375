/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import "strconv"

// Native flow control (NFC) message constants. The wire encoding is 16 bits:
// 7 reserved bits, 1 stop-mode bit, and an 8-bit pause field counting link
// cycles. In stop mode the pause field is NFCStopPause (XOFF) or
// NFCResumePause (XON).
const (
	NFCStopPause   uint8 = 0xFF
	NFCResumePause uint8 = 0x00

	nfcStopModeBit uint16 = 1 << 8
	nfcPauseMask   uint16 = 0xFF
)

// NFCMessage is a native flow control message sent over the link side channel.
type NFCMessage struct {
	// StopMode distinguishes explicit stop/resume signaling from timed pauses.
	StopMode bool
	// Pause is the pause duration in link cycles, or the XOFF/XON code in
	// stop mode.
	Pause uint8
}

// NFCPause creates a timed pause message for the given number of link cycles.
// The remote sender resumes on its own once the count elapses.
func NFCPause(cycles uint8) NFCMessage {
	return NFCMessage{StopMode: false, Pause: cycles}
}

// NFCStop creates a stop (XOFF) message. The remote sender stays paused until
// it receives a resume.
func NFCStop() NFCMessage {
	return NFCMessage{StopMode: true, Pause: NFCStopPause}
}

// NFCResume creates a resume (XON) message.
func NFCResume() NFCMessage {
	return NFCMessage{StopMode: true, Pause: NFCResumePause}
}

// IsStop returns whether the message halts the remote sender indefinitely.
func (m NFCMessage) IsStop() bool {
	return m.StopMode && m.Pause == NFCStopPause
}

// IsResume returns whether the message resumes a stopped remote sender.
func (m NFCMessage) IsResume() bool {
	return m.StopMode && m.Pause == NFCResumePause
}

// Encode encodes the message into its 16-bit wire form.
func (m NFCMessage) Encode() uint16 {
	raw := uint16(m.Pause)
	if m.StopMode {
		raw |= nfcStopModeBit
	}
	return raw
}

// DecodeNFCMessage decodes a 16-bit wire message. Reserved bits are ignored.
func DecodeNFCMessage(raw uint16) NFCMessage {
	return NFCMessage{
		StopMode: raw&nfcStopModeBit != 0,
		Pause:    uint8(raw & nfcPauseMask),
	}
}

func (m NFCMessage) String() string {
	if m.IsStop() {
		return "NFC(Stop)"
	}
	if m.IsResume() {
		return "NFC(Resume)"
	}
	return "NFC(Pause=" + strconv.FormatUint(uint64(m.Pause), 10) + ")"
}
