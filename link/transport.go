/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"sync/atomic"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
)

// transport provides an interface for transports for specific link types
type transport interface {
	String() string
	setLinkID(linkID uint64)
	setEngine(engine *FlowControlEngine)

	RemoteURI() *defn.URI
	LocalURI() *defn.URI
	MTU() int
	SetMTU(mtu int)
	State() defn.State

	GetSendQueueSize() uint64

	runReceive()

	sendFrame([]byte)

	changeState(newState defn.State)

	Close()

	// Counters
	NInBytes() uint64
	NOutBytes() uint64
}

// transportBase provides logic common between transport types
type transportBase struct {
	engine *FlowControlEngine

	linkID    uint64
	remoteURI *defn.URI
	localURI  *defn.URI
	mtu       int

	state defn.State

	decoder *wireDecoder

	hasQuit chan bool

	// Counters
	nInBytes  atomic.Uint64
	nOutBytes atomic.Uint64
}

func (t *transportBase) makeTransportBase(remoteURI *defn.URI, localURI *defn.URI, mtu int) {
	t.remoteURI = remoteURI
	t.localURI = localURI
	t.state = defn.Down
	t.mtu = mtu
	t.hasQuit = make(chan bool, 2)
}

func (t *transportBase) setLinkID(linkID uint64) {
	t.linkID = linkID
}

func (t *transportBase) setEngine(engine *FlowControlEngine) {
	t.engine = engine
	t.decoder = newWireDecoder(engine.handleIncomingFrame, engine.handleNFC)
}

// deliver decodes one received wire record and hands it to the engine.
func (t *transportBase) deliver(record []byte) {
	if t.decoder == nil {
		return
	}
	if err := t.decoder.decode(record); err != nil {
		core.LogWarn(t, "Unable to decode received record: ", err, " - DROP")
	}
}

//
// Getters
//

// LocalURI returns the local URI of the transport.
func (t *transportBase) LocalURI() *defn.URI {
	return t.localURI
}

// RemoteURI returns the remote URI of the transport.
func (t *transportBase) RemoteURI() *defn.URI {
	return t.remoteURI
}

// MTU returns the maximum transmission unit (MTU) of the transport.
func (t *transportBase) MTU() int {
	return t.mtu
}

// SetMTU sets the MTU of the transport.
func (t *transportBase) SetMTU(mtu int) {
	t.mtu = mtu
}

// State returns the state of the transport.
func (t *transportBase) State() defn.State {
	return t.state
}

//
// Counters
//

// NInBytes returns the number of link-layer bytes received on this transport.
func (t *transportBase) NInBytes() uint64 {
	return t.nInBytes.Load()
}

// NOutBytes returns the number of link-layer bytes sent on this transport.
func (t *transportBase) NOutBytes() uint64 {
	return t.nOutBytes.Load()
}

//
// Stubs
//

func (t *transportBase) runReceive() {
	// Overridden in specific transport implementation
}

func (t *transportBase) sendFrame(frame []byte) {
	// Overridden in specific transport implementation

	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *transportBase) GetSendQueueSize() uint64 {
	// Overridden in specific transport implementation
	return 0
}

func (t *transportBase) Close() {
	// Overridden in specific transport implementation
}
