/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"runtime"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
)

// WebSocketTransport communicates over a WebSocket connection. Each message
// carries exactly one wire record, so no stream framing is needed.
type WebSocketTransport struct {
	transportBase
	c *websocket.Conn
}

var _ transport = &WebSocketTransport{}

// NewWebSocketTransport creates a WebSocket transport for an accepted
// connection.
func NewWebSocketTransport(localURI *defn.URI, c *websocket.Conn) (t *WebSocketTransport) {
	remoteURI := defn.DecodeURIString("ws://" + c.RemoteAddr().String())
	t = &WebSocketTransport{c: c}
	t.makeTransportBase(remoteURI, localURI, maxRecordSize)
	t.changeState(defn.Up)
	return t
}

func (t *WebSocketTransport) String() string {
	return "WebSocketTransport, LinkID=" + strconv.FormatUint(t.linkID, 10) + ", RemoteURI=" + t.remoteURI.String() + ", LocalURI=" + t.localURI.String()
}

// GetSendQueueSize returns the current size of the send queue.
func (t *WebSocketTransport) GetSendQueueSize() uint64 {
	return 0
}

func (t *WebSocketTransport) sendFrame(frame []byte) {
	if len(frame) > t.MTU() {
		core.LogWarn(t, "Attempted to send frame larger than MTU - DROP")
		return
	}

	core.LogTrace(t, "Sending record of size ", len(frame))
	e := t.c.WriteMessage(websocket.BinaryMessage, frame)
	if e != nil {
		core.LogWarn(t, "Unable to send on socket - DROP and Link DOWN")
		t.changeState(defn.Down)
		return
	}

	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *WebSocketTransport) runReceive() {
	core.LogTrace(t, "Starting receive thread")

	if lockThreadsToCores {
		runtime.LockOSThread()
	}

	for {
		mt, message, e := t.c.ReadMessage()
		if e != nil {
			core.LogWarn(t, "Unable to read from socket (", e, ") - DROP and Link DOWN")
			t.changeState(defn.Down)
			break
		}

		if mt != websocket.BinaryMessage {
			core.LogWarn(t, "Ignored non-binary message")
			continue
		}

		core.LogTrace(t, "Receive of size ", len(message))
		t.nInBytes.Add(uint64(len(message)))

		if len(message) > maxRecordSize {
			core.LogWarn(t, "Received record larger than maximum record size - DROP")
			continue
		}

		t.deliver(message)
	}
}

func (t *WebSocketTransport) changeState(new defn.State) {
	if t.state == new {
		return
	}

	core.LogInfo(t, "state: ", t.state, " -> ", new)
	t.state = new

	if t.state != defn.Up {
		core.LogInfo(t, "Closing WebSocket")
		t.hasQuit <- true
		t.c.Close()

		if t.engine != nil {
			t.engine.Close()
		}
		LinkTable.Remove(t.linkID)
	}
}

func (t *WebSocketTransport) Close() {
	t.changeState(defn.Down)
}
