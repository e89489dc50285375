/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"strconv"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
)

// NullTransport is a transport that drops all frames.
type NullTransport struct {
	transportBase
}

// MakeNullTransport makes a NullTransport.
func MakeNullTransport() *NullTransport {
	t := new(NullTransport)
	t.makeTransportBase(defn.MakeNullURI(), defn.MakeNullURI(), maxRecordSize)
	t.changeState(defn.Up)
	return t
}

func (t *NullTransport) String() string {
	return "NullTransport, LinkID=" + strconv.FormatUint(t.linkID, 10) + ", RemoteURI=" + t.remoteURI.String() + ", LocalURI=" + t.localURI.String()
}

func (t *NullTransport) sendFrame(frame []byte) {
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *NullTransport) changeState(new defn.State) {
	if t.state == new {
		return
	}

	core.LogInfo(t, "state: ", t.state, " -> ", new)
	t.state = new

	if t.state != defn.Up {
		if t.engine != nil {
			t.engine.Close()
		}
		LinkTable.Remove(t.linkID)
	}
}

func (t *NullTransport) Close() {
	t.changeState(defn.Down)
}
