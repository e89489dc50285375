/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"errors"
	"net"
	"runtime"
	"strconv"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
	"github.com/gu-peter/aurora-link/link/impl"
)

// UnicastTCPTransport is a unicast TCP transport.
type UnicastTCPTransport struct {
	dialer     *net.Dialer
	conn       *net.TCPConn
	localAddr  net.TCPAddr
	remoteAddr net.TCPAddr
	transportBase
}

// MakeUnicastTCPTransport creates a new unicast TCP transport connected to
// the remote endpoint.
func MakeUnicastTCPTransport(remoteURI *defn.URI, localURI *defn.URI) (*UnicastTCPTransport, error) {
	// Validate URIs
	if !remoteURI.IsCanonical() ||
		(remoteURI.Scheme() != "tcp4" && remoteURI.Scheme() != "tcp6") ||
		(localURI != nil && !localURI.IsCanonical()) ||
		(localURI != nil && remoteURI.Scheme() != localURI.Scheme()) {
		return nil, core.ErrNotCanonical
	}

	t := new(UnicastTCPTransport)
	t.makeTransportBase(remoteURI, localURI, maxRecordSize)

	// Set local and remote addresses
	if localURI != nil {
		t.localAddr.IP = net.ParseIP(localURI.Path())
		t.localAddr.Port = int(localURI.Port())
	} else {
		t.localAddr.Port = int(TCPUnicastPort)
	}
	t.remoteAddr.IP = net.ParseIP(remoteURI.Path())
	t.remoteAddr.Port = int(remoteURI.Port())

	// Attempt to "dial" remote URI
	var err error
	// Configure dialer so we can allow address reuse
	t.dialer = &net.Dialer{LocalAddr: &t.localAddr, Control: impl.SyscallReuseAddr}
	conn, err := t.dialer.Dial(t.remoteURI.Scheme(), net.JoinHostPort(t.remoteURI.Path(), strconv.Itoa(int(t.remoteURI.Port()))))
	if err != nil {
		return nil, errors.New("Unable to connect to remote endpoint: " + err.Error())
	}
	t.conn = conn.(*net.TCPConn)

	if localURI == nil {
		t.localAddr = *t.conn.LocalAddr().(*net.TCPAddr)
		t.localURI = defn.DecodeURIString("tcp://" + t.localAddr.String())
		t.localURI.Canonize()
	}

	t.changeState(defn.Up)
	return t, nil
}

// AcceptUnicastTCPTransport wraps an accepted TCP connection from a remote
// endpoint.
func AcceptUnicastTCPTransport(remoteConn net.Conn, localURI *defn.URI) (*UnicastTCPTransport, error) {
	tcpConn, ok := remoteConn.(*net.TCPConn)
	if !ok {
		return nil, errors.New("connection is not a TCP connection")
	}

	remoteURI := defn.DecodeURIString("tcp://" + remoteConn.RemoteAddr().String())
	if err := remoteURI.Canonize(); err != nil {
		return nil, core.ErrNotCanonical
	}

	t := new(UnicastTCPTransport)
	t.makeTransportBase(remoteURI, localURI, maxRecordSize)
	t.conn = tcpConn
	t.remoteAddr = *tcpConn.RemoteAddr().(*net.TCPAddr)
	t.localAddr = *tcpConn.LocalAddr().(*net.TCPAddr)

	t.changeState(defn.Up)
	return t, nil
}

func (t *UnicastTCPTransport) String() string {
	return "UnicastTCPTransport, LinkID=" + strconv.FormatUint(t.linkID, 10) + ", RemoteURI=" + t.remoteURI.String() + ", LocalURI=" + t.localURI.String()
}

// GetSendQueueSize returns the current size of the send queue.
func (t *UnicastTCPTransport) GetSendQueueSize() uint64 {
	rawConn, err := t.conn.SyscallConn()
	if err != nil {
		core.LogWarn(t, "Unable to get raw connection to get socket length: ", err)
	}
	return impl.SyscallGetSocketSendQueueSize(rawConn)
}

func (t *UnicastTCPTransport) sendFrame(frame []byte) {
	if len(frame) > t.MTU() {
		core.LogWarn(t, "Attempted to send frame larger than MTU - DROP")
		return
	}

	core.LogTrace(t, "Sending record of size ", len(frame))
	_, err := t.conn.Write(prependStreamPrefix(frame))
	if err != nil {
		core.LogWarn(t, "Unable to send on socket - DROP and Link DOWN")
		t.changeState(defn.Down)
		return
	}
	t.nOutBytes.Add(uint64(streamLengthPrefix + len(frame)))
}

func (t *UnicastTCPTransport) runReceive() {
	core.LogTrace(t, "Starting receive thread")

	if lockThreadsToCores {
		runtime.LockOSThread()
	}

	err := readStreamTransport(t.conn, func(record []byte) {
		core.LogTrace(t, "Receive of size ", len(record))
		t.nInBytes.Add(uint64(streamLengthPrefix + len(record)))
		t.deliver(record)
	})
	if err != nil {
		core.LogWarn(t, "Unable to read from socket (", err, ") - Link DOWN")
	}
	t.changeState(defn.Down)
}

func (t *UnicastTCPTransport) changeState(new defn.State) {
	if t.state == new {
		return
	}

	core.LogInfo(t, "state: ", t.state, " -> ", new)
	t.state = new

	if t.state != defn.Up {
		core.LogInfo(t, "Closing TCP socket")
		t.hasQuit <- true
		t.conn.Close()

		if t.engine != nil {
			t.engine.Close()
		}
		LinkTable.Remove(t.linkID)
	}
}

func (t *UnicastTCPTransport) Close() {
	t.changeState(defn.Down)
}
