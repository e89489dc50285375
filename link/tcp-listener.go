/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
	"github.com/gu-peter/aurora-link/link/impl"
)

// TCPListener listens for incoming TCP unicast connections.
type TCPListener struct {
	conn     net.Listener
	localURI *defn.URI
	conf     FlowControlConfig
	stopped  chan bool
}

// MakeTCPListener constructs a TCPListener. Accepted connections become
// flow-controlled links with the given configuration.
func MakeTCPListener(localURI *defn.URI, conf FlowControlConfig) (*TCPListener, error) {
	localURI.Canonize()
	if !localURI.IsCanonical() || (localURI.Scheme() != "tcp4" && localURI.Scheme() != "tcp6") {
		return nil, core.ErrNotCanonical
	}

	conf, err := conf.Validate()
	if err != nil {
		return nil, err
	}

	l := new(TCPListener)
	l.localURI = localURI
	l.conf = conf
	l.stopped = make(chan bool, 1)
	return l, nil
}

func (l *TCPListener) String() string {
	return fmt.Sprintf("TCPListener, %s", l.localURI)
}

func (l *TCPListener) Run() {
	defer func() { l.stopped <- true }()

	// Create listener and set reuse address option
	listenConfig := &net.ListenConfig{Control: impl.SyscallReuseAddr}

	var local string
	if l.localURI.Scheme() == "tcp4" {
		local = fmt.Sprintf("%s:%d", l.localURI.PathHost(), l.localURI.Port())
	} else {
		local = fmt.Sprintf("[%s]:%d", l.localURI.Path(), l.localURI.Port())
	}

	// Start listening for incoming connections
	var err error
	l.conn, err = listenConfig.Listen(context.Background(), l.localURI.Scheme(), local)
	if err != nil {
		core.LogError(l, "Unable to start TCP listener: ", err)
		return
	}

	// Run accept loop
	for !core.ShouldQuit {
		remoteConn, err := l.conn.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			core.LogWarn(l, "Unable to accept connection: ", err)
			continue
		}

		newTransport, err := AcceptUnicastTCPTransport(remoteConn, l.localURI)
		if err != nil {
			core.LogError(l, "Failed to create new unicast TCP transport: ", err)
			continue
		}

		core.LogInfo(l, "Accepting new TCP link ", newTransport.RemoteURI())
		engine, err := MakeFlowControlEngine(newTransport, l.conf, nil)
		if err != nil {
			core.LogError(l, "Failed to create flow-control engine: ", err)
			continue
		}
		LinkTable.Add(engine)
		go engine.Run()
	}
}

func (l *TCPListener) Close() {
	if l.conn != nil {
		l.conn.Close()
		<-l.stopped
	}
}
