/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
)

// WebSocketListenerConfig contains WebSocketListener configuration.
type WebSocketListenerConfig struct {
	Bind       string
	Port       uint16
	TLSEnabled bool
	TLSCert    string
	TLSKey     string
}

// WebSocketListener listens for incoming WebSocket connections.
type WebSocketListener struct {
	server   http.Server
	upgrader websocket.Upgrader
	localURI *defn.URI
	conf     FlowControlConfig
}

func (cfg WebSocketListenerConfig) URL() *url.URL {
	addr := net.JoinHostPort(cfg.Bind, strconv.FormatUint(uint64(cfg.Port), 10))
	u := &url.URL{
		Scheme: "ws",
		Host:   addr,
	}
	if cfg.TLSEnabled {
		u.Scheme = "wss"
	}
	return u
}

func (cfg WebSocketListenerConfig) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "WebSocket listener at %s", cfg.URL())
	if cfg.TLSEnabled {
		fmt.Fprintf(&b, " with TLS cert %s and key %s", cfg.TLSCert, cfg.TLSKey)
	}
	return b.String()
}

// NewWebSocketListener constructs a WebSocketListener. Accepted connections
// become flow-controlled links with the given configuration.
func NewWebSocketListener(cfg WebSocketListenerConfig, conf FlowControlConfig) (*WebSocketListener, error) {
	conf, err := conf.Validate()
	if err != nil {
		return nil, err
	}

	localURI := cfg.URL()
	ret := &WebSocketListener{
		server: http.Server{Addr: localURI.Host},
		upgrader: websocket.Upgrader{
			WriteBufferPool: &sync.Pool{},
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		localURI: defn.MakeWebSocketURI(cfg.Bind, cfg.Port),
		conf:     conf,
	}
	if cfg.TLSEnabled {
		cert, e := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if e != nil {
			return nil, fmt.Errorf("tls.LoadX509KeyPair(%s %s): %w", cfg.TLSCert, cfg.TLSKey, e)
		}
		ret.server.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}
	return ret, nil
}

func (l *WebSocketListener) String() string {
	return "WebSocketListener, " + l.localURI.String()
}

func (l *WebSocketListener) Run() {
	l.server.Handler = http.HandlerFunc(l.handler)

	var err error
	if l.server.TLSConfig == nil {
		err = l.server.ListenAndServe()
	} else {
		err = l.server.ListenAndServeTLS("", "")
	}
	if !errors.Is(err, http.ErrServerClosed) {
		core.LogFatal(l, "Unable to start listener: ", err)
	}
}

func (l *WebSocketListener) handler(w http.ResponseWriter, r *http.Request) {
	c, e := l.upgrader.Upgrade(w, r, nil)
	if e != nil {
		return
	}

	newTransport := NewWebSocketTransport(l.localURI, c)
	core.LogInfo(l, "Accepting new WebSocket link ", newTransport.RemoteURI())

	engine, err := MakeFlowControlEngine(newTransport, l.conf, nil)
	if err != nil {
		core.LogError(l, "Failed to create flow-control engine: ", err)
		return
	}
	LinkTable.Add(engine)
	go engine.Run()
}

func (l *WebSocketListener) Close() {
	core.LogInfo(l, "Stopping listener")
	l.server.Shutdown(context.TODO())
}
