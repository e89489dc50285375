/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

import (
	"errors"
	"net"
	"strconv"
	"strings"
)

// uriType represents the type of the URI.
type uriType int

const (
	nullURI  uriType = iota
	tcpURI   uriType = iota
	wsURI    uriType = iota
	devURI   uriType = iota
	etherURI uriType = iota
)

// URI represents a URI for a link endpoint.
type URI struct {
	uriType uriType
	scheme  string
	path    string
	port    uint16
}

// MakeNullURI constructs an empty link URI.
func MakeNullURI() *URI {
	return &URI{nullURI, "null", "", 0}
}

// MakeTCPURI constructs a URI for a TCP link endpoint.
func MakeTCPURI(ipVersion int, host string, port uint16) *URI {
	return &URI{tcpURI, "tcp" + strconv.Itoa(ipVersion), host, port}
}

// MakeWebSocketURI constructs a URI for a WebSocket link endpoint.
func MakeWebSocketURI(host string, port uint16) *URI {
	return &URI{wsURI, "ws", host, port}
}

// MakeDevURI constructs a URI for a network-interface link endpoint.
func MakeDevURI(ifname string) *URI {
	return &URI{devURI, "dev", ifname, 0}
}

// MakeEtherURI constructs a URI for an Ethernet MAC address.
func MakeEtherURI(mac string) *URI {
	return &URI{etherURI, "ether", strings.ToLower(mac), 0}
}

// DecodeURIString decodes a URI from a string.
func DecodeURIString(str string) *URI {
	u := MakeNullURI()
	schemeSplit := strings.SplitN(str, "://", 2)
	if len(schemeSplit) != 2 {
		return u
	}
	scheme := schemeSplit[0]
	rest := schemeSplit[1]

	switch scheme {
	case "null":
		return u
	case "dev":
		return MakeDevURI(rest)
	case "ether":
		return MakeEtherURI(rest)
	case "tcp", "tcp4", "tcp6", "ws":
		host, portStr, err := net.SplitHostPort(rest)
		if err != nil {
			return u
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return u
		}
		if scheme == "ws" {
			return MakeWebSocketURI(host, uint16(port))
		}
		version := 4
		ip := net.ParseIP(host)
		if ip != nil && ip.To4() == nil {
			version = 6
		}
		return MakeTCPURI(version, host, uint16(port))
	}
	return u
}

// Scheme returns the scheme of the URI.
func (u *URI) Scheme() string {
	return u.scheme
}

// Path returns the path of the URI.
func (u *URI) Path() string {
	return u.path
}

// PathHost returns the host component of the URI path.
func (u *URI) PathHost() string {
	return u.path
}

// Port returns the port of the URI.
func (u *URI) Port() uint16 {
	return u.port
}

// IsCanonical returns whether the URI is canonical.
func (u *URI) IsCanonical() bool {
	switch u.uriType {
	case nullURI:
		return u.scheme == "null" && u.path == "" && u.port == 0
	case tcpURI:
		ip := net.ParseIP(u.path)
		return ip != nil &&
			((u.scheme == "tcp4" && ip.To4() != nil) || (u.scheme == "tcp6" && ip.To16() != nil)) &&
			u.port > 0
	case wsURI:
		return u.scheme == "ws" && u.path != "" && u.port > 0
	case devURI:
		_, err := net.InterfaceByName(u.path)
		return u.scheme == "dev" && err == nil && u.port == 0
	case etherURI:
		mac, err := net.ParseMAC(u.path)
		return u.scheme == "ether" && err == nil && u.path == strings.ToLower(mac.String()) && u.port == 0
	default:
		return false
	}
}

// Canonize attempts to canonize the URI, if not already canonical.
func (u *URI) Canonize() error {
	if u.IsCanonical() {
		return nil
	}
	if u.uriType == etherURI {
		mac, err := net.ParseMAC(u.path)
		if err == nil {
			u.path = strings.ToLower(mac.String())
			if u.IsCanonical() {
				return nil
			}
		}
	}
	if u.uriType == tcpURI {
		ip := net.ParseIP(strings.Trim(u.path, "[]"))
		if ip != nil {
			u.path = ip.String()
			if ip.To4() != nil {
				u.scheme = "tcp4"
			} else {
				u.scheme = "tcp6"
			}
			if u.IsCanonical() {
				return nil
			}
		}
	}
	return errors.New("URI could not be canonized")
}

func (u *URI) String() string {
	switch u.uriType {
	case tcpURI:
		if u.scheme == "tcp6" {
			return u.scheme + "://[" + u.path + "]:" + strconv.FormatUint(uint64(u.port), 10)
		}
		return u.scheme + "://" + u.path + ":" + strconv.FormatUint(uint64(u.port), 10)
	case wsURI:
		return u.scheme + "://" + net.JoinHostPort(u.path, strconv.FormatUint(uint64(u.port), 10))
	case devURI, etherURI:
		return u.scheme + "://" + u.path
	default:
		return "null://"
	}
}
