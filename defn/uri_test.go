/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn_test

import (
	"testing"

	"github.com/gu-peter/aurora-link/defn"
	"github.com/stretchr/testify/assert"
)

func TestNull(t *testing.T) {
	uri := defn.MakeNullURI()
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "null", uri.Scheme())
	assert.Equal(t, "", uri.Path())
	assert.Equal(t, uint16(0), uri.Port())
	assert.Equal(t, "null://", uri.String())
}

func TestDev(t *testing.T) {
	uri := defn.MakeDevURI("lo")
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "dev", uri.Scheme())
	assert.Equal(t, "lo", uri.Path())
	assert.Equal(t, uint16(0), uri.Port())
	assert.Equal(t, "dev://lo", uri.String())

	uri = defn.MakeDevURI("fakeif")
	assert.False(t, uri.IsCanonical())
	assert.Equal(t, "dev", uri.Scheme())

	uri = defn.DecodeURIString("dev://lo")
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "dev", uri.Scheme())
	assert.Equal(t, "lo", uri.Path())
}

func TestEther(t *testing.T) {
	uri := defn.MakeEtherURI("00:11:22:33:44:AA")
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "ether", uri.Scheme())
	assert.Equal(t, "00:11:22:33:44:aa", uri.Path())
	assert.Equal(t, uint16(0), uri.Port())
	assert.Equal(t, "ether://00:11:22:33:44:aa", uri.String())

	uri = defn.DecodeURIString("ether://00:11:22:33:44:AA")
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "ether", uri.Scheme())
	assert.Equal(t, "00:11:22:33:44:aa", uri.Path())

	uri = defn.MakeEtherURI("not-a-mac")
	assert.False(t, uri.IsCanonical())
	assert.Error(t, uri.Canonize())

	// Dash-separated form canonizes to colon-separated
	uri = defn.MakeEtherURI("00-11-22-33-44-aa")
	assert.False(t, uri.IsCanonical())
	assert.NoError(t, uri.Canonize())
	assert.Equal(t, "00:11:22:33:44:aa", uri.Path())
}

func TestTCP(t *testing.T) {
	uri := defn.MakeTCPURI(4, "192.0.2.1", 41988)
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "tcp4", uri.Scheme())
	assert.Equal(t, "192.0.2.1", uri.Path())
	assert.Equal(t, uint16(41988), uri.Port())
	assert.Equal(t, "tcp4://192.0.2.1:41988", uri.String())

	uri = defn.DecodeURIString("tcp4://192.0.2.1:41988")
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "tcp4", uri.Scheme())
	assert.Equal(t, "192.0.2.1", uri.Path())
	assert.Equal(t, uint16(41988), uri.Port())

	uri = defn.DecodeURIString("tcp6://[2001:db8::1]:41988")
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "tcp6", uri.Scheme())
	assert.Equal(t, "2001:db8::1", uri.Path())
	assert.Equal(t, "tcp6://[2001:db8::1]:41988", uri.String())

	// Generic tcp scheme resolves to the IP version of the host
	uri = defn.DecodeURIString("tcp://192.0.2.1:41988")
	assert.Equal(t, "tcp4", uri.Scheme())

	// Port zero is not canonical
	uri = defn.MakeTCPURI(4, "192.0.2.1", 0)
	assert.False(t, uri.IsCanonical())
}

func TestWebSocket(t *testing.T) {
	uri := defn.MakeWebSocketURI("192.0.2.1", 41989)
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "ws", uri.Scheme())
	assert.Equal(t, "192.0.2.1", uri.Path())
	assert.Equal(t, uint16(41989), uri.Port())
	assert.Equal(t, "ws://192.0.2.1:41989", uri.String())

	uri = defn.DecodeURIString("ws://192.0.2.1:41989")
	assert.True(t, uri.IsCanonical())
	assert.Equal(t, "ws", uri.Scheme())
}

func TestUnknown(t *testing.T) {
	uri := defn.DecodeURIString("flub://foo")
	assert.Equal(t, "null", uri.Scheme())
	assert.Equal(t, "null://", uri.String())

	uri = defn.DecodeURIString("no-scheme-here")
	assert.Equal(t, "null", uri.Scheme())
}
