//go:build linux

/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package impl

import (
	"strconv"
	"syscall"

	"github.com/gu-peter/aurora-link/core"
	"golang.org/x/sys/unix"
)

// SyscallGetSocketSendQueueSize returns the current size of the send queue on the specified socket.
func SyscallGetSocketSendQueueSize(c syscall.RawConn) uint64 {
	var val int
	c.Control(func(fd uintptr) {
		var err error
		val, err = unix.IoctlGetInt(int(fd), unix.SIOCOUTQ)
		if err != nil {
			core.LogWarn("Link-Syscall", "Unable to get size of socket send queue for fd="+strconv.Itoa(int(fd))+": "+err.Error())
			val = 0
		}
	})
	return uint64(val)
}
