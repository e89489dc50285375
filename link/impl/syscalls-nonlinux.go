//go:build !linux

/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package impl

import "syscall"

// SyscallGetSocketSendQueueSize returns the current size of the send queue on
// the specified socket. Unsupported on this platform.
func SyscallGetSocketSendQueueSize(c syscall.RawConn) uint64 {
	return 0
}
