/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tx

import "github.com/gu-peter/aurora-link/core"

// txQueueSize is the maximum number of frames that can be queued toward the
// local packet consumer per channel.
var txQueueSize int

// tsQueueCapacity is the capacity of the per-channel timestamp queue.
var tsQueueCapacity int

// Configure configures the TX datapath system.
func Configure() {
	txQueueSize = core.GetConfigIntDefault("tx.queue_size", 1024)
	tsQueueCapacity = core.GetConfigIntDefault("tx.timestamp_queue_size", 32)
}

func init() {
	// Usable defaults when running without a configuration file (tests).
	txQueueSize = 1024
	tsQueueCapacity = 32
}
