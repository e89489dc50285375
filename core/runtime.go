/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "time"

// Version of aurora-link.
var Version string

// BuildTime contains the timestamp of when this version of aurora-link was built.
var BuildTime string

// StartTimestamp is the time the daemon was started.
var StartTimestamp time.Time

// ShouldQuit indicates whether the daemon is shutting down.
var ShouldQuit bool
