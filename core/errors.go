/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package core

import "errors"

// Error definitions
var (
	ErrNotCanonical      = errors.New("URI could not be canonized")
	ErrInvalidThresholds = errors.New("pause threshold must be less than resume threshold")
	ErrInvalidPauseCount = errors.New("invalid pause count value")
	ErrInvalidChannel    = errors.New("invalid channel index")
	ErrQueueFull         = errors.New("queue is full")
)
