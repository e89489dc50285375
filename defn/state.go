/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package defn

// State indicates the state of a link.
type State int

const (
	// Up indicates the link is up.
	Up State = iota
	// Down indicates the link is down.
	Down State = iota
	// AdminDown indicates the link is administratively down.
	AdminDown State = iota
)

func (s State) String() string {
	switch s {
	case Up:
		return "Up"
	case Down:
		return "Down"
	case AdminDown:
		return "AdminDown"
	default:
		return "Unknown"
	}
}
