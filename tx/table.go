/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package tx

import (
	"github.com/cornelk/hashmap"
	"github.com/gu-peter/aurora-link/core"
)

// ControllerTable is the global registry of per-channel burst transmission
// controllers.
var ControllerTable Table

// Table holds the burst transmission controllers by channel number.
type Table struct {
	channels *hashmap.HashMap
}

func init() {
	ControllerTable.channels = &hashmap.HashMap{}
}

// Add adds a controller to the table.
func (t *Table) Add(c *Controller) {
	t.channels.Set(c.Channel(), c)
	core.LogDebug("ControllerTable", "Registered Channel=", c.Channel())
}

// Get gets the controller for the specified channel (if any) from the table.
func (t *Table) Get(channel int) *Controller {
	c, ok := t.channels.Get(channel)
	if ok {
		return c.(*Controller)
	}
	return nil
}

// GetAll returns pointers to all controllers.
func (t *Table) GetAll() []*Controller {
	controllers := make([]*Controller, 0)
	for kv := range t.channels.Iter() {
		controllers = append(controllers, kv.Value.(*Controller))
	}
	return controllers
}

// Remove removes a controller from the table.
func (t *Table) Remove(channel int) {
	t.channels.Del(channel)
	core.LogDebug("ControllerTable", "Unregistered Channel=", channel)
}
