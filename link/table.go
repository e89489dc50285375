/* aurora-link - Aurora link-layer flow control and burst transmission core
 *
 * Copyright (C) 2025 Peter Gu.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package link

import (
	"sync"
	"sync/atomic"

	"github.com/gu-peter/aurora-link/core"
	"github.com/gu-peter/aurora-link/defn"
)

// LinkTable is the global link table for this daemon.
var LinkTable Table

// Table holds all links in use by the daemon.
type Table struct {
	links      sync.Map
	nextLinkID atomic.Uint64
}

func init() {
	LinkTable.links = sync.Map{}
	LinkTable.nextLinkID.Store(1)
}

// Add adds a link to the link table.
func (t *Table) Add(engine *FlowControlEngine) {
	linkID := t.nextLinkID.Add(1) - 1
	engine.SetLinkID(linkID)
	t.links.Store(linkID, engine)
	core.LogDebug("LinkTable", "Registered LinkID=", linkID)
}

// Get gets the link with the specified ID (if any) from the link table.
func (t *Table) Get(id uint64) *FlowControlEngine {
	link, ok := t.links.Load(id)

	if ok {
		return link.(*FlowControlEngine)
	}
	return nil
}

// GetByURI gets the link with the specified remote URI (if any) from the link table.
func (t *Table) GetByURI(remoteURI *defn.URI) *FlowControlEngine {
	var found *FlowControlEngine
	t.links.Range(func(_, link interface{}) bool {
		if link.(*FlowControlEngine).Transport().RemoteURI().String() == remoteURI.String() {
			found = link.(*FlowControlEngine)
			return false
		}
		return true
	})
	return found
}

// GetAll returns pointers to all links.
func (t *Table) GetAll() []*FlowControlEngine {
	links := make([]*FlowControlEngine, 0)
	t.links.Range(func(_, link interface{}) bool {
		links = append(links, link.(*FlowControlEngine))
		return true
	})
	return links
}

// Remove removes a link from the link table.
func (t *Table) Remove(id uint64) {
	t.links.Delete(id)
	core.LogDebug("LinkTable", "Unregistered LinkID=", id)
}
