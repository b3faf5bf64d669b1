// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package wizard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"classifieds/internal/catalog"
)

// References is the reference-data cache of one posting session. Each
// source keeps the list of its most recent load, so repeated renders for
// the same parent are served from memory, and when a user switches makes
// quickly the slower model list for the old make is dropped.
type References struct {
	src catalog.ReferenceSource

	mu       sync.Mutex
	lists    map[string]*catalog.Latest[referenceList]
	lastUsed time.Time
}

// referenceList is one loaded list and the parent it was loaded for.
type referenceList struct {
	parent string
	locale string
	opts   []catalog.Option
}

func newReferences(src catalog.ReferenceSource) *References {
	return &References{
		src:      src,
		lists:    make(map[string]*catalog.Latest[referenceList]),
		lastUsed: time.Now(),
	}
}

func (r *References) list(source string) *catalog.Latest[referenceList] {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastUsed = time.Now()
	l, ok := r.lists[source]
	if !ok {
		l = &catalog.Latest[referenceList]{}
		r.lists[source] = l
	}
	return l
}

func (r *References) idleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastUsed
}

// ReferenceOptions implements catalog.ReferenceSource. A failed load is
// logged and yields an empty list. A load overtaken by a newer one for the
// same source returns the newer list when it is for the same parent, and
// an empty list otherwise.
func (r *References) ReferenceOptions(ctx context.Context, source, parent, locale string) ([]catalog.Option, error) {
	if r.src == nil {
		return nil, nil
	}
	l := r.list(source)
	if cur, ok := l.Fresh(); ok && cur.parent == parent && cur.locale == locale {
		return cur.opts, nil
	}
	ticket := l.Begin()

	opts, err := r.src.ReferenceOptions(ctx, source, parent, locale)
	if err != nil {
		slog.Warn("reference data load failed", "source", source, "parent", parent, "error", err)
		return nil, nil
	}
	if l.Commit(ticket, referenceList{parent: parent, locale: locale, opts: opts}) {
		return opts, nil
	}

	slog.Debug("discarded stale reference data", "source", source, "parent", parent)
	if cur, ok := l.Fresh(); ok && cur.parent == parent && cur.locale == locale {
		return cur.opts, nil
	}
	return nil, nil
}

// referenceCaches holds one References per posting session.
type referenceCaches struct {
	src   catalog.ReferenceSource
	mu    sync.Mutex
	items map[string]*References
}

func (c *referenceCaches) get(sessionID string) *References {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]*References)
	}
	r, ok := c.items[sessionID]
	if !ok {
		r = newReferences(c.src)
		c.items[sessionID] = r
	}
	return r
}

func (c *referenceCaches) drop(sessionID string) {
	c.mu.Lock()
	delete(c.items, sessionID)
	c.mu.Unlock()
}

func (c *referenceCaches) sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, r := range c.items {
		if r.idleSince().Before(cutoff) {
			delete(c.items, id)
			n++
		}
	}
	return n
}
