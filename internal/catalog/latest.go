// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import "sync"

// Ticket identifies one load started through Latest.Begin.
type Ticket uint64

// Latest holds the result of the most recently started load. A load that
// finishes after a newer one has begun is discarded, so a slow response
// never overwrites the state of a newer selection.
type Latest[T any] struct {
	mu        sync.Mutex
	gen       uint64
	committed uint64
	value     T
}

// Begin starts a load and invalidates every earlier ticket.
func (l *Latest[T]) Begin() Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	return Ticket(l.gen)
}

// Commit stores v if t is still the newest ticket and reports whether it
// did.
func (l *Latest[T]) Commit(t Ticket, v T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if uint64(t) != l.gen {
		return false
	}
	l.value = v
	l.committed = l.gen
	return true
}

// Fresh returns the committed value and reports whether it belongs to the
// newest load. It is false while a newer load is in flight.
func (l *Latest[T]) Fresh() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.committed != 0 && l.committed == l.gen
}

// Load returns the last committed value.
func (l *Latest[T]) Load() T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value
}
