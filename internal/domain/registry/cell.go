/*
Package registry keeps the live connections of one process, grouped by stream key.

Key Architectural Concepts:
  - Cells: every stream key with at least one listener is represented by a Cell
    that owns the sessions attached to it.
  - Snapshot Broadcast: a broadcast reaches the sessions registered when it
    starts. Connections that attach later never see it.
  - Fail & Evict: sends never block. A session that cannot take a frame is
    removed without affecting the rest of the cell.
  - Ordering: broadcasts to one cell are serialized, so every session sees
    them in invocation order. Different cells deliver in parallel.
*/
package registry

import (
	"sync"
	"time"

	"github.com/carrec/platform/internal/domain/event"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/google/uuid"
)

// Cell implements [ISOLATED_DELIVERY] for a single stream key.
type Cell struct {
	// [IDENTITY]
	key model.StreamKey

	// [SESSIONS]
	// Every live connection attached to the key.
	sessions map[uuid.UUID]Connector

	// [CONCURRENCY_CONTROL]
	// mu guards sessions. deliverMu serializes broadcasts so frames keep
	// their invocation order per connection.
	mu        sync.RWMutex
	deliverMu sync.Mutex

	lastActivityAt time.Time
}

func NewCell(key model.StreamKey) *Cell {
	return &Cell{
		key:            key,
		sessions:       make(map[uuid.UUID]Connector),
		lastActivityAt: time.Now(),
	}
}

func (c *Cell) Attach(conn Connector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivityAt = time.Now()
	c.sessions[conn.GetID()] = conn
}

// Detach removes a session. removed is false when it was already gone;
// empty reports whether the cell has no sessions left.
func (c *Cell) Detach(connID uuid.UUID) (removed, empty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, removed = c.sessions[connID]
	delete(c.sessions, connID)
	c.lastActivityAt = time.Now()
	return removed, len(c.sessions) == 0
}

func (c *Cell) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Deliver pushes ev to every session attached right now and returns the
// ones that refused it.
func (c *Cell) Deliver(ev event.Eventer) (delivered int, failed []Connector) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.RLock()
	targets := make([]Connector, 0, len(c.sessions))
	for _, conn := range c.sessions {
		targets = append(targets, conn)
	}
	c.lastActivityAt = time.Now()
	c.mu.RUnlock()

	for _, conn := range targets {
		if conn.Send(ev) {
			delivered++
			continue
		}
		failed = append(failed, conn)
	}
	return delivered, failed
}

// Drain detaches and returns every session.
func (c *Cell) Drain() []Connector {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Connector, 0, len(c.sessions))
	for id, conn := range c.sessions {
		out = append(out, conn)
		delete(c.sessions, id)
	}
	return out
}
