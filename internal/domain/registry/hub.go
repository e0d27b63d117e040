package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/carrec/platform/internal/domain/event"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/metrics"
)

// Hubber defines the gateway for live session management and event routing.
type Hubber interface {
	// NewConnector builds a session using the hub's buffer and dedup settings.
	NewConnector(ctx context.Context, key model.StreamKey) Connector
	Register(conn Connector)
	Unregister(conn Connector)
	// Broadcast returns the number of sessions that accepted ev.
	Broadcast(key model.StreamKey, ev event.Eventer) int
	IsConnected(key model.StreamKey) bool
	Stats() model.HubStats
	Shutdown()
}

var _ Hubber = (*Hub)(nil)

type hubConfig struct {
	connBuffer  int
	dedupWindow int
	instanceID  string
}

// Hub implements a [SCALABLE_REGISTRY] using the Virtual Cell pattern.
type Hub struct {
	config hubConfig
	logger *slog.Logger

	// mu serializes structural changes: a cell is created and deleted under
	// the write lock so a Register can never attach to a cell being purged.
	mu    sync.RWMutex
	cells map[model.StreamKey]*Cell

	startedAt time.Time
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		config: hubConfig{
			connBuffer: 256,
		},
		logger:    slog.Default(),
		cells:     make(map[model.StreamKey]*Cell),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) NewConnector(ctx context.Context, key model.StreamKey) Connector {
	return NewConnector(ctx, key, h.config.connBuffer, h.config.dedupWindow)
}

// Register attaches a session to its stream. It never rejects.
func (h *Hub) Register(conn Connector) {
	key := conn.GetStreamKey()

	h.mu.Lock()
	cell, ok := h.cells[key]
	if !ok {
		// [LAZY_INIT] Create cell only when first connection arrives.
		cell = NewCell(key)
		h.cells[key] = cell
	}
	cell.Attach(conn)
	h.mu.Unlock()

	metrics.StreamConnections.Inc()
	h.logger.Debug("CONN_REGISTERED", "conn_id", conn.GetID(), "stream", key)
}

// Unregister performs [GRACEFUL_RECLAMATION]. Removing a session that is not
// registered is a no-op.
func (h *Hub) Unregister(conn Connector) {
	key := conn.GetStreamKey()

	h.mu.Lock()
	removed := false
	if cell, ok := h.cells[key]; ok {
		var empty bool
		removed, empty = cell.Detach(conn.GetID())
		if empty {
			// If no sessions left, purge the cell from memory.
			delete(h.cells, key)
		}
	}
	h.mu.Unlock()

	conn.Close()

	if removed {
		metrics.StreamConnections.Dec()
		h.logger.Debug("CONN_UNREGISTERED", "conn_id", conn.GetID(), "stream", key)
	}
}

// Broadcast delivers ev to the sessions registered on key at call time.
// Sessions that refuse the frame are evicted; the rest still receive it.
func (h *Hub) Broadcast(key model.StreamKey, ev event.Eventer) int {
	if key == "" {
		return 0
	}

	h.mu.RLock()
	cell, ok := h.cells[key]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	delivered, failed := cell.Deliver(ev)
	metrics.StreamDeliveries.Add(float64(delivered))

	// [EVICTION] A consumer that cannot keep up is treated as dead.
	for _, conn := range failed {
		h.logger.Warn("CONN_EVICTED",
			"conn_id", conn.GetID(),
			"stream", key,
			"event_id", ev.GetID(),
			"dropped", conn.Dropped(),
		)
		metrics.StreamEvictions.Inc()
		h.Unregister(conn)
	}
	return delivered
}

func (h *Hub) IsConnected(key model.StreamKey) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.cells[key]
	return ok
}

// Stats returns a point-in-time view of the registry.
func (h *Hub) Stats() model.HubStats {
	h.mu.RLock()
	stats := model.HubStats{
		InstanceID:   h.config.instanceID,
		TotalStreams: len(h.cells),
		Uptime:       time.Since(h.startedAt),
		Streams:      make([]model.StreamStats, 0, len(h.cells)),
	}
	for key, cell := range h.cells {
		n := cell.Size()
		stats.TotalConnections += n
		stats.Streams = append(stats.Streams, model.StreamStats{Key: key.String(), Connections: n})
	}
	h.mu.RUnlock()

	sort.Slice(stats.Streams, func(i, j int) bool {
		return stats.Streams[i].Key < stats.Streams[j].Key
	})
	return stats
}

// Shutdown notifies and closes every live session and empties the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	cells := h.cells
	h.cells = make(map[model.StreamKey]*Cell)
	h.mu.Unlock()

	bye := event.NewSystemEvent(event.Disconnected, &model.DisconnectedPayload{
		Reason: "server is shutting down",
		Code:   "SHUTDOWN",
	})

	var closed int
	for _, cell := range cells {
		for _, conn := range cell.Drain() {
			conn.Send(bye)
			conn.Close()
			closed++
		}
	}
	metrics.StreamConnections.Sub(float64(closed))
	h.logger.Info("HUB_SHUTDOWN", "closed_connections", closed)
}
