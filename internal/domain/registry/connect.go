package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carrec/platform/internal/domain/event"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Interface guard
var _ Connector = (*connect)(nil)

// [CONNECTOR] THE INTERFACE FOR EXTERNAL LAYERS (HUB/TRANSPORT)
type Connector interface {
	GetID() uuid.UUID
	GetStreamKey() model.StreamKey
	// Send enqueues without blocking. False means the connection is closed
	// or its buffer is full; the hub evicts it in that case.
	Send(ev event.Eventer) bool
	Recv() <-chan event.Eventer
	Done() <-chan struct{}
	Dropped() uint64
	Close() // Terminate connection and release resources
}

// [CONNECT] CONCRETE IMPLEMENTATION (UNEXPORTED TO FORCE INTERFACE USAGE)
type connect struct {
	id        uuid.UUID
	key       model.StreamKey
	createdAt time.Time
	ctx       context.Context
	cancelFn  context.CancelFunc

	// mu guards sendCh against a Send racing with Close.
	mu     sync.RWMutex
	closed bool
	sendCh chan event.Eventer

	// seen is nil unless a dedup window is configured.
	seen *lru.Cache[string, struct{}]

	closeOnce    sync.Once
	droppedCount atomic.Uint64
}

// NewConnector builds a connection bound to key for its whole lifetime.
// dedupWindow > 0 makes Send ignore event ids it already accepted.
func NewConnector(ctx context.Context, key model.StreamKey, bufferSize, dedupWindow int) Connector {
	childCtx, cancel := context.WithCancel(ctx)

	c := &connect{
		id:        uuid.New(),
		key:       key,
		createdAt: time.Now(),
		ctx:       childCtx,
		cancelFn:  cancel,
		sendCh:    make(chan event.Eventer, bufferSize),
	}

	if dedupWindow > 0 {
		// Only fails on a non-positive size.
		c.seen, _ = lru.New[string, struct{}](dedupWindow)
	}
	return c
}

func (c *connect) GetID() uuid.UUID              { return c.id }
func (c *connect) GetStreamKey() model.StreamKey { return c.key }
func (c *connect) Recv() <-chan event.Eventer    { return c.sendCh }
func (c *connect) Done() <-chan struct{}         { return c.ctx.Done() }
func (c *connect) Dropped() uint64               { return c.droppedCount.Load() }

func (c *connect) Send(ev event.Eventer) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// [LIFECYCLE_GATE]
	if c.closed {
		return false
	}

	id := ev.GetID()
	if c.seen != nil && id != "" && c.seen.Contains(id) {
		// Already delivered through the other path.
		return true
	}

	// [FAIL_FAST] A full buffer is treated as a dead consumer.
	select {
	case c.sendCh <- ev:
		if c.seen != nil && id != "" {
			c.seen.Add(id, struct{}{})
		}
		return true
	default:
		c.droppedCount.Add(1)
		return false
	}
}

// Close terminates the session. Safe to call any number of times from the
// hub (eviction, shutdown) and the transport handler (defer).
func (c *connect) Close() {
	c.closeOnce.Do(func() {
		// 1. [SIGNAL_ABORT]
		c.cancelFn()

		// 2. [UPSTREAM_NOTIFY] A closed channel tells the write pump to
		// send a close frame and exit.
		c.mu.Lock()
		c.closed = true
		close(c.sendCh)
		c.mu.Unlock()
	})
}
