package event

import "sync/atomic"

type EventKind int16

const (
	Connected      EventKind = iota + 1 // [SYSTEM]
	CommentCreated                      // [BUSINESS]
	CommentRejected
	CommentFailed
	Disconnected
)

func (k EventKind) String() string {
	switch k {
	case Connected:
		return "connected"
	case CommentCreated:
		return "comment_created"
	case CommentRejected:
		return "comment_rejected"
	case CommentFailed:
		return "comment_failed"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Eventer defines the contract for all data packets flowing through the Hub.
type Eventer interface {
	GetID() string
	GetKind() EventKind
	GetOccurredAt() int64
	GetPayload() any
	// GetCached/SetCached hold the wire frame so an event fanned out to many
	// connections is marshaled once.
	GetCached() []byte
	SetCached([]byte)
}

// frameCache is embedded by events. Pumps of different connections read and
// write it concurrently.
type frameCache struct {
	v atomic.Pointer[[]byte]
}

func (c *frameCache) GetCached() []byte {
	if p := c.v.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *frameCache) SetCached(b []byte) { c.v.Store(&b) }
