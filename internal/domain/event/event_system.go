package event

import (
	"time"

	"github.com/google/uuid"
)

// [GUARD] Ensure compliance with the Eventer interface.
var _ Eventer = (*SystemEvent)(nil)

// SystemEvent is a generic envelope for service generated signals addressed
// to a single connection.
type SystemEvent struct {
	id         string
	kind       EventKind
	occurredAt int64
	payload    any
	frameCache
}

func (e *SystemEvent) GetID() string        { return e.id }
func (e *SystemEvent) GetKind() EventKind   { return e.kind }
func (e *SystemEvent) GetOccurredAt() int64 { return e.occurredAt }
func (e *SystemEvent) GetPayload() any      { return e.payload }

// NewSystemEvent is a universal factory for creating any signal.
func NewSystemEvent(kind EventKind, payload any) *SystemEvent {
	return &SystemEvent{
		id:         uuid.NewString(),
		kind:       kind,
		occurredAt: time.Now().UnixMilli(),
		payload:    payload,
	}
}
