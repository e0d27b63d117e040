// Package wsmarshaller renders hub events as websocket text frames.
package wsmarshaller

import (
	"github.com/carrec/platform/internal/domain/event"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/goccy/go-json"
)

// Frame is the envelope of every server to client message.
type Frame struct {
	Type       string `json:"type"` // e.g. "comment_created", "connected"
	ID         string `json:"id"`
	OccurredAt int64  `json:"occurred_at"`
	Data       any    `json:"data"`
	// Summary is the human readable line of a comment notification.
	Summary string `json:"summary,omitempty"`
}

// MarshalEvent returns the frame for ev. A comment fanned out to many
// connections is encoded once and reused from the event cache.
func MarshalEvent(ev event.Eventer) ([]byte, error) {
	if b := ev.GetCached(); b != nil {
		return b, nil
	}

	f := &Frame{
		Type:       ev.GetKind().String(),
		ID:         ev.GetID(),
		OccurredAt: ev.GetOccurredAt(),
		Data:       ev.GetPayload(),
	}
	if c, ok := ev.GetPayload().(*model.CommentEvent); ok {
		f.Summary = c.Summary()
	}

	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	ev.SetCached(b)
	return b, nil
}
