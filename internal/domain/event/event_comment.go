package event

import (
	"github.com/carrec/platform/internal/domain/model"
)

var _ Eventer = (*CommentCreatedEvent)(nil)

// CommentCreatedEvent wraps a published comment for local fan-out. Ingestion
// and relay both build it from the same model.CommentEvent, so listeners see
// identical frames whichever path delivered them.
type CommentCreatedEvent struct {
	Comment model.CommentEvent
	frameCache
}

func NewCommentCreatedEvent(c model.CommentEvent) *CommentCreatedEvent {
	return &CommentCreatedEvent{Comment: c}
}

func (e *CommentCreatedEvent) GetID() string        { return e.Comment.EventID }
func (e *CommentCreatedEvent) GetKind() EventKind   { return CommentCreated }
func (e *CommentCreatedEvent) GetOccurredAt() int64 { return e.Comment.OccurredAt }
func (e *CommentCreatedEvent) GetPayload() any      { return &e.Comment }

// StreamKeys lists the local streams this comment is broadcast to.
func (e *CommentCreatedEvent) StreamKeys() []model.StreamKey {
	return model.StreamKeysFor(e.Comment.PostID)
}
