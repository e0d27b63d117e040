package pubsub

import (
	"fmt"

	"github.com/carrec/platform/internal/domain/model"
	"github.com/goccy/go-json"
)

// EncodeCommentEvent renders the bus body of a comment.
func EncodeCommentEvent(ev model.CommentEvent) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode comment event: %w", err)
	}
	return b, nil
}

// DecodeCommentEvent parses and validates a bus body. Any error means the
// message can never be delivered and should be discarded.
func DecodeCommentEvent(payload []byte) (model.CommentEvent, error) {
	var ev model.CommentEvent
	if len(payload) == 0 {
		return ev, ErrNilEvent
	}
	if err := json.Unmarshal(payload, &ev); err != nil {
		return ev, fmt.Errorf("decode comment event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return ev, err
	}
	return ev, nil
}
