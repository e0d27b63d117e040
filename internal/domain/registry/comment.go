package registry

import (
	"github.com/carrec/platform/internal/domain/event"
	"github.com/carrec/platform/internal/domain/model"
)

// BroadcastComment fans a comment out to its post stream and the global
// stream. Ingestion and relay both deliver through here, so listeners get
// the same frame whichever path reached them first.
func BroadcastComment(h Hubber, c model.CommentEvent) int {
	ev := event.NewCommentCreatedEvent(c)
	var delivered int
	for _, key := range ev.StreamKeys() {
		delivered += h.Broadcast(key, ev)
	}
	return delivered
}
