package wsmarshaller

import (
	"testing"

	"github.com/carrec/platform/internal/domain/event"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/goccy/go-json"
)

func TestMarshalEvent_Comment(t *testing.T) {
	ev := event.NewCommentCreatedEvent(model.CommentEvent{
		EventID: "e1", CommentID: 11, PostID: 7, AuthorID: 3, Text: "nice car", OccurredAt: 1700000000000,
	})

	b, err := MarshalEvent(ev)
	if err != nil {
		t.Fatal(err)
	}

	var got struct {
		Type       string             `json:"type"`
		ID         string             `json:"id"`
		OccurredAt int64              `json:"occurred_at"`
		Data       model.CommentEvent `json:"data"`
		Summary    string             `json:"summary"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != "comment_created" || got.ID != "e1" || got.OccurredAt != 1700000000000 {
		t.Errorf("envelope = %+v", got)
	}
	if got.Data.PostID != 7 || got.Data.Text != "nice car" {
		t.Errorf("data = %+v", got.Data)
	}
	if got.Summary != "New comment: nice car by user 3" {
		t.Errorf("summary = %q", got.Summary)
	}
}

func TestMarshalEvent_UsesCache(t *testing.T) {
	ev := event.NewSystemEvent(event.CommentRejected, &model.RejectedPayload{Field: "author_id", Reason: "is required"})

	first, err := MarshalEvent(ev)
	if err != nil {
		t.Fatal(err)
	}
	ev.SetCached([]byte("cached"))
	second, _ := MarshalEvent(ev)
	if string(second) != "cached" {
		t.Errorf("second marshal = %s, want cached frame", second)
	}
	if len(first) == 0 || first[0] != '{' {
		t.Errorf("first = %s", first)
	}
}
