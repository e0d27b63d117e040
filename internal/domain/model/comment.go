package model

import (
	"fmt"
	"strings"
	"time"
)

// CommentEvent is what travels over the bus and what every broadcast is
// rendered from. It is never mutated after publication.
type CommentEvent struct {
	EventID    string `json:"event_id,omitempty"`
	CommentID  int64  `json:"comment_id,omitempty"`
	PostID     int64  `json:"post_id" validate:"gt=0"`
	AuthorID   int64  `json:"author_id" validate:"gt=0"`
	Text       string `json:"text" validate:"required"`
	Origin     string `json:"origin,omitempty"`
	OccurredAt int64  `json:"occurred_at,omitempty"`
}

// Validate applies the boundary checks to an event decoded from the bus.
func (e *CommentEvent) Validate() error {
	return Validate(e)
}

// Summary is the human readable line shown to listeners.
func (e *CommentEvent) Summary() string {
	return fmt.Sprintf("New comment: %s by user %d", e.Text, e.AuthorID)
}

// CommentSubmission is the frame a client sends over a live connection.
// The snake_case names are canonical; user_id/content come from older
// clients and postId/authorId from the JS ones.
type CommentSubmission struct {
	PostID        int64  `json:"post_id"`
	PostIDCamel   int64  `json:"postId"`
	AuthorID      int64  `json:"author_id"`
	AuthorIDCamel int64  `json:"authorId"`
	UserID        int64  `json:"user_id"`
	Text          string `json:"text"`
	Content       string `json:"content"`
}

// commentDraft is the normalized submission the validator runs against.
type commentDraft struct {
	PostID   int64  `json:"post_id" validate:"gt=0"`
	AuthorID int64  `json:"author_id" validate:"required,gt=0"`
	Text     string `json:"text" validate:"required"`
}

// Resolve normalizes the submission against the stream it arrived on and
// validates it. A post-bound stream supplies the post id when the client
// omits it and rejects a mismatching one.
func (s *CommentSubmission) Resolve(key StreamKey) (postID, authorID int64, text string, err error) {
	d := commentDraft{
		PostID:   firstNonZero(s.PostID, s.PostIDCamel),
		AuthorID: firstNonZero(s.AuthorID, s.AuthorIDCamel, s.UserID),
		Text:     strings.TrimSpace(firstNonEmpty(s.Text, s.Content)),
	}

	if keyPost, ok := key.PostID(); ok {
		switch {
		case d.PostID == 0:
			d.PostID = keyPost
		case d.PostID != keyPost:
			return 0, 0, "", &ValidationError{Field: "post_id", Reason: "does not match the stream"}
		}
	} else if d.PostID == 0 {
		return 0, 0, "", &ValidationError{Field: "post_id", Reason: "is required"}
	}

	if err := Validate(&d); err != nil {
		return 0, 0, "", err
	}
	return d.PostID, d.AuthorID, d.Text, nil
}

// PersistedComment is the durable record created by the store.
type PersistedComment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// ToEvent derives the broadcast event from the stored record.
func (c *PersistedComment) ToEvent(eventID, origin string) CommentEvent {
	return CommentEvent{
		EventID:    eventID,
		CommentID:  c.ID,
		PostID:     c.PostID,
		AuthorID:   c.AuthorID,
		Text:       c.Text,
		Origin:     origin,
		OccurredAt: c.CreatedAt.UnixMilli(),
	}
}

func firstNonZero(vals ...int64) int64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
