package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carrec/platform/internal/domain/model"
)

// CreateComment persists a comment. A comment on a missing post is a
// storage failure that also matches model.ErrNotFound.
func (s *Store) CreateComment(ctx context.Context, postID, authorID int64, text string) (*model.PersistedComment, error) {
	created := s.now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments(post_id, user_id, comment_text, created_at_ms) VALUES (?, ?, ?, ?)`,
		postID, authorID, text, created.UnixMilli())
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return nil, fmt.Errorf("%w: create comment: post %d: %w", model.ErrStorage, postID, model.ErrNotFound)
		}
		return nil, storageErr("create comment", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("create comment", err)
	}
	return &model.PersistedComment{
		ID:        id,
		PostID:    postID,
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: created,
	}, nil
}

func (s *Store) ListComments(ctx context.Context, postID int64) ([]model.PersistedComment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, post_id, user_id, comment_text, created_at_ms FROM comments WHERE post_id = ? ORDER BY id`, postID)
	if err != nil {
		return nil, storageErr("list comments", err)
	}
	defer rows.Close()

	out := []model.PersistedComment{}
	for rows.Next() {
		var (
			c  model.PersistedComment
			ms int64
		)
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text, &ms); err != nil {
			return nil, storageErr("list comments", err)
		}
		c.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list comments", err)
	}
	return out, nil
}
