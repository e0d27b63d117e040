package sqlite

import (
	"context"
	"database/sql"

	"github.com/carrec/platform/internal/domain/model"
)

func (s *Store) CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO posts(title, content, car_model, user_id) VALUES (?, ?, ?, ?)`,
		in.Title, in.Content, in.CarModel, in.UserID)
	if err != nil {
		return nil, storageErr("create post", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("create post", err)
	}
	return &model.Post{
		ID:       id,
		Title:    in.Title,
		Content:  in.Content,
		CarModel: in.CarModel,
		UserID:   in.UserID,
		Comments: []model.PersistedComment{},
	}, nil
}

// GetPost returns the post with its comments, oldest first.
func (s *Store) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, car_model, user_id FROM posts WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Content, &p.CarModel, &p.UserID)
	if err != nil {
		return nil, storageErr("get post", err)
	}
	if p.Comments, err = s.ListComments(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPosts(ctx context.Context, f model.PostFilter) ([]model.Post, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if f.UserID > 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, title, content, car_model, user_id FROM posts WHERE user_id = ? ORDER BY id`, f.UserID)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, title, content, car_model, user_id FROM posts ORDER BY id`)
	}
	if err != nil {
		return nil, storageErr("list posts", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p := model.Post{Comments: []model.PersistedComment{}}
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.CarModel, &p.UserID); err != nil {
			return nil, storageErr("list posts", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list posts", err)
	}
	return posts, nil
}

// UpdatePost replaces the editable fields. The author is kept.
func (s *Store) UpdatePost(ctx context.Context, id int64, in model.PostInput) (*model.Post, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?, car_model = ? WHERE id = ?`,
		in.Title, in.Content, in.CarModel, id)
	if err != nil {
		return nil, storageErr("update post", err)
	}
	if err := requireRow(res, "update post"); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes the post and, through the foreign key, its comments.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete post", err)
	}
	return requireRow(res, "delete post")
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return storageErr(op, sql.ErrNoRows)
	}
	return nil
}
