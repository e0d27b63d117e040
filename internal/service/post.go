package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/model"
)

type Poster interface {
	CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error)
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context, f model.PostFilter) ([]model.Post, error)
	UpdatePost(ctx context.Context, id int64, in model.PostInput) (*model.Post, error)
	DeletePost(ctx context.Context, id int64) error
	ListComments(ctx context.Context, postID int64) ([]model.PersistedComment, error)
}

type PostService struct {
	posts       PostStore
	comments    CommentStore
	taskTimeout time.Duration
	logger      *slog.Logger
}

func NewPostService(cfg *config.Config, posts PostStore, comments CommentStore, logger *slog.Logger) *PostService {
	return &PostService{
		posts:       posts,
		comments:    comments,
		taskTimeout: cfg.HTTP.TaskTimeout,
		logger:      logger.With("component", "posts"),
	}
}

// CreatePost runs under the task budget; exceeding it yields
// model.ErrTaskTimeout.
func (s *PostService) CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}

	if s.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.taskTimeout)
		defer cancel()
	}

	p, err := s.posts.CreatePost(ctx, in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("create post: %w", model.ErrTaskTimeout)
		}
		return nil, err
	}
	s.logger.Info("POST_CREATED", "post_id", p.ID, "user_id", p.UserID)
	return p, nil
}

func (s *PostService) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	return s.posts.GetPost(ctx, id)
}

func (s *PostService) ListPosts(ctx context.Context, f model.PostFilter) ([]model.Post, error) {
	return s.posts.ListPosts(ctx, f)
}

func (s *PostService) UpdatePost(ctx context.Context, id int64, in model.PostInput) (*model.Post, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	return s.posts.UpdatePost(ctx, id, in)
}

func (s *PostService) DeletePost(ctx context.Context, id int64) error {
	if err := s.posts.DeletePost(ctx, id); err != nil {
		return err
	}
	s.logger.Info("POST_DELETED", "post_id", id)
	return nil
}

// ListComments reports model.ErrNotFound for an unknown post rather than an
// empty list.
func (s *PostService) ListComments(ctx context.Context, postID int64) ([]model.PersistedComment, error) {
	p, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return p.Comments, nil
}
