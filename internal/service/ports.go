package service

import (
	"context"

	"github.com/carrec/platform/internal/domain/model"
)

// CommentStore is the storage collaborator of comment ingestion.
type CommentStore interface {
	CreateComment(ctx context.Context, postID, authorID int64, text string) (*model.PersistedComment, error)
	ListComments(ctx context.Context, postID int64) ([]model.PersistedComment, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error)
	GetPost(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context, f model.PostFilter) ([]model.Post, error)
	UpdatePost(ctx context.Context, id int64, in model.PostInput) (*model.Post, error)
	DeletePost(ctx context.Context, id int64) error
}

type UserStore interface {
	CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, in model.UserUpdate) (*model.User, error)
}

// PostClient is the user service's view of the post service.
type PostClient interface {
	CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error)
	ListPostsByUser(ctx context.Context, userID int64) ([]model.Post, error)
}
