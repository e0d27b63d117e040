package service

import (
	"context"
	"fmt"
	"time"

	"github.com/carrec/platform/internal/domain/model"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

// PostsResolver assembles a user together with the posts they wrote.
type PostsResolver interface {
	ResolveUserPosts(ctx context.Context, userID int64) (*model.UserPosts, error)
	// Forget drops a cached profile after it changed.
	Forget(userID int64)
}

type postsResolver struct {
	users UserStore
	posts PostClient
	cache *expirable.LRU[int64, *model.User]
}

// NewPostsResolver keeps "hot" profiles in a short-lived LRU so repeated
// listings only pay for the upstream call.
func NewPostsResolver(users UserStore, posts PostClient) *postsResolver {
	return &postsResolver{
		users: users,
		posts: posts,
		cache: expirable.NewLRU[int64, *model.User](10000, nil, time.Minute),
	}
}

// ResolveUserPosts runs the profile lookup and the post service call in
// parallel. Either failing fails the whole result.
func (r *postsResolver) ResolveUserPosts(ctx context.Context, userID int64) (*model.UserPosts, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var (
		user  *model.User
		posts []model.Post
	)

	g.Go(func() error {
		var err error
		user, err = r.resolveUser(gCtx, userID)
		return err
	})

	g.Go(func() error {
		var err error
		posts, err = r.posts.ListPostsByUser(gCtx, userID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve user posts: %w", err)
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return &model.UserPosts{User: user, Posts: posts}, nil
}

func (r *postsResolver) resolveUser(ctx context.Context, userID int64) (*model.User, error) {
	// [HOT_PATH] Check LRU cache first
	if u, ok := r.cache.Get(userID); ok {
		return u, nil
	}
	u, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.cache.Add(userID, u)
	return u, nil
}

func (r *postsResolver) Forget(userID int64) {
	r.cache.Remove(userID)
}
