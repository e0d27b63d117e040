package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/carrec/platform/internal/domain/model"
)

// ResolverMiddleware implements [DECORATOR_PATTERN] to add observability
// to the aggregation without touching business logic.
type ResolverMiddleware struct {
	Next   PostsResolver
	Logger *slog.Logger
}

func NewResolverMiddleware(next PostsResolver, logger *slog.Logger) PostsResolver {
	return &ResolverMiddleware{
		Next:   next,
		Logger: logger,
	}
}

func (m *ResolverMiddleware) ResolveUserPosts(ctx context.Context, userID int64) (*model.UserPosts, error) {
	start := time.Now()

	res, err := m.Next.ResolveUserPosts(ctx, userID)

	// [OBSERVABILITY] Scoped logging for performance auditing
	duration := time.Since(start)
	if err != nil {
		m.Logger.Warn("USER_POSTS_RESOLVE_FAILED",
			"err", err,
			"user_id", userID,
			"duration_ms", duration.Milliseconds(),
		)
	} else {
		m.Logger.Debug("USER_POSTS_RESOLVED",
			"user_id", userID,
			"posts", len(res.Posts),
			"duration_ms", duration.Milliseconds(),
		)
	}
	return res, err
}

func (m *ResolverMiddleware) Forget(userID int64) {
	m.Next.Forget(userID)
}
