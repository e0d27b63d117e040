package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/model"
)

type Userer interface {
	Register(ctx context.Context, in model.UserCreate) (*model.User, error)
	// Login returns a bearer token. Unknown email and wrong password are
	// indistinguishable to the caller.
	Login(ctx context.Context, in model.UserLogin) (string, error)
	Authenticate(ctx context.Context, token string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, in model.UserUpdate) (*model.User, error)
	CreatePost(ctx context.Context, userID int64, in model.PostInput) (*model.Post, error)
	UserPosts(ctx context.Context, userID int64) (*model.UserPosts, error)
	Process(ctx context.Context) (string, error)
}

type UserService struct {
	users    UserStore
	auth     Auther
	posts    PostClient
	resolver PostsResolver
	work     time.Duration
	logger   *slog.Logger
}

func NewUserService(
	cfg *config.Config,
	users UserStore,
	auth Auther,
	posts PostClient,
	resolver PostsResolver,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:    users,
		auth:     auth,
		posts:    posts,
		resolver: resolver,
		work:     cfg.Gate.ProcessDuration,
		logger:   logger.With("component", "users"),
	}
}

func (s *UserService) Register(ctx context.Context, in model.UserCreate) (*model.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := model.Validate(&in); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u, err := s.users.CreateUser(ctx, in.Name, in.Email, hash)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", model.ErrConflict)
		}
		return nil, err
	}
	s.logger.Info("USER_REGISTERED", "user_id", u.ID)
	return u, nil
}

func (s *UserService) Login(ctx context.Context, in model.UserLogin) (string, error) {
	if err := model.Validate(&in); err != nil {
		return "", err
	}
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", fmt.Errorf("invalid credentials: %w", model.ErrUnauthorized)
		}
		return "", err
	}
	if !s.auth.CheckPassword(u.PasswordHash, in.Password) {
		return "", fmt.Errorf("invalid credentials: %w", model.ErrUnauthorized)
	}
	return s.auth.IssueToken(u.ID)
}

func (s *UserService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	id, err := s.auth.ParseToken(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("user %d gone: %w", id, model.ErrUnauthorized)
		}
		return nil, err
	}
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, in model.UserUpdate) (*model.User, error) {
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	u, err := s.users.UpdateUser(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.resolver.Forget(id)
	return u, nil
}

// CreatePost publishes a post on behalf of an existing user through the
// post service.
func (s *UserService) CreatePost(ctx context.Context, userID int64, in model.PostInput) (*model.Post, error) {
	in.UserID = userID
	if err := model.Validate(&in); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.posts.CreatePost(ctx, in)
}

func (s *UserService) UserPosts(ctx context.Context, userID int64) (*model.UserPosts, error) {
	return s.resolver.ResolveUserPosts(ctx, userID)
}

// Process simulates a slow job so the gate in front of it can be observed.
func (s *UserService) Process(ctx context.Context) (string, error) {
	t := time.NewTimer(s.work)
	defer t.Stop()
	select {
	case <-t.C:
		return "Task completed", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
