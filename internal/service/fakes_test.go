package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{Name: "post-service", InstanceID: "node-a"},
		HTTP:    config.HTTPConfig{TaskTimeout: time.Second},
		Bus:     config.BusConfig{Driver: "memory", Topic: "comments_channel", ReconnectWait: 10 * time.Millisecond},
		Stream:  config.StreamConfig{ConnBuffer: 16},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
		Gate:    config.GateConfig{ProcessDuration: 10 * time.Millisecond},
	}
}

// memStore is an in-memory stand-in for the sqlite store.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	posts    map[int64]*model.Post
	comments []model.PersistedComment
	users    map[int64]*model.User

	commentCalls int
	failComments error
	delay        time.Duration
}

func newMemStore() *memStore {
	return &memStore{posts: map[int64]*model.Post{}, users: map[int64]*model.User{}}
}

func (m *memStore) CreateComment(ctx context.Context, postID, authorID int64, text string) (*model.PersistedComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commentCalls++
	if m.failComments != nil {
		return nil, m.failComments
	}
	m.nextID++
	c := model.PersistedComment{ID: m.nextID, PostID: postID, AuthorID: authorID, Text: text, CreatedAt: time.Now()}
	m.comments = append(m.comments, c)
	return &c, nil
}

func (m *memStore) ListComments(ctx context.Context, postID int64) ([]model.PersistedComment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PersistedComment
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := &model.Post{ID: m.nextID, Title: in.Title, Content: in.Content, CarModel: in.CarModel, UserID: in.UserID}
	m.posts[p.ID] = p
	return p, nil
}

func (m *memStore) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	m.mu.Lock()
	p, ok := m.posts[id]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("get post: %w", model.ErrNotFound)
	}
	out := *p
	out.Comments, _ = m.ListComments(ctx, id)
	return &out, nil
}

func (m *memStore) ListPosts(ctx context.Context, f model.PostFilter) ([]model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Post
	for _, p := range m.posts {
		if f.UserID == 0 || p.UserID == f.UserID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) UpdatePost(ctx context.Context, id int64, in model.PostInput) (*model.Post, error) {
	m.mu.Lock()
	p, ok := m.posts[id]
	if ok {
		p.Title, p.Content, p.CarModel = in.Title, in.Content, in.CarModel
	}
	m.mu.Unlock()
	if !ok {
		return nil, model.ErrNotFound
	}
	return m.GetPost(ctx, id)
}

func (m *memStore) DeletePost(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return model.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *memStore) CreateUser(ctx context.Context, name, email, hash string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return nil, model.ErrConflict
		}
	}
	m.nextID++
	u := &model.User{ID: m.nextID, Name: name, Email: email, PasswordHash: hash}
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, model.ErrNotFound
}

func (m *memStore) UpdateUser(ctx context.Context, id int64, in model.UserUpdate) (*model.User, error) {
	m.mu.Lock()
	u, ok := m.users[id]
	if ok {
		u.Name, u.Bio, u.AvatarURL = in.Name, in.Bio, in.AvatarURL
	}
	m.mu.Unlock()
	if !ok {
		return nil, model.ErrNotFound
	}
	return m.GetUser(ctx, id)
}

// recordingBridge captures publications and can be made to fail.
type recordingBridge struct {
	mu        sync.Mutex
	published []model.CommentEvent
	fail      error
}

func (b *recordingBridge) Publish(ctx context.Context, topic string, ev model.CommentEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return fmt.Errorf("%w: %w", model.ErrDelivery, b.fail)
	}
	b.published = append(b.published, ev)
	return nil
}

func (b *recordingBridge) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return nil, errors.New("not supported")
}

func (b *recordingBridge) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

// stubPostClient answers for the post service.
type stubPostClient struct {
	posts   []model.Post
	err     error
	created []model.PostInput
}

func (c *stubPostClient) CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.created = append(c.created, in)
	return &model.Post{ID: int64(len(c.created)), Title: in.Title, Content: in.Content, CarModel: in.CarModel, UserID: in.UserID}, nil
}

func (c *stubPostClient) ListPostsByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []model.Post
	for _, p := range c.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}
