package rest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/infra/storage/sqlite"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/domain/registry"
	"github.com/carrec/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Service: config.ServiceConfig{InstanceID: "node-a"},
		HTTP:    config.HTTPConfig{TaskTimeout: time.Second},
		Gate:    config.GateConfig{ListPosts: 10, UserPosts: 10, Process: 2, ProcessDuration: time.Millisecond},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour},
	}
}

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), sqlite.DSNForPath(filepath.Join(t.TempDir(), "rest.db")))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// do sends a JSON request and decodes the JSON answer into out when given.
func do(t *testing.T, h http.Handler, method, path, token string, body any, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func postRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := testConfig()
	store := newStore(t)
	posts := service.NewPostService(cfg, store, store, discardLogger())
	hub := registry.NewHub(registry.WithLogger(discardLogger()), registry.WithInstanceID("node-a"))

	r := chi.NewRouter()
	NewPostHandler(cfg, posts, discardLogger()).Routes(r)
	NewPostOpsHandler(cfg, hub).Routes(r)
	return r
}

func TestPosts_CRUD(t *testing.T) {
	h := postRouter(t)

	var created model.Post
	in := model.PostInput{Title: "Civic", Content: "reliable", CarModel: "Honda", UserID: 3}
	if code := do(t, h, http.MethodPost, "/api/posts", "", in, &created); code != http.StatusCreated {
		t.Fatalf("create = %d", code)
	}
	if created.ID == 0 || created.Title != "Civic" {
		t.Fatalf("created = %+v", created)
	}

	var list []model.Post
	if code := do(t, h, http.MethodGet, "/api/posts?user_id=3", "", nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list = %d %+v", code, list)
	}
	if code := do(t, h, http.MethodGet, "/api/posts?user_id=4", "", nil, &list); code != http.StatusOK || len(list) != 0 {
		t.Errorf("filtered list = %d %+v", code, list)
	}

	var msg messageBody
	in.Title = "Civic Type R"
	if code := do(t, h, http.MethodPut, "/api/posts/1", "", in, &msg); code != http.StatusOK || msg.Message != "Post updated successfully" {
		t.Errorf("update = %d %+v", code, msg)
	}

	var got model.Post
	if code := do(t, h, http.MethodGet, "/api/posts/1", "", nil, &got); code != http.StatusOK || got.Title != "Civic Type R" {
		t.Errorf("get = %d %+v", code, got)
	}

	var comments []model.PersistedComment
	if code := do(t, h, http.MethodGet, "/api/posts/1/comments", "", nil, &comments); code != http.StatusOK || len(comments) != 0 {
		t.Errorf("comments = %d %+v", code, comments)
	}

	if code := do(t, h, http.MethodDelete, "/api/posts/1", "", nil, &msg); code != http.StatusOK || msg.Message != "Post deleted successfully" {
		t.Errorf("delete = %d %+v", code, msg)
	}

	var eb errorBody
	if code := do(t, h, http.MethodGet, "/api/posts/1", "", nil, &eb); code != http.StatusNotFound || eb.Detail != "Post not found" {
		t.Errorf("get deleted = %d %+v", code, eb)
	}
	if code := do(t, h, http.MethodGet, "/api/posts/1/comments", "", nil, &eb); code != http.StatusNotFound {
		t.Errorf("comments of deleted = %d", code)
	}
}

func TestPosts_Validation(t *testing.T) {
	h := postRouter(t)

	var eb errorBody
	if code := do(t, h, http.MethodPost, "/api/posts", "", model.PostInput{Title: "x"}, &eb); code != http.StatusUnprocessableEntity || eb.Detail == "" {
		t.Errorf("create invalid = %d %+v", code, eb)
	}
	if code := do(t, h, http.MethodGet, "/api/posts/abc", "", nil, &eb); code != http.StatusUnprocessableEntity {
		t.Errorf("bad id = %d", code)
	}
	if code := do(t, h, http.MethodGet, "/api/posts?user_id=x", "", nil, &eb); code != http.StatusUnprocessableEntity {
		t.Errorf("bad filter = %d", code)
	}
}

func TestOps_StatusAndHub(t *testing.T) {
	h := postRouter(t)

	var st statusBody
	if code := do(t, h, http.MethodGet, "/status", "", nil, &st); code != http.StatusOK || st.Status != "Post service instance node-a is running" {
		t.Errorf("status = %d %+v", code, st)
	}

	var stats model.HubStats
	if code := do(t, h, http.MethodGet, "/debug/hub", "", nil, &stats); code != http.StatusOK || stats.InstanceID != "node-a" {
		t.Errorf("hub = %d %+v", code, stats)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("carrec_")) {
		t.Errorf("metrics = %d", rec.Code)
	}
}

// stubPosts plays the post service for the user endpoints.
type stubPosts struct {
	mu    sync.Mutex
	posts []model.Post
	err   error
}

func (s *stubPosts) CreatePost(_ context.Context, in model.PostInput) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	p := model.Post{ID: int64(len(s.posts) + 1), Title: in.Title, Content: in.Content, CarModel: in.CarModel, UserID: in.UserID}
	s.posts = append(s.posts, p)
	return &p, nil
}

func (s *stubPosts) ListPostsByUser(_ context.Context, userID int64) ([]model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Post
	for _, p := range s.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func userRouter(t *testing.T, upstream *stubPosts) http.Handler {
	t.Helper()
	cfg := testConfig()
	store := newStore(t)
	users := service.NewUserService(cfg, store, service.NewAuthService(cfg), upstream,
		service.NewPostsResolver(store, upstream), discardLogger())

	r := chi.NewRouter()
	NewUserHandler(cfg, users, discardLogger()).Routes(r)
	NewUserOpsHandler(cfg).Routes(r)
	return r
}

func TestUsers_RegisterLoginProfile(t *testing.T) {
	h := userRouter(t, &stubPosts{})

	reg := model.UserCreate{Name: "Ann", Email: "ann@example.com", Password: "secret1"}
	var u model.User
	if code := do(t, h, http.MethodPost, "/api/users/register", "", reg, &u); code != http.StatusOK || u.ID == 0 {
		t.Fatalf("register = %d %+v", code, u)
	}

	var eb errorBody
	if code := do(t, h, http.MethodPost, "/api/users/register", "", reg, &eb); code != http.StatusBadRequest || eb.Detail != "Email already registered" {
		t.Errorf("duplicate = %d %+v", code, eb)
	}

	if code := do(t, h, http.MethodPost, "/api/users/login", "", model.UserLogin{Email: "ann@example.com", Password: "wrong!"}, &eb); code != http.StatusBadRequest || eb.Detail != "Invalid credentials" {
		t.Errorf("bad login = %d %+v", code, eb)
	}

	var tok tokenBody
	if code := do(t, h, http.MethodPost, "/api/users/login", "", model.UserLogin{Email: "ann@example.com", Password: "secret1"}, &tok); code != http.StatusOK || tok.Token == "" {
		t.Fatalf("login = %d %+v", code, tok)
	}

	if code := do(t, h, http.MethodGet, "/api/users/me", "", nil, &eb); code != http.StatusUnauthorized {
		t.Errorf("me without token = %d", code)
	}
	if code := do(t, h, http.MethodGet, "/api/users/me", "garbage", nil, &eb); code != http.StatusUnauthorized {
		t.Errorf("me with bad token = %d", code)
	}

	var me model.User
	if code := do(t, h, http.MethodGet, "/api/users/me", tok.Token, nil, &me); code != http.StatusOK || me.Email != "ann@example.com" {
		t.Errorf("me = %d %+v", code, me)
	}

	var msg messageBody
	if code := do(t, h, http.MethodPut, "/api/users/me", tok.Token, model.UserUpdate{Name: "Ann B", Bio: "drives"}, &msg); code != http.StatusOK || msg.Message != "Profile updated successfully" {
		t.Errorf("update me = %d %+v", code, msg)
	}

	var byID model.User
	if code := do(t, h, http.MethodGet, "/api/users/1", "", nil, &byID); code != http.StatusOK || byID.Name != "Ann B" || byID.Bio != "drives" {
		t.Errorf("get by id = %d %+v", code, byID)
	}
	if code := do(t, h, http.MethodGet, "/api/users/99", "", nil, &eb); code != http.StatusNotFound || eb.Detail != "User not found" {
		t.Errorf("missing user = %d %+v", code, eb)
	}
}

func TestUsers_Posts(t *testing.T) {
	upstream := &stubPosts{}
	h := userRouter(t, upstream)

	var u model.User
	do(t, h, http.MethodPost, "/api/users/register", "", model.UserCreate{Name: "Ann", Email: "ann@example.com", Password: "secret1"}, &u)

	var p model.Post
	in := model.PostInput{Title: "Civic", Content: "reliable", CarModel: "Honda"}
	if code := do(t, h, http.MethodPost, "/api/users/1/posts", "", in, &p); code != http.StatusCreated || p.UserID != 1 {
		t.Fatalf("create post = %d %+v", code, p)
	}

	var up model.UserPosts
	if code := do(t, h, http.MethodGet, "/api/users/1/posts", "", nil, &up); code != http.StatusOK {
		t.Fatalf("user posts = %d", code)
	}
	if up.User == nil || up.User.ID != 1 || len(up.Posts) != 1 {
		t.Errorf("user posts = %+v", up)
	}

	var eb errorBody
	if code := do(t, h, http.MethodPost, "/api/users/99/posts", "", in, &eb); code != http.StatusNotFound {
		t.Errorf("post for missing user = %d", code)
	}
}

func TestUsers_UpstreamErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		detail string
	}{
		{model.ErrUpstreamTimeout, http.StatusGatewayTimeout, "Post service request timed out"},
		{model.ErrUpstreamUnavailable, http.StatusServiceUnavailable, "Post service unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.detail, func(t *testing.T) {
			upstream := &stubPosts{}
			h := userRouter(t, upstream)
			do(t, h, http.MethodPost, "/api/users/register", "", model.UserCreate{Name: "Ann", Email: "ann@example.com", Password: "secret1"}, nil)

			upstream.mu.Lock()
			upstream.err = tt.err
			upstream.mu.Unlock()

			var eb errorBody
			if code := do(t, h, http.MethodGet, "/api/users/1/posts", "", nil, &eb); code != tt.status || eb.Detail != tt.detail {
				t.Errorf("got %d %+v", code, eb)
			}
		})
	}
}

func TestUsers_ProcessAndStatus(t *testing.T) {
	h := userRouter(t, &stubPosts{})

	var msg messageBody
	if code := do(t, h, http.MethodGet, "/process", "", nil, &msg); code != http.StatusOK || msg.Message != "Task completed" {
		t.Errorf("process = %d %+v", code, msg)
	}
	var st statusBody
	if code := do(t, h, http.MethodGet, "/status", "", nil, &st); code != http.StatusOK || st.Status != "User service instance node-a is running" {
		t.Errorf("status = %d %+v", code, st)
	}
}

func TestErrorMapper(t *testing.T) {
	m := errorMapper{logger: discardLogger()}
	tests := []struct {
		err    error
		status int
	}{
		{&model.ValidationError{Field: "title", Reason: "is required"}, http.StatusUnprocessableEntity},
		{model.ErrNotFound, http.StatusNotFound},
		{model.ErrConflict, http.StatusBadRequest},
		{model.ErrUnauthorized, http.StatusUnauthorized},
		{model.ErrTaskTimeout, http.StatusRequestTimeout},
		{model.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{model.ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{model.ErrStorage, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.fail(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err, "Thing not found")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var eb errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &eb); err != nil || eb.Detail == "" {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}
