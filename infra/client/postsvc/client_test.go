package postsvc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/sony/gobreaker"
)

func newTestClient(url string, timeout time.Duration) *Client {
	cfg := &config.Config{Upstream: config.UpstreamConfig{
		PostServiceURL: url,
		Timeout:        timeout,
		BreakerTimeout: time.Minute,
	}}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_ListPostsByUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts" || r.URL.Query().Get("user_id") != "3" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":1,"title":"Civic","content":"c","car_model":"Honda","user_id":3,"comments":[]}]`)
	}))
	defer srv.Close()

	posts, err := newTestClient(srv.URL, time.Second).ListPostsByUser(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || posts[0].Title != "Civic" || posts[0].UserID != 3 {
		t.Errorf("posts = %+v", posts)
	}
}

func TestClient_CreatePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"title":"Civic","content":"c","car_model":"Honda","user_id":3}` {
			t.Errorf("body = %s", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":9,"title":"Civic","content":"c","car_model":"Honda","user_id":3}`)
	}))
	defer srv.Close()

	p, err := newTestClient(srv.URL, time.Second).CreatePost(context.Background(), model.PostInput{Title: "Civic", Content: "c", CarModel: "Honda", UserID: 3})
	if err != nil || p.ID != 9 {
		t.Fatalf("CreatePost() = %+v, %v", p, err)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 20*time.Millisecond).ListPostsByUser(context.Background(), 3)
	if !errors.Is(err, model.ErrUpstreamTimeout) {
		t.Errorf("error = %v, want ErrUpstreamTimeout", err)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusNotFound, func(err error) bool { return errors.Is(err, model.ErrNotFound) }},
		{http.StatusBadRequest, model.IsValidation},
		{http.StatusRequestTimeout, func(err error) bool { return errors.Is(err, model.ErrUpstreamTimeout) }},
		{http.StatusInternalServerError, func(err error) bool { return errors.Is(err, model.ErrUpstreamUnavailable) }},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"detail":"nope"}`)
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, time.Second).ListPostsByUser(context.Background(), 3)
			if !tt.check(err) {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func TestClient_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	for i := 0; i < 3; i++ {
		_, _ = c.ListPostsByUser(context.Background(), 3)
	}

	_, err := c.ListPostsByUser(context.Background(), 3)
	if !errors.Is(err, model.ErrUpstreamUnavailable) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want open breaker", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("upstream hits = %d, want 3", got)
	}
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	for i := 0; i < 5; i++ {
		if _, err := c.ListPostsByUser(context.Background(), 3); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("call %d error = %v", i, err)
		}
	}
}
