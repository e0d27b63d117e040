// Package postsvc is the user service's HTTP client for the post service.
package postsvc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
)

// Client calls the post service with a per-call timeout behind a circuit
// breaker. Timeouts surface as model.ErrUpstreamTimeout and an open breaker
// as model.ErrUpstreamUnavailable.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Client {
	logger = logger.With("component", "postsvc")
	return &Client{
		baseURL: strings.TrimRight(cfg.Upstream.PostServiceURL, "/"),
		timeout: cfg.Upstream.Timeout,
		http:    &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "post-service",
			MaxRequests: 1,
			Timeout:     cfg.Upstream.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 3 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("CIRCUIT_STATE_CHANGED", "breaker", name, "from", from.String(), "to", to.String())
			},
			IsSuccessful: func(err error) bool {
				// Answers about the request itself say nothing about upstream health.
				return err == nil || errors.Is(err, model.ErrNotFound) || model.IsValidation(err)
			},
		}),
		logger: logger,
	}
}

func (c *Client) CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}
	var out model.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPostsByUser(ctx context.Context, userID int64) ([]model.Post, error) {
	q := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	var out []model.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})

	switch {
	case err == nil:
		metrics.UpstreamRequests.WithLabelValues("ok").Inc()
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.UpstreamRequests.WithLabelValues("open").Inc()
		return fmt.Errorf("post service: %w: %w", model.ErrUpstreamUnavailable, err)
	case errors.Is(err, model.ErrUpstreamTimeout):
		metrics.UpstreamRequests.WithLabelValues("timeout").Inc()
		return err
	default:
		metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return err
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("post service request timed out: %w", model.ErrUpstreamTimeout)
		}
		return fmt.Errorf("post service: %w: %w", model.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusErr(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("post service request timed out: %w", model.ErrUpstreamTimeout)
		}
		return fmt.Errorf("post service: decode response: %w", err)
	}
	return nil
}

type errorBody struct {
	Detail string `json:"detail"`
}

func statusErr(resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
	if eb.Detail == "" {
		eb.Detail = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("post service: %s: %w", eb.Detail, model.ErrNotFound)
	case resp.StatusCode == http.StatusRequestTimeout:
		return fmt.Errorf("post service: %s: %w", eb.Detail, model.ErrUpstreamTimeout)
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return &model.ValidationError{Reason: eb.Detail}
	default:
		return fmt.Errorf("post service: status %d: %s: %w", resp.StatusCode, eb.Detail, model.ErrUpstreamUnavailable)
	}
}
