package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/domain/registry"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// CommentStream owns the live side of a post service process: the registry
// of connections and the supervised relay that feeds it from the bus.
type CommentStream struct {
	hub    registry.Hubber
	relay  suture.Service
	logger *slog.Logger
	spec   suture.Spec

	mu     sync.Mutex
	cancel context.CancelFunc
	done   <-chan error
}

func NewCommentStream(cfg *config.Config, hub registry.Hubber, relay suture.Service, logger *slog.Logger) *CommentStream {
	backoff := cfg.Bus.ReconnectWait
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	return &CommentStream{
		hub:    hub,
		relay:  relay,
		logger: logger.With("component", "stream"),
		spec: suture.Spec{
			EventHook:        (&sutureslog.Handler{Logger: logger}).MustHook(),
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   backoff,
			Timeout:          10 * time.Second,
		},
	}
}

// Start launches the relay under a supervisor. It returns immediately; the
// subscription is established in the background and re-established
// whenever the relay fails.
func (s *CommentStream) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	sup := suture.New("comment-stream", s.spec)
	sup.Add(s.relay)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = sup.ServeBackground(ctx)

	s.logger.Info("COMMENT_STREAM_STARTED")
	return nil
}

// Stop halts the relay first so nothing feeds the registry, then closes
// every live connection.
func (s *CommentStream) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	var err error
	if cancel != nil {
		cancel()
		select {
		case serr := <-done:
			if serr != nil && !errors.Is(serr, context.Canceled) {
				s.logger.Warn("RELAY_SUPERVISOR_EXIT", "err", serr)
			}
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	s.hub.Shutdown()
	s.logger.Info("COMMENT_STREAM_STOPPED")
	return err
}

func (s *CommentStream) Hub() registry.Hubber { return s.hub }
