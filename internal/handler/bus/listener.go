package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/adapter/pubsub"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/metrics"
	"github.com/thejerf/suture/v4"
)

// ErrSubscriptionClosed is returned when the bus drops the subscription
// while the listener is still wanted. The supervisor restarts the listener,
// which subscribes again; comments published in between are not replayed.
var ErrSubscriptionClosed = errors.New("relay: subscription closed")

var _ suture.Service = (*Listener)(nil)

// Listener is the long-running relay task of a process.
type Listener struct {
	bridge  pubsub.Bridge
	topic   string
	logger  *slog.Logger
	handler message.HandlerFunc

	readyOnce sync.Once
	ready     chan struct{}
}

func NewListener(cfg *config.Config, bridge pubsub.Bridge, h *RelayHandler) *Listener {
	return &Listener{
		bridge: bridge,
		topic:  cfg.Bus.Topic,
		logger: h.logger,
		ready:  make(chan struct{}),
		// [REGISTRATION_PIPELINE]
		handler: chain(
			Bind[model.CommentEvent](h, pubsub.DecodeCommentEvent, h.OnCommentCreated),
			middleware.Recoverer,
			TraceIDMiddleware,
			LoggingMiddleware(h.logger),
		),
	}
}

// Serve implements suture.Service.
func (l *Listener) Serve(ctx context.Context) error {
	msgs, err := l.bridge.Subscribe(ctx, l.topic)
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	metrics.RelaySubscriptions.Inc()
	l.readyOnce.Do(func() { close(l.ready) })
	l.logger.Info("RELAY_SUBSCRIBED", "topic", l.topic)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Warn("RELAY_SUBSCRIPTION_LOST", "topic", l.topic)
				return ErrSubscriptionClosed
			}
			l.handle(msg)
		}
	}
}

// handle never NACKs: a broadcast cannot fail as a whole and a redelivered
// comment would reach listeners twice.
func (l *Listener) handle(msg *message.Message) {
	metrics.RelayReceived.Inc()
	if _, err := l.handler(msg); err != nil {
		l.logger.Error("RELAY_HANDLER_FAILED", "err", err, "msg_id", msg.UUID)
	}
	msg.Ack()
}

// Ready is closed once the first subscription is established.
func (l *Listener) Ready() <-chan struct{} { return l.ready }

func (l *Listener) String() string { return "comment-relay" }
