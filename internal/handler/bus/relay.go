package bus

import (
	"context"
	"log/slog"

	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/domain/registry"
	"github.com/carrec/platform/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RelayHandler delivers comments received from the bus to local listeners.
type RelayHandler struct {
	hub    registry.Hubber
	logger *slog.Logger
	tracer trace.Tracer
}

func NewRelayHandler(hub registry.Hubber, logger *slog.Logger, tracer trace.Tracer) *RelayHandler {
	return &RelayHandler{
		hub:    hub,
		logger: logger.With("component", "relay"),
		tracer: tracer,
	}
}

// [ON_COMMENT_CREATED]
// Every instance relays every comment, its own publications included.
func (h *RelayHandler) OnCommentCreated(ctx context.Context, ev *model.CommentEvent) error {
	_, span := h.tracer.Start(ctx, "relay.comment_created", trace.WithAttributes(
		attribute.Int64("post.id", ev.PostID),
		attribute.String("event.id", ev.EventID),
		attribute.String("event.origin", ev.Origin),
	))
	defer span.End()

	delivered := registry.BroadcastComment(h.hub, *ev)
	metrics.StreamBroadcasts.WithLabelValues("relay").Inc()
	span.SetAttributes(attribute.Int("delivered", delivered))

	h.logger.Debug("COMMENT_RELAYED",
		"event_id", ev.EventID,
		"post_id", ev.PostID,
		"origin", ev.Origin,
		"delivered", delivered,
	)
	return nil
}
