package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carrec/platform/config"
	"github.com/carrec/platform/internal/adapter/pubsub"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/domain/registry"
	"github.com/carrec/platform/internal/metrics"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ingester accepts comments arriving over live connections.
type Ingester interface {
	Ingest(ctx context.Context, key model.StreamKey, raw []byte) (*model.PersistedComment, error)
}

type CommentService struct {
	store      CommentStore
	hub        registry.Hubber
	bridge     pubsub.Bridge
	topic      string
	instanceID string
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewCommentService(
	cfg *config.Config,
	store CommentStore,
	hub registry.Hubber,
	bridge pubsub.Bridge,
	logger *slog.Logger,
	tracer trace.Tracer,
) *CommentService {
	return &CommentService{
		store:      store,
		hub:        hub,
		bridge:     bridge,
		topic:      cfg.Bus.Topic,
		instanceID: cfg.Service.InstanceID,
		logger:     logger.With("component", "ingest"),
		tracer:     tracer,
	}
}

// Ingest validates, persists, broadcasts locally and publishes a comment.
//
// A *model.ValidationError means nothing was stored or published. An error
// matching model.ErrStorage is the only failure of an accepted payload. A
// failed publish is logged and does not fail the call: the comment is
// stored and local listeners already have it.
func (s *CommentService) Ingest(ctx context.Context, key model.StreamKey, raw []byte) (*model.PersistedComment, error) {
	ctx, span := s.tracer.Start(ctx, "comment.ingest", trace.WithAttributes(
		attribute.String("stream.key", key.String()),
	))
	defer span.End()

	// 1. [DECODING]
	var sub model.CommentSubmission
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, s.reject(span, &model.ValidationError{Reason: "malformed JSON"})
	}

	// 2. [VALIDATION]
	postID, authorID, text, err := sub.Resolve(key)
	if err != nil {
		return nil, s.reject(span, err)
	}
	span.SetAttributes(attribute.Int64("post.id", postID), attribute.Int64("author.id", authorID))

	// 3. [PERSISTENCE]
	comment, err := s.store.CreateComment(ctx, postID, authorID, text)
	if err != nil {
		if !errors.Is(err, model.ErrStorage) {
			err = fmt.Errorf("%w: %w", model.ErrStorage, err)
		}
		metrics.CommentsRejected.WithLabelValues("storage").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage")
		s.logger.Error("COMMENT_STORE_FAILED", "err", err, "post_id", postID, "author_id", authorID)
		return nil, err
	}
	metrics.CommentsStored.Inc()

	ev := comment.ToEvent(uuid.NewString(), s.instanceID)
	span.SetAttributes(attribute.String("event.id", ev.EventID))

	// 4. [LOCAL_DISPATCH]
	delivered := registry.BroadcastComment(s.hub, ev)
	metrics.StreamBroadcasts.WithLabelValues("local").Inc()

	// 5. [GLOBAL_DISPATCH]
	if err := s.bridge.Publish(ctx, s.topic, ev); err != nil {
		span.RecordError(err)
		s.logger.Warn("COMMENT_PUBLISH_FAILED",
			"err", err,
			"event_id", ev.EventID,
			"comment_id", comment.ID,
			"post_id", postID,
		)
	}

	s.logger.Debug("COMMENT_INGESTED",
		"event_id", ev.EventID,
		"comment_id", comment.ID,
		"post_id", postID,
		"delivered_locally", delivered,
	)
	return comment, nil
}

func (s *CommentService) reject(span trace.Span, err error) error {
	metrics.CommentsRejected.WithLabelValues("validation").Inc()
	span.SetStatus(codes.Error, "validation")
	s.logger.Debug("COMMENT_REJECTED", "err", err)
	return err
}
