package pubsub

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	infrapubsub "github.com/carrec/platform/infra/pubsub"
	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/metrics"
	"go.opentelemetry.io/otel/trace"
)

const (
	MetadataTraceID = "trace_id"
	MetadataOrigin  = "origin"
)

// Bridge defines the contract between the comment pipeline and the bus.
// This allows the services to stay agnostic of the transport implementation.
type Bridge interface {
	// Publish is fire-and-forget. A failure is returned wrapped in
	// model.ErrDelivery and never retried here.
	Publish(ctx context.Context, topic string, ev model.CommentEvent) error
	// Subscribe yields every message published on topic from now on. The
	// channel closes when ctx is done or the transport goes away; a closed
	// subscription is not resumed, callers subscribe again.
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// eventDispatcher is the concrete implementation (private).
type eventDispatcher struct {
	provider infrapubsub.Provider
}

// NewBridge returns the interface instead of the pointer to the struct.
func NewBridge(p infrapubsub.Provider) Bridge {
	return &eventDispatcher{provider: p}
}

func (d *eventDispatcher) Publish(ctx context.Context, topic string, ev model.CommentEvent) error {
	payload, err := EncodeCommentEvent(ev)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrDelivery, err)
	}

	id := ev.EventID
	if id == "" {
		id = watermill.NewUUID()
	}
	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(MetadataTraceID, traceIDFrom(ctx))
	if ev.Origin != "" {
		msg.Metadata.Set(MetadataOrigin, ev.Origin)
	}

	pub, err := d.provider.Publisher()
	if err != nil {
		metrics.BusPublishFailures.Inc()
		return fmt.Errorf("%w: publisher unavailable: %w", model.ErrDelivery, err)
	}
	if err := pub.Publish(topic, msg); err != nil {
		metrics.BusPublishFailures.Inc()
		return fmt.Errorf("%w: publish to %s: %w", model.ErrDelivery, topic, err)
	}

	metrics.BusPublished.Inc()
	return nil
}

func (d *eventDispatcher) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	sub, err := d.provider.Subscriber()
	if err != nil {
		return nil, fmt.Errorf("subscriber unavailable: %w", err)
	}
	ch, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return ch, nil
}

// ErrNilEvent is returned when decoding an empty payload.
var ErrNilEvent = errors.New("empty comment event")

func traceIDFrom(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	if id, ok := ctx.Value(TraceIDKey{}).(string); ok && id != "" {
		return id
	}
	return watermill.NewUUID()
}

// TraceIDKey carries the correlation id of a bus message through handlers.
type TraceIDKey struct{}
