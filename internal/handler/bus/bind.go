package bus

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/carrec/platform/internal/metrics"
)

// Decoder turns a bus body into a validated payload.
type Decoder[T any] func(payload []byte) (T, error)

// DomainHandler defines the functional signature for business logic.
type DomainHandler[T any] func(ctx context.Context, payload *T) error

// [INFRASTRUCTURE_BRIDGE]
// Bind connects Watermill to domain logic. Messages that cannot be decoded
// are reported and swallowed so the caller ACKs them.
func Bind[T any](h *RelayHandler, decode Decoder[T], fn DomainHandler[T]) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		// [DECODING]
		payload, err := decode(msg.Payload)
		if err != nil {
			metrics.RelayDecodeFailures.Inc()
			h.logger.Warn("DECODE_FAILED",
				"err", err,
				"msg_id", msg.UUID,
				"trace_id", msg.Metadata.Get("trace_id"),
			)
			return nil, nil // ACK: Poison Pill protection.
		}

		// [EXECUTION]
		return nil, fn(msg.Context(), &payload)
	}
}
