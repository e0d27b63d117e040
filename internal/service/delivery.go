package service

import (
	"context"
	"errors"

	"github.com/carrec/platform/internal/domain/model"
	"github.com/carrec/platform/internal/domain/registry"
)

var ErrEmptyStreamKey = errors.New("empty stream key")

// [DELIVERY_SERVICE] PRIMARY INTERFACE FOR TRANSPORT HANDLERS (Websocket)
type Deliverer interface {
	Subscribe(ctx context.Context, key model.StreamKey) (registry.Connector, error)
	Unsubscribe(conn registry.Connector)
}

type DeliveryService struct {
	hub registry.Hubber
}

func NewDeliveryService(hub registry.Hubber) *DeliveryService {
	return &DeliveryService{
		hub: hub,
	}
}

// [SUBSCRIBE] HANDLES CONNECTION LIFECYCLE INITIATION
func (s *DeliveryService) Subscribe(ctx context.Context, key model.StreamKey) (registry.Connector, error) {
	if key == "" {
		return nil, ErrEmptyStreamKey
	}

	// 1. Create a connector bound to the stream for its whole life
	conn := s.hub.NewConnector(ctx, key)

	// 2. Attach to the registry; broadcasts from now on reach it
	s.hub.Register(conn)

	return conn, nil
}

// [UNSUBSCRIBE] Idempotent; the transport defers it unconditionally.
func (s *DeliveryService) Unsubscribe(conn registry.Connector) {
	s.hub.Unregister(conn)
}
