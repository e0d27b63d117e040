// Package pubsub owns the process-wide bus connection.
package pubsub

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/carrec/platform/config"
	"github.com/carrec/platform/infra/pubsub/factory"
)

// Provider hands out the shared publisher and subscriber. Both are built on
// first use and closed together.
type Provider interface {
	GetFactory() factory.Factory
	Publisher() (message.Publisher, error)
	Subscriber() (message.Subscriber, error)
	Close() error
}

type provider struct {
	factory factory.Factory

	mu  sync.Mutex
	pub message.Publisher
	sub message.Subscriber
}

func NewProvider(cfg *config.Config, logger watermill.LoggerAdapter) (Provider, error) {
	f, err := factory.New(factory.Config{
		Driver:        cfg.Bus.Driver,
		URL:           cfg.Bus.URL,
		InstanceID:    cfg.Service.InstanceID,
		ReconnectWait: cfg.Bus.ReconnectWait,
		MaxReconnects: cfg.Bus.MaxReconnects,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &provider{factory: f}, nil
}

func (p *provider) GetFactory() factory.Factory { return p.factory }

func (p *provider) Publisher() (message.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pub == nil {
		pub, err := p.factory.BuildPublisher()
		if err != nil {
			return nil, err
		}
		p.pub = pub
	}
	return p.pub, nil
}

func (p *provider) Subscriber() (message.Subscriber, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sub == nil {
		sub, err := p.factory.BuildSubscriber()
		if err != nil {
			return nil, err
		}
		p.sub = sub
	}
	return p.sub, nil
}

func (p *provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.sub != nil {
		if err := p.sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	// The memory driver shares one GoChannel for both roles.
	if p.pub != nil && any(p.pub) != any(p.sub) {
		if err := p.pub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	p.pub, p.sub = nil, nil
	return errors.Join(errs...)
}
