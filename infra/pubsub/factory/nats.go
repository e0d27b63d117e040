package factory

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

type natsFactory struct {
	cfg    Config
	logger watermill.LoggerAdapter
}

func newNATSFactory(cfg Config, logger watermill.LoggerAdapter) *natsFactory {
	return &natsFactory{cfg: cfg, logger: logger}
}

func (f *natsFactory) Driver() string { return DriverNATS }

func (f *natsFactory) options(role string) []natsgo.Option {
	return []natsgo.Option{
		natsgo.Name("carrec-" + role + "-" + f.cfg.InstanceID),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(f.cfg.MaxReconnects),
		natsgo.ReconnectWait(f.cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				f.logger.Error("NATS disconnected", err, watermill.LogFields{"role": role})
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			f.logger.Info("NATS reconnected", watermill.LogFields{
				"role": role,
				"url":  nc.ConnectedUrl(),
			})
		}),
	}
}

// BuildPublisher uses core NATS. Comments are broadcast live; there is no
// replay to back with a JetStream stream.
func (f *natsFactory) BuildPublisher() (message.Publisher, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         f.cfg.URL,
		NatsOptions: f.options("pub"),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("nats publisher: %w", err)
	}
	return pub, nil
}

// BuildSubscriber leaves QueueGroupPrefix empty: a queue group would split
// the stream between instances instead of copying it to each.
func (f *natsFactory) BuildSubscriber() (message.Subscriber, error) {
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              f.cfg.URL,
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		CloseTimeout:     30 * time.Second,
		NatsOptions:      f.options("sub"),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        wmNats.JetStreamConfig{Disabled: true},
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("nats subscriber: %w", err)
	}
	return sub, nil
}
