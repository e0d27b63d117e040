// Package factory builds watermill publishers and subscribers for the
// configured bus driver.
package factory

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	DriverMemory = "memory"
	DriverAMQP   = "amqp"
	DriverNATS   = "nats"
)

// Factory hides the transport behind watermill's interfaces. Every
// subscriber it builds receives every message published on a topic; the
// bus is used as a fan-out channel, not a work queue.
type Factory interface {
	Driver() string
	BuildPublisher() (message.Publisher, error)
	BuildSubscriber() (message.Subscriber, error)
}

// Config carries the transport settings shared by all drivers.
type Config struct {
	Driver string
	URL    string
	// InstanceID makes per-process queue names unique so each process gets
	// its own copy of the stream.
	InstanceID    string
	ReconnectWait time.Duration
	MaxReconnects int
	// MemoryBuffer sizes the in-process channel of the memory driver.
	MemoryBuffer int64
}

func New(cfg Config, logger watermill.LoggerAdapter) (Factory, error) {
	switch cfg.Driver {
	case DriverAMQP:
		return newAMQPFactory(cfg, logger), nil
	case DriverNATS:
		return newNATSFactory(cfg, logger), nil
	case DriverMemory, "":
		return newMemoryFactory(cfg, logger), nil
	default:
		return nil, fmt.Errorf("pubsub factory: unknown driver %q", cfg.Driver)
	}
}
