package factory

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
)

type amqpFactory struct {
	config amqp.Config
	logger watermill.LoggerAdapter
}

// newAMQPFactory uses a fanout exchange per topic. Queues are non-durable
// and suffixed with the instance id, so a restarted process starts from
// the live edge of the stream.
func newAMQPFactory(cfg Config, logger watermill.LoggerAdapter) *amqpFactory {
	return &amqpFactory{
		config: amqp.NewNonDurablePubSubConfig(
			cfg.URL,
			amqp.GenerateQueueNameTopicNameWithSuffix(cfg.InstanceID),
		),
		logger: logger,
	}
}

func (f *amqpFactory) Driver() string { return DriverAMQP }

func (f *amqpFactory) BuildPublisher() (message.Publisher, error) {
	pub, err := amqp.NewPublisher(f.config, f.logger)
	if err != nil {
		return nil, fmt.Errorf("amqp publisher: %w", err)
	}
	return pub, nil
}

func (f *amqpFactory) BuildSubscriber() (message.Subscriber, error) {
	sub, err := amqp.NewSubscriber(f.config, f.logger)
	if err != nil {
		return nil, fmt.Errorf("amqp subscriber: %w", err)
	}
	return sub, nil
}
