package factory

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// memoryFactory serves single-process deployments and tests. Publisher and
// subscriber are the same GoChannel, otherwise nothing would connect them.
type memoryFactory struct {
	ch *gochannel.GoChannel
}

func newMemoryFactory(cfg Config, logger watermill.LoggerAdapter) *memoryFactory {
	buffer := cfg.MemoryBuffer
	if buffer <= 0 {
		buffer = 1024
	}
	return &memoryFactory{
		ch: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, logger),
	}
}

func (f *memoryFactory) Driver() string { return DriverMemory }

func (f *memoryFactory) BuildPublisher() (message.Publisher, error)   { return f.ch, nil }
func (f *memoryFactory) BuildSubscriber() (message.Subscriber, error) { return f.ch, nil }
