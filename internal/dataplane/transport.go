package dataplane

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// TransportConfig selects and configures the pub/sub backing the data
// plane call bridge. The AMQP backend is the production transport; the
// in-process backend is for local runs and tests where no broker is
// available.
type TransportConfig struct {
	Backend      string // "amqp" or "inprocess"
	AMQPURI      string
	RequestQueue string
	ReplyQueue   string
}

// NewPubSub builds the watermill Publisher/Subscriber pair for the
// configured backend. For "inprocess" the same gochannel instance backs
// both publish and subscribe, so a Bridge talking to itself (tests, or a
// data plane stub running in the same process) can round-trip messages.
func NewPubSub(cfg TransportConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	switch cfg.Backend {
	case "amqp":
		pubConfig := amqp.NewDurablePubSubConfig(cfg.AMQPURI, nil)
		publisher, err := amqp.NewPublisher(pubConfig, logger)
		if err != nil {
			return nil, nil, err
		}
		subscriber, err := amqp.NewSubscriber(pubConfig, logger)
		if err != nil {
			return nil, nil, err
		}
		return publisher, subscriber, nil
	default:
		gc := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, logger)
		return gc, gc, nil
	}
}
