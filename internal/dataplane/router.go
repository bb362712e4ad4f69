package dataplane

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
)

// ReplyRouter subscribes to the data plane's reply topic and resolves
// each message against the Bridge's pending call table by message UUID.
// This is the consumer half split out from Bridge.dispatch: dispatch
// owns the call slot, ReplyRouter owns draining the wire.
type ReplyRouter struct {
	bridge     *Bridge
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger
}

func NewReplyRouter(bridge *Bridge, subscriber message.Subscriber, replyTopic string, logger *slog.Logger) *ReplyRouter {
	return &ReplyRouter{bridge: bridge, subscriber: subscriber, topic: replyTopic, logger: logger}
}

// Run drains the reply subscription until ctx is canceled. It is meant
// to be started as a long-lived goroutine from the fx lifecycle.
func (r *ReplyRouter) Run(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topic)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			r.bridge.Resolve(msg.UUID, json.RawMessage(msg.Payload))
			msg.Ack()
		}
	}
}
