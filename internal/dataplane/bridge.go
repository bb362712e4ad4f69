package dataplane

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"
)

// Bridge converts a typed data-plane request into a serialized payload
// plus a single-shot completion slot, and resolves a pending response to
// a typed value or a typed error. It is the sole serialization boundary
// between the session state machine and the out-of-process data plane.
//
// Requests are published as watermill messages (the "JSON over a
// cross-thread channel" transport spec.md describes); the data plane's
// replies are delivered back by an external consumer calling Resolve with
// the same message UUID used as the correlation id. This is the channel
// half of the call.rs oneshot pattern: the Sender lives with the reply
// consumer, the Receiver is the entry kept in pending.
type Bridge struct {
	publisher    message.Publisher
	requestTopic string

	breaker *gobreaker.CircuitBreaker

	mu      sync.Mutex
	pending map[string]chan json.RawMessage
}

// NewBridge constructs a Bridge publishing request envelopes to
// requestTopic. breakerSettings configures the circuit breaker that
// trips after repeated data-plane failures; a zero value uses gobreaker's
// defaults.
func NewBridge(publisher message.Publisher, requestTopic string, breakerSettings gobreaker.Settings) *Bridge {
	return &Bridge{
		publisher:    publisher,
		requestTopic: requestTopic,
		breaker:      gobreaker.NewCircuitBreaker(breakerSettings),
		pending:      make(map[string]chan json.RawMessage),
	}
}

// Resolve delivers a data-plane reply to the call that issued it. It is
// called by whatever consumes the data plane's response stream (see
// internal/dataplane's router wiring). Replies for unknown/ already
// resolved correlation ids are dropped.
func (b *Bridge) Resolve(correlationID string, raw json.RawMessage) {
	b.mu.Lock()
	ch, ok := b.pending[correlationID]
	if ok {
		delete(b.pending, correlationID)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	ch <- raw
	close(ch)
}

// Cancel drops a pending call without a reply, surfacing ErrCallCanceled
// to the waiter. Used when the data plane's transport itself closes.
func (b *Bridge) Cancel(correlationID string) {
	b.mu.Lock()
	ch, ok := b.pending[correlationID]
	if ok {
		delete(b.pending, correlationID)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (b *Bridge) forget(correlationID string) {
	b.mu.Lock()
	delete(b.pending, correlationID)
	b.mu.Unlock()
}

// dispatch is the one generic operation the bridge exposes: serialize
// req, hand it to the publisher, and block for the matching reply (or
// ctx cancellation). The circuit breaker wraps the whole round trip so a
// persistently failing data plane fails new calls fast instead of
// queueing every connection behind a dead backend.
func (b *Bridge) dispatch(ctx context.Context, req request) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &SerializationError{Command: req.Command(), Cause: err}
	}

	result, err := b.breaker.Execute(func() (interface{}, error) {
		correlationID := watermill.NewUUID()
		replyCh := make(chan json.RawMessage, 1)

		b.mu.Lock()
		b.pending[correlationID] = replyCh
		b.mu.Unlock()

		msg := message.NewMessage(correlationID, payload)
		msg.Metadata.Set("command", req.Command())
		msg.SetContext(ctx)

		if err := b.publisher.Publish(b.requestTopic, msg); err != nil {
			b.forget(correlationID)
			return nil, err
		}

		select {
		case raw, ok := <-replyCh:
			if !ok {
				return nil, ErrCallCanceled
			}
			var env errorEnvelope
			if json.Unmarshal(raw, &env) == nil && env.Error {
				return nil, &RemoteError{Msg: env.ErrorMsg}
			}
			return raw, nil
		case <-ctx.Done():
			b.forget(correlationID)
			return nil, ctx.Err()
		}
	})
	if err != nil {
		return nil, err
	}
	return result.(json.RawMessage), nil
}
