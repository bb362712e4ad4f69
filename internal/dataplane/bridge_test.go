package dataplane

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

const (
	testRequestTopic = "requests"
	testReplyTopic   = "replies"
)

// newTestBridge wires a Bridge to an in-process gochannel pub/sub and
// starts a ReplyRouter draining it, mirroring internal/dataplane/module.go's
// wiring without the fx container.
func newTestBridge(t *testing.T) (*Bridge, message.Subscriber) {
	t.Helper()
	logger := watermill.NopLogger{}
	gc := gochannel.NewGoChannel(gochannel.Config{}, logger)
	t.Cleanup(func() { _ = gc.Close() })

	bridge := NewBridge(gc, testRequestTopic, gobreaker.Settings{Name: "test"})
	router := NewReplyRouter(bridge, gc, testReplyTopic, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = router.Run(ctx) }()

	return bridge, gc
}

// runStub consumes a single request off gc and replies with resp,
// correlated by the request's message UUID, standing in for the
// out-of-process data plane.
func runStub(t *testing.T, gc message.Subscriber, resp interface{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	messages, err := gc.Subscribe(ctx, testRequestTopic)
	require.NoError(t, err)

	go func() {
		msg, ok := <-messages
		if !ok {
			return
		}
		msg.Ack()

		payload, err := json.Marshal(resp)
		if err != nil {
			return
		}
		reply := message.NewMessage(msg.UUID, payload)
		pub := gc.(message.Publisher)
		_ = pub.Publish(testReplyTopic, reply)
	}()
}

func TestBridgeHelloRoundTrip(t *testing.T) {
	bridge, gc := newTestBridge(t)
	runStub(t, gc, HelloResponse{MessageMonth: "2026-07", ConnectedAt: 42})

	resp, err := bridge.Hello(t.Context(), 42, nil)
	require.NoError(t, err)
	require.Equal(t, "2026-07", resp.MessageMonth)
	require.EqualValues(t, 42, resp.ConnectedAt)
}

func TestBridgeRegisterRemoteErrorIsNotFatal(t *testing.T) {
	bridge, gc := newTestBridge(t)
	runStub(t, gc, errorEnvelope{Error: true, ErrorMsg: "channel exists"})

	resp, err := bridge.Register(t.Context(), model.NewUserID(), model.NewChannelID(), "2026-07", nil)
	require.NoError(t, err)
	require.True(t, resp.IsError())
	require.Equal(t, "channel exists", resp.ErrorMsg)
}

func TestBridgeCancelSurfacesCallCanceled(t *testing.T) {
	bridge, _ := newTestBridge(t)

	resultCh := make(chan error, 1)
	var correlationID string
	go func() {
		_, err := bridge.dispatch(context.Background(), helloRequest{Command_: "hello"})
		resultCh <- err
	}()

	require.Eventually(t, func() bool {
		bridge.mu.Lock()
		defer bridge.mu.Unlock()
		for id := range bridge.pending {
			correlationID = id
			return true
		}
		return false
	}, time.Second, time.Millisecond)

	bridge.Cancel(correlationID)

	select {
	case err := <-resultCh:
		require.ErrorIs(t, err, ErrCallCanceled)
	case <-time.After(time.Second):
		t.Fatal("dispatch did not return after Cancel")
	}
}

func TestBridgeContextCancellation(t *testing.T) {
	bridge, _ := newTestBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	resultCh := make(chan error, 1)
	go func() {
		_, err := bridge.dispatch(ctx, helloRequest{Command_: "hello"})
		resultCh <- err
	}()

	cancel()

	select {
	case err := <-resultCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("dispatch did not return after ctx cancel")
	}
}
