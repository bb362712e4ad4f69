package session

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"github.com/webitel/webpush-connection-engine/internal/dataplane"
	"github.com/webitel/webpush-connection-engine/internal/domain/model"
	"github.com/webitel/webpush-connection-engine/internal/registry"
)

// fakeTransport is a scripted Transport: frames queued in msgs are
// yielded one at a time, and everything sent by the machine is recorded.
type fakeTransport struct {
	msgs chan model.ClientMessage
	errs chan error
	sent chan model.ServerMessage
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		msgs: make(chan model.ClientMessage, 8),
		errs: make(chan error, 1),
		sent: make(chan model.ServerMessage, 8),
	}
}

func (t *fakeTransport) Messages() <-chan model.ClientMessage { return t.msgs }
func (t *fakeTransport) Errors() <-chan error                 { return t.errs }
func (t *fakeTransport) Send(ctx context.Context, msg model.ServerMessage) error {
	t.sent <- msg
	return nil
}
func (t *fakeTransport) RemoteAddr() string { return "127.0.0.1:0" }
func (t *fakeTransport) UserAgent() string  { return "test-agent" }

// scriptedStub answers each request the machine's Bridge issues with a
// fixed reply, matched purely by command name and sent in publish order.
// It stands in for the out-of-process data plane in these tests.
type scriptedStub struct {
	t       *testing.T
	gc      *gochannel.GoChannel
	replies map[string]interface{}
}

func newScriptedStub(t *testing.T, gc *gochannel.GoChannel, replies map[string]interface{}) *scriptedStub {
	return &scriptedStub{t: t, gc: gc, replies: replies}
}

func (s *scriptedStub) run(ctx context.Context) {
	messages, err := s.gc.Subscribe(ctx, "requests")
	require.NoError(s.t, err)
	go func() {
		for msg := range messages {
			command := msg.Metadata.Get("command")
			resp, ok := s.replies[command]
			if !ok {
				msg.Ack()
				continue
			}
			payload, err := json.Marshal(resp)
			if err != nil {
				msg.Ack()
				continue
			}
			reply := message.NewMessage(msg.UUID, payload)
			_ = s.gc.Publish("replies", reply)
			msg.Ack()
		}
	}()
}

func newTestMachine(t *testing.T, replies map[string]interface{}) (*Machine, *fakeTransport) {
	t.Helper()
	gc := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = gc.Close() })

	bridge := dataplane.NewBridge(gc, "requests", gobreaker.Settings{Name: "test"})
	router := dataplane.NewReplyRouter(bridge, gc, "replies", nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = router.Run(ctx) }()

	stub := newScriptedStub(t, gc, replies)
	stub.run(ctx)

	transport := newFakeTransport()
	reg := registry.NewRegistry()
	t.Cleanup(reg.Shutdown)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := NewMachine(transport, bridge, reg, noopMetrics{}, nil, logger, 2*time.Second)
	return m, transport
}

func TestMachineHelloThenRegisterThenDisconnect(t *testing.T) {
	m, transport := newTestMachine(t, map[string]interface{}{
		"hello":    dataplane.HelloResponse{UAID: strPtr(model.NewUserID().Hyphenated()), MessageMonth: "2026-07"},
		"register": dataplane.RegisterResponse{Endpoint: "https://push.example/abc"},
	})

	useWebPush := true
	transport.msgs <- model.HelloClientMessage{UseWebPush: &useWebPush}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	helloReply := requireSent[model.HelloServerMessage](t, transport)
	require.Equal(t, 200, helloReply.Status)

	channelID := model.NewChannelID()
	transport.msgs <- model.RegisterClientMessage{ChannelID: channelID}

	registerReply := requireSent[model.RegisterServerMessage](t, transport)
	require.Equal(t, 200, registerReply.Status)
	require.Equal(t, "https://push.example/abc", registerReply.PushEndpoint)

	close(transport.msgs)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("machine did not reach Done after socket close")
	}
}

func requireSent[T model.ServerMessage](t *testing.T, transport *fakeTransport) T {
	t.Helper()
	select {
	case msg := <-transport.sent:
		typed, ok := msg.(T)
		require.True(t, ok, "unexpected sent message type %T", msg)
		return typed
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a sent message")
	}
	var zero T
	return zero
}

func strPtr(s string) *string { return &s }
