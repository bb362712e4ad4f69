package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

func TestRegistryConnectExactlyOneMailboxPerUAID(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	uaid := model.NewUserID()

	first := r.Connect(uaid)
	require.True(t, r.IsConnected(uaid))

	second := r.Connect(uaid)

	_, firstOpen := <-first.Receive()
	assert.False(t, firstOpen, "superseded mailbox must be closed")

	assert.True(t, r.IsConnected(uaid))
	second.Push(model.NewPushNotification(model.Notification{ChannelID: model.NewChannelID(), Version: "1"}))
	n := <-second.Receive()
	assert.Equal(t, "1", n.Notification.Version)
}

func TestRegistryDisconnectIgnoresSupersededMailbox(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	uaid := model.NewUserID()
	first := r.Connect(uaid)
	second := r.Connect(uaid)

	// Disconnecting the stale mailbox must not tear down the current one.
	r.Disconnect(uaid, first)
	assert.True(t, r.IsConnected(uaid))

	r.Disconnect(uaid, second)
	assert.False(t, r.IsConnected(uaid))
}

func TestRegistryDeliverWithoutConnectionReportsFalse(t *testing.T) {
	r := NewRegistry()
	defer r.Shutdown()

	ok := r.Deliver(model.NewUserID(), model.NewCheckStorageNotification())
	assert.False(t, ok)
}

func TestJanitorReclaimsStaleMailboxes(t *testing.T) {
	r := NewRegistry(WithEvictionInterval(10*time.Millisecond), WithIdleTimeout(20*time.Millisecond))
	defer r.Shutdown()

	uaid := model.NewUserID()
	mb := r.Connect(uaid)

	require.Eventually(t, func() bool {
		select {
		case _, open := <-mb.Receive():
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	assert.False(t, r.IsConnected(uaid))
}
