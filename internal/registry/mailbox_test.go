package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

func TestMailboxNeverDropsUnderBurst(t *testing.T) {
	mb := NewMailbox(model.NewUserID())
	defer mb.Stop()

	const count = 500
	for i := 0; i < count; i++ {
		mb.Push(model.NewPushNotification(model.Notification{ChannelID: model.NewChannelID(), Version: "v"}))
	}

	received := 0
	for received < count {
		select {
		case <-mb.Receive():
			received++
		case <-time.After(time.Second):
			t.Fatalf("only received %d/%d notifications", received, count)
		}
	}
	assert.Equal(t, count, received)
}

func TestMailboxPreservesOrder(t *testing.T) {
	mb := NewMailbox(model.NewUserID())
	defer mb.Stop()

	versions := []string{"a", "b", "c"}
	for _, v := range versions {
		mb.Push(model.NewPushNotification(model.Notification{ChannelID: model.NewChannelID(), Version: v}))
	}

	for _, want := range versions {
		n := <-mb.Receive()
		require.Equal(t, want, n.Notification.Version)
	}
}

func TestMailboxStopClosesReceive(t *testing.T) {
	mb := NewMailbox(model.NewUserID())
	mb.Stop()

	_, open := <-mb.Receive()
	assert.False(t, open)
}
