package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

func newTestClient() *model.WebPushClient {
	uaid := model.NewUserID()
	return &model.WebPushClient{
		UAID:  uaid,
		Flags: model.NewClientFlags(),
		Stats: model.NewSessionStatistics(uaid, false, false, "test"),
	}
}

func topicPtr(s string) *string { return &s }

func TestProcessAcksRemovesDirectFirst(t *testing.T) {
	m := &Machine{client: newTestClient(), metrics: noopMetrics{}}
	ch := model.NewChannelID()
	n := model.Notification{ChannelID: ch, Version: "v1"}
	m.client.UnackedDirect = []model.Notification{n}
	m.client.UnackedStored = []model.Notification{n}

	deleted, err := m.processAcks(t.Context(), []model.AckUpdate{{ChannelID: ch, Version: "v1"}})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, m.client.UnackedDirect)
	assert.Equal(t, 1, m.client.Stats.DirectAcked)
	assert.Len(t, m.client.UnackedStored, 1)
	assert.Equal(t, 0, m.client.Stats.StoredAcked)
}

func TestProcessAcksStoredWithoutTopicNoDelete(t *testing.T) {
	m := &Machine{client: newTestClient(), metrics: noopMetrics{}}
	ch := model.NewChannelID()
	n := model.Notification{ChannelID: ch, Version: "v1"}
	m.client.UnackedStored = []model.Notification{n}

	deleted, err := m.processAcks(t.Context(), []model.AckUpdate{{ChannelID: ch, Version: "v1"}})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, m.client.UnackedStored)
	assert.Equal(t, 1, m.client.Stats.StoredAcked)
}

func TestProcessAcksUnknownTupleIgnored(t *testing.T) {
	m := &Machine{client: newTestClient(), metrics: noopMetrics{}}
	ch := model.NewChannelID()
	n := model.Notification{ChannelID: ch, Version: "v1"}
	m.client.UnackedDirect = []model.Notification{n}

	deleted, err := m.processAcks(t.Context(), []model.AckUpdate{{ChannelID: model.NewChannelID(), Version: "nope"}})
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Len(t, m.client.UnackedDirect, 1)
	assert.Equal(t, 0, m.client.Stats.DirectAcked)
}

func TestDetermineAckedStateOrdering(t *testing.T) {
	t.Run("nonempty queue blocks everything", func(t *testing.T) {
		m := &Machine{client: newTestClient()}
		m.client.UnackedDirect = []model.Notification{{}}
		m.client.Flags.Check = true
		assert.Equal(t, ackedOutcomeNone, m.determineAckedState())
	})

	t.Run("increment precedes check", func(t *testing.T) {
		m := &Machine{client: newTestClient()}
		m.client.Flags.Check = true
		m.client.Flags.IncrementStorage = true
		assert.Equal(t, ackedOutcomeIncrementStorage, m.determineAckedState())
	})

	t.Run("check without increment", func(t *testing.T) {
		m := &Machine{client: newTestClient()}
		m.client.Flags.Check = true
		assert.Equal(t, ackedOutcomeCheckStorage, m.determineAckedState())
	})

	t.Run("rotate precedes reset", func(t *testing.T) {
		m := &Machine{client: newTestClient()}
		m.client.Flags.RotateMessageTable = true
		m.client.Flags.ResetUAID = true
		assert.Equal(t, ackedOutcomeMigrateUser, m.determineAckedState())
	})

	t.Run("reset alone", func(t *testing.T) {
		m := &Machine{client: newTestClient()}
		m.client.Flags.ResetUAID = true
		assert.Equal(t, ackedOutcomeDropUser, m.determineAckedState())
	})

	t.Run("all flags false goes to await", func(t *testing.T) {
		m := &Machine{client: newTestClient()}
		m.client.Flags = model.ClientFlags{}
		assert.Equal(t, ackedOutcomeAwait, m.determineAckedState())
	})
}

type noopMetrics struct{}

func (noopMetrics) IncrCounter(name string, delta int64)     {}
func (noopMetrics) ObserveLifespanMicros(micros int64)       {}
