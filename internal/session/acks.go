package session

import (
	"context"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

// processAcks removes each (channelID, version) tuple from whichever
// queue holds it, direct checked first, bumping the matching counter.
// A stored ack for a topic-carrying notification chains a DeleteMessage
// call (topic messages are keyed by topic and must be explicitly
// deleted); a stored ack without a topic issues none (those are bulk-
// advanced later by IncrementStorage). Unknown tuples are ignored.
//
// It returns whether at least one DeleteMessage call was issued, and
// any fatal error from the last such call.
func (m *Machine) processAcks(ctx context.Context, updates []model.AckUpdate) (bool, error) {
	deleted := false
	for _, u := range updates {
		if removeMatching(&m.client.UnackedDirect, u) {
			m.client.Stats.DirectAcked++
			continue
		}

		n, ok := takeMatching(&m.client.UnackedStored, u)
		if !ok {
			continue
		}
		m.client.Stats.StoredAcked++

		if n.HasTopic() {
			if err := m.bridge.DeleteMessage(ctx, m.client.MessageMonth, n); err != nil {
				return deleted, err
			}
			deleted = true
		}
	}
	return deleted, nil
}

func removeMatching(queue *[]model.Notification, u model.AckUpdate) bool {
	_, ok := takeMatching(queue, u)
	return ok
}

func takeMatching(queue *[]model.Notification, u model.AckUpdate) (model.Notification, bool) {
	for i, n := range *queue {
		if n.Matches(u.ChannelID, u.Version) {
			n := n
			*queue = append((*queue)[:i], (*queue)[i+1:]...)
			return n, true
		}
	}
	return model.Notification{}, false
}

// ackedOutcome is the result of determineAckedState: which branch the
// caller should act on. The function itself is a pure read of flags and
// queue emptiness; issuing any call the branch implies is the caller's
// job, not this function's.
type ackedOutcome int

const (
	ackedOutcomeNone ackedOutcome = iota
	ackedOutcomeIncrementStorage
	ackedOutcomeCheckStorage
	ackedOutcomeMigrateUser
	ackedOutcomeDropUser
	ackedOutcomeAwait
)

// determineAckedState decides what happens once both ack queues are
// settled. The order is deliberate: increment must precede a fresh
// check (cursor advance first), month rotation precedes user drop, and
// drop is terminal.
func (m *Machine) determineAckedState() ackedOutcome {
	c := m.client
	if len(c.UnackedDirect) > 0 || len(c.UnackedStored) > 0 {
		return ackedOutcomeNone
	}

	switch {
	case c.Flags.Check && c.Flags.IncrementStorage:
		return ackedOutcomeIncrementStorage
	case c.Flags.Check:
		return ackedOutcomeCheckStorage
	case c.Flags.RotateMessageTable:
		return ackedOutcomeMigrateUser
	case c.Flags.ResetUAID:
		return ackedOutcomeDropUser
	case c.Flags.None():
		return ackedOutcomeAwait
	default:
		return ackedOutcomeNone
	}
}
