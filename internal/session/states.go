package session

import (
	"context"
	"time"

	"github.com/webitel/webpush-connection-engine/internal/dataplane"
	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

// State is one node of the connection's finite-state machine. step
// either completes synchronously (returning the next State) or
// suspends at exactly one of the points the concurrency model allows:
// polling the socket, the mailbox, the handshake timer, or a data-plane
// call. Returning (nil, nil) means the machine has reached Done;
// returning a non-nil error is always fatal and routes to
// ShutdownCleanup.
type State interface {
	step(ctx context.Context, m *Machine) (State, error)
}

// --- WaitingForHello ---------------------------------------------------

type waitingForHello struct {
	timer *time.Timer
}

func newWaitingForHello(timeout time.Duration) *waitingForHello {
	return &waitingForHello{timer: time.NewTimer(timeout)}
}

func (s *waitingForHello) step(ctx context.Context, m *Machine) (State, error) {
	msg, err := m.inputWithTimeout(ctx, s.timer)
	if err != nil {
		return nil, err
	}

	hello, ok := msg.(model.HelloClientMessage)
	if !ok {
		return nil, newProtocolError("expected hello frame")
	}
	if hello.UseWebPush == nil || !*hello.UseWebPush {
		return nil, newProtocolError("hello missing use_webpush=true")
	}
	s.timer.Stop()

	connectedAt := time.Now().UnixMicro()
	var uaid *model.UserID
	hadUAID := hello.UAID != nil
	if hadUAID {
		parsed, err := model.ParseUserID(*hello.UAID)
		if err != nil {
			return nil, newProtocolError("malformed uaid in hello frame")
		}
		uaid = &parsed
	}

	resp, err := m.bridge.Hello(ctx, connectedAt, uaid)
	if err != nil {
		return nil, err
	}

	return &waitingForProcessHello{connectedAt: connectedAt, hadExistingUAID: hadUAID, resp: resp}, nil
}

// --- WaitingForProcessHello ---------------------------------------------

type waitingForProcessHello struct {
	connectedAt     int64
	hadExistingUAID bool
	resp            dataplane.HelloResponse
}

func (s *waitingForProcessHello) step(ctx context.Context, m *Machine) (State, error) {
	if s.resp.UAID == nil {
		return nil, newAlreadyConnectedError()
	}

	uaid, err := model.ParseUserID(*s.resp.UAID)
	if err != nil {
		return nil, &Error{Kind: KindSerialization, Msg: "malformed uaid in hello response", Cause: err}
	}

	mailbox := m.registry.Connect(uaid)
	m.mailbox = mailbox

	flags := model.NewClientFlags()
	flags.Check = s.resp.CheckStorage
	flags.ResetUAID = s.resp.ResetUAID
	flags.RotateMessageTable = s.resp.RotateMessageTable

	m.client = &model.WebPushClient{
		UAID:              uaid,
		MailboxRx:         mailbox.Receive(),
		Flags:             flags,
		MessageMonth:      s.resp.MessageMonth,
		ConnectedAtMicros: uint64(s.connectedAt),
		Stats:             model.NewSessionStatistics(uaid, s.resp.ResetUAID, s.hadExistingUAID, m.transport.RemoteAddr()),
	}

	out := model.HelloServerMessage{UAID: uaid.Hyphenated(), Status: 200, UseWebPush: true}
	return &finishSend{msg: out, next: newAwait()}, nil
}

// --- Await ---------------------------------------------------------------

type await struct{}

func newAwait() *await { return &await{} }

func (s *await) step(ctx context.Context, m *Machine) (State, error) {
	if m.client.Flags.Check {
		return newCheckStorage(), nil
	}

	in, err := m.inputOrNotif(ctx)
	if err != nil {
		return nil, err
	}

	if in.notif != nil {
		n := in.notif
		if n.Kind == model.ServerNotificationCheckStorage {
			m.client.Flags.IncludeTopic = true
			m.client.Flags.Check = true
			return newAwait(), nil
		}

		m.client.UnackedDirect = append(m.client.UnackedDirect, n.Notification)
		m.metrics.IncrCounter("ua.message_data", int64(len(n.Notification.Data)))
		out := model.NotificationServerMessage{Notification: n.Notification}
		return &finishSend{msg: out, next: newWaitingForAcks()}, nil
	}

	switch cm := in.client.(type) {
	case model.RegisterClientMessage:
		return newWaitingForRegister(cm), nil
	case model.UnregisterClientMessage:
		return newWaitingForUnRegister(cm), nil
	case model.NackClientMessage:
		m.client.Stats.Nacks++
		m.metrics.IncrCounter("ua.command.nack", 1)
		return newWaitingForAcks(), nil
	default:
		return nil, newProtocolError("unexpected frame in Await")
	}
}

// --- CheckStorage / WaitingForCheckStorage --------------------------------

type checkStorage struct{}

func newCheckStorage() *checkStorage { return &checkStorage{} }

func (s *checkStorage) step(ctx context.Context, m *Machine) (State, error) {
	resp, err := m.bridge.CheckStorage(ctx, m.client.UAID, m.client.MessageMonth, m.client.Flags.IncludeTopic, m.client.UnackedStoredHighest)
	if err != nil {
		return nil, err
	}
	return &waitingForCheckStorage{resp: resp}, nil
}

type waitingForCheckStorage struct {
	resp dataplane.CheckStorageResponse
}

func (s *waitingForCheckStorage) step(ctx context.Context, m *Machine) (State, error) {
	m.client.Flags.IncludeTopic = s.resp.IncludeTopic
	m.client.UnackedStoredHighest = s.resp.Timestamp

	if len(s.resp.Messages) == 0 {
		m.client.Flags.Check = false
		return newAwait(), nil
	}

	// Topic messages are individually indexed and deletable; non-topic
	// messages require an explicit cursor bump after ack.
	m.client.Flags.IncrementStorage = !s.resp.IncludeTopic
	m.client.UnackedStored = append(m.client.UnackedStored, s.resp.Messages...)
	m.client.Stats.StoredRetrieved += len(s.resp.Messages)

	queue := make([]model.Notification, len(s.resp.Messages))
	copy(queue, s.resp.Messages)
	return &sendMessages{queue: queue}, nil
}

// --- SendMessages / FinishSend ---------------------------------------------

type sendMessages struct {
	queue []model.Notification
}

func (s *sendMessages) step(ctx context.Context, m *Machine) (State, error) {
	if len(s.queue) == 0 {
		return newWaitingForAcks(), nil
	}

	idx := len(s.queue) - 1
	n := s.queue[idx]
	rest := s.queue[:idx]

	m.metrics.IncrCounter("ua.message_data", int64(len(n.Data)))
	if n.HasTopic() {
		m.metrics.IncrCounter("ua.notification.topic", 1)
	}

	var next State
	if len(rest) == 0 {
		next = newWaitingForAcks()
	} else {
		next = &sendMessages{queue: rest}
	}

	return &finishSend{msg: model.NotificationServerMessage{Notification: n}, next: next}, nil
}

// finishSend is the single backpressure point: no other state writes to
// the socket directly. Go's blocking Send collapses the source's
// ready/flush two-phase protocol into one call.
type finishSend struct {
	msg  model.ServerMessage
	next State
}

func (s *finishSend) step(ctx context.Context, m *Machine) (State, error) {
	if err := m.transport.Send(ctx, s.msg); err != nil {
		return nil, newTransportError(err)
	}
	return s.next, nil
}

// --- WaitingForAcks --------------------------------------------------------

type waitingForAcks struct{}

func newWaitingForAcks() *waitingForAcks { return &waitingForAcks{} }

func (s *waitingForAcks) step(ctx context.Context, m *Machine) (State, error) {
	switch m.determineAckedState() {
	case ackedOutcomeIncrementStorage:
		return newIncrementStorage(), nil
	case ackedOutcomeCheckStorage:
		return newCheckStorage(), nil
	case ackedOutcomeMigrateUser:
		resp, err := m.bridge.MigrateUser(ctx, m.client.UAID, m.client.MessageMonth)
		if err != nil {
			return nil, err
		}
		return &waitingForMigrateUser{resp: resp}, nil
	case ackedOutcomeDropUser:
		if err := m.bridge.DropUser(ctx, m.client.UAID); err != nil {
			return nil, err
		}
		return &waitingForDropUser{}, nil
	case ackedOutcomeAwait:
		return newAwait(), nil
	}

	// ackedOutcomeNone: mailbox items are NOT consumed here, only the
	// socket, so ack progress stays the sole liveness condition.
	msg, err := m.input(ctx)
	if err != nil {
		return nil, err
	}

	switch cm := msg.(type) {
	case model.RegisterClientMessage:
		return newWaitingForRegister(cm), nil
	case model.UnregisterClientMessage:
		return newWaitingForUnRegister(cm), nil
	case model.NackClientMessage:
		m.client.Stats.Nacks++
		m.metrics.IncrCounter("ua.command.nack", 1)
		return newWaitingForAcks(), nil
	case model.AckClientMessage:
		m.metrics.IncrCounter("ua.command.ack", 1)
		deleted, err := m.processAcks(ctx, cm.Updates)
		if err != nil {
			return nil, err
		}
		if deleted {
			return &waitingForDelete{}, nil
		}
		return newWaitingForAcks(), nil
	default:
		return nil, newProtocolError("unexpected frame in WaitingForAcks")
	}
}

// --- WaitingForRegister / WaitingForUnRegister ------------------------------

type waitingForRegister struct {
	msg model.RegisterClientMessage
}

func newWaitingForRegister(msg model.RegisterClientMessage) *waitingForRegister {
	return &waitingForRegister{msg: msg}
}

func (s *waitingForRegister) step(ctx context.Context, m *Machine) (State, error) {
	resp, err := m.bridge.Register(ctx, m.client.UAID, s.msg.ChannelID, m.client.MessageMonth, s.msg.Key)
	if err != nil {
		return nil, err
	}

	var out model.ServerMessage
	if resp.IsError() {
		status := resp.Status
		if status == 0 {
			status = 500
		}
		out = model.RegisterServerMessage{ChannelID: s.msg.ChannelID, Status: status, PushEndpoint: ""}
	} else {
		m.client.Stats.Registers++
		out = model.RegisterServerMessage{ChannelID: s.msg.ChannelID, Status: 200, PushEndpoint: resp.Endpoint}
	}

	return &finishSend{msg: out, next: nextAfterReply(m)}, nil
}

type waitingForUnRegister struct {
	msg model.UnregisterClientMessage
}

func newWaitingForUnRegister(msg model.UnregisterClientMessage) *waitingForUnRegister {
	return &waitingForUnRegister{msg: msg}
}

func (s *waitingForUnRegister) step(ctx context.Context, m *Machine) (State, error) {
	resp, err := m.bridge.Unregister(ctx, m.client.UAID, s.msg.ChannelID, m.client.MessageMonth, s.msg.Code)
	if err != nil {
		return nil, err
	}

	var out model.ServerMessage
	if resp.IsError() {
		status := resp.Status
		if status == 0 {
			status = 500
		}
		out = model.UnregisterServerMessage{ChannelID: s.msg.ChannelID, Status: status}
	} else {
		m.client.Stats.Unregisters++
		status := 200
		if !resp.Success {
			status = 500
		}
		out = model.UnregisterServerMessage{ChannelID: s.msg.ChannelID, Status: status}
	}

	return &finishSend{msg: out, next: nextAfterReply(m)}, nil
}

func nextAfterReply(m *Machine) State {
	if m.client.UnackedMessages() {
		return newWaitingForAcks()
	}
	return newAwait()
}

// --- WaitingForDelete --------------------------------------------------

// waitingForDelete exists for parity with the state table; the delete
// call it names is already issued and awaited synchronously inside
// processAcks, so stepping it only resumes WaitingForAcks.
type waitingForDelete struct{}

func (s *waitingForDelete) step(ctx context.Context, m *Machine) (State, error) {
	return newWaitingForAcks(), nil
}

// --- IncrementStorage / WaitingForIncrementStorage --------------------------

type incrementStorage struct{}

func newIncrementStorage() *incrementStorage { return &incrementStorage{} }

func (s *incrementStorage) step(ctx context.Context, m *Machine) (State, error) {
	if m.client.UnackedStoredHighest == nil {
		return nil, newProtocolError("increment_storage issued without unacked_stored_highest set")
	}
	if err := m.bridge.IncrementStorage(ctx, m.client.UAID, m.client.MessageMonth, *m.client.UnackedStoredHighest); err != nil {
		return nil, err
	}
	return &waitingForIncrementStorage{}, nil
}

type waitingForIncrementStorage struct{}

func (s *waitingForIncrementStorage) step(ctx context.Context, m *Machine) (State, error) {
	m.client.Flags.IncrementStorage = false
	return newWaitingForAcks(), nil
}

// --- WaitingForMigrateUser / WaitingForDropUser -----------------------------

type waitingForMigrateUser struct {
	resp dataplane.MigrateUserResponse
}

func (s *waitingForMigrateUser) step(ctx context.Context, m *Machine) (State, error) {
	m.client.MessageMonth = s.resp.MessageMonth
	m.client.Flags.RotateMessageTable = false
	return newAwait(), nil
}

type waitingForDropUser struct{}

func (s *waitingForDropUser) step(ctx context.Context, m *Machine) (State, error) {
	return newDone(), nil
}

// --- ShutdownCleanup / Done ----------------------------------------------

type shutdownCleanup struct {
	cause *Error
}

func newShutdownCleanup(cause *Error) *shutdownCleanup {
	return &shutdownCleanup{cause: cause}
}

func (s *shutdownCleanup) step(ctx context.Context, m *Machine) (State, error) {
	m.flush(ctx, s.cause)
	return newDone(), nil
}

type done struct{}

func newDone() *done { return &done{} }

func (s *done) step(ctx context.Context, m *Machine) (State, error) {
	return nil, nil
}
