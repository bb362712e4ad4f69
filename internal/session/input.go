package session

import (
	"context"
	"errors"
	"time"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

var errMailboxClosed = errors.New("session: mailbox closed")
var errSocketClosed = errors.New("session: socket closed")

// input polls the socket only; EOF is fatal. Used by WaitingForAcks,
// which deliberately leaves the mailbox unread.
func (m *Machine) input(ctx context.Context) (model.ClientMessage, error) {
	select {
	case msg, ok := <-m.transport.Messages():
		if !ok {
			return nil, newTransportError(errSocketClosed)
		}
		return msg, nil
	case err := <-m.transport.Errors():
		return nil, newTransportError(err)
	case <-ctx.Done():
		return nil, newTransportError(ctx.Err())
	}
}

// inputWithTimeout is input() plus a deadline; firing the timer is
// fatal. Used only by WaitingForHello.
func (m *Machine) inputWithTimeout(ctx context.Context, timer *time.Timer) (model.ClientMessage, error) {
	select {
	case msg, ok := <-m.transport.Messages():
		if !ok {
			return nil, newTransportError(errSocketClosed)
		}
		return msg, nil
	case err := <-m.transport.Errors():
		return nil, newTransportError(err)
	case <-timer.C:
		return nil, newTimeoutError()
	case <-ctx.Done():
		return nil, newTransportError(ctx.Err())
	}
}

// awaitInput is exactly one of a client frame or a mailbox item, never
// both: the zero value of the field not set is always the nil/zero
// interface value.
type awaitInput struct {
	client model.ClientMessage
	notif  *model.ServerNotification
}

// inputOrNotif polls the mailbox first (non-blocking) before falling
// back to a fair select across mailbox and socket. Mailbox-first
// priority keeps server pushes timely whenever both are ready.
func (m *Machine) inputOrNotif(ctx context.Context) (awaitInput, error) {
	select {
	case n, ok := <-m.client.MailboxRx:
		if !ok {
			return awaitInput{}, newTransportError(errMailboxClosed)
		}
		return awaitInput{notif: &n}, nil
	default:
	}

	select {
	case n, ok := <-m.client.MailboxRx:
		if !ok {
			return awaitInput{}, newTransportError(errMailboxClosed)
		}
		return awaitInput{notif: &n}, nil
	case msg, ok := <-m.transport.Messages():
		if !ok {
			return awaitInput{}, newTransportError(errSocketClosed)
		}
		return awaitInput{client: msg}, nil
	case err := <-m.transport.Errors():
		return awaitInput{}, newTransportError(err)
	case <-ctx.Done():
		return awaitInput{}, newTransportError(ctx.Err())
	}
}
