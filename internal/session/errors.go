package session

import (
	"errors"

	"github.com/webitel/webpush-connection-engine/internal/dataplane"
)

// Kind classifies why a connection's state machine terminated.
type Kind int

const (
	KindTransport Kind = iota
	KindTimeout
	KindProtocol
	KindAlreadyConnected
	KindCallCanceled
	KindRemoteError
	KindSerialization
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol"
	case KindAlreadyConnected:
		return "already_connected"
	case KindCallCanceled:
		return "call_canceled"
	case KindRemoteError:
		return "remote_error"
	case KindSerialization:
		return "serialization"
	default:
		return "unknown"
	}
}

// Error is the single error type the state machine raises. Every fatal
// transition wraps its cause in one of these so ShutdownCleanup can log
// a single classified line regardless of where the failure originated.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Cause.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

func newTransportError(cause error) *Error {
	return &Error{Kind: KindTransport, Msg: "transport", Cause: cause}
}

func newTimeoutError() *Error {
	return &Error{Kind: KindTimeout, Msg: "handshake timer fired"}
}

func newProtocolError(msg string) *Error {
	return &Error{Kind: KindProtocol, Msg: msg}
}

func newAlreadyConnectedError() *Error {
	return &Error{Kind: KindAlreadyConnected, Msg: "hello response returned no uaid"}
}

// classify maps a data-plane error (or anything else) onto the session's
// own Error kinds, so every fatal path funnels through one shape.
func classify(err error) *Error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, dataplane.ErrCallCanceled) {
		return &Error{Kind: KindCallCanceled, Msg: "completion slot dropped", Cause: err}
	}

	var remote *dataplane.RemoteError
	if errors.As(err, &remote) {
		return &Error{Kind: KindRemoteError, Msg: remote.Msg, Cause: err}
	}

	var serialization *dataplane.SerializationError
	if errors.As(err, &serialization) {
		return &Error{Kind: KindSerialization, Msg: serialization.Error(), Cause: err}
	}

	return &Error{Kind: KindTransport, Msg: err.Error(), Cause: err}
}
