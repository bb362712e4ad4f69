package dataplane

import "errors"

// ErrCallCanceled is returned when the completion slot for a call is
// dropped without being filled (the data-plane side went away).
var ErrCallCanceled = errors.New("dataplane: call canceled")

// RemoteError wraps the error_msg of a data-plane error envelope
// {error: true, error_msg: "..."}.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string { return "dataplane: remote error: " + e.Msg }

// SerializationError wraps a response that didn't match its expected
// schema.
type SerializationError struct {
	Command string
	Cause   error
}

func (e *SerializationError) Error() string {
	return "dataplane: malformed " + e.Command + " response: " + e.Cause.Error()
}

func (e *SerializationError) Unwrap() error { return e.Cause }
