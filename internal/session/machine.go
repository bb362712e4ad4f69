package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/webitel/webpush-connection-engine/internal/dataplane"
	"github.com/webitel/webpush-connection-engine/internal/domain/model"
	"github.com/webitel/webpush-connection-engine/internal/registry"
)

// Transport is the bidirectional typed channel the websocket framing
// layer provides. Ping/pong and fragmentation are handled below this
// interface; the machine only ever sees whole, decoded client frames.
type Transport interface {
	// Messages yields decoded client frames. The channel is closed on
	// EOF.
	Messages() <-chan model.ClientMessage
	// Errors yields transport-level failures (malformed frame, read
	// error) that are not a clean EOF.
	Errors() <-chan error
	// Send writes a server frame and blocks until it is flushed.
	Send(ctx context.Context, msg model.ServerMessage) error
	// RemoteAddr and UserAgent identify the peer for logging.
	RemoteAddr() string
	UserAgent() string
}

// Metrics is the named-counter/timing sink the machine emits to.
type Metrics interface {
	IncrCounter(name string, delta int64)
	ObserveLifespanMicros(micros int64)
}

// UserAgentInfo is the coarse classification of a client's user-agent
// string, attached to the shutdown session log.
type UserAgentInfo struct {
	Name          string
	OSFamily      string
	OSVersion     string
	VendorName    string
	VendorVersion string
	Category      string
}

// UserAgentClassifier parses a raw user-agent string into UserAgentInfo.
type UserAgentClassifier interface {
	Classify(ua string) UserAgentInfo
}

// Machine drives one connection's finite-state machine end to end. It is
// owned by exactly one goroutine; nothing here is safe for concurrent
// use, matching the single-threaded-task scheduling model the states
// assume.
type Machine struct {
	transport        Transport
	bridge           *dataplane.Bridge
	registry         registry.Registerer
	metrics          Metrics
	uaClassifier     UserAgentClassifier
	logger           *slog.Logger
	handshakeTimeout time.Duration

	client  *model.WebPushClient
	mailbox *registry.Mailbox
}

// NewMachine constructs a Machine for a freshly accepted connection.
func NewMachine(
	transport Transport,
	bridge *dataplane.Bridge,
	reg registry.Registerer,
	metrics Metrics,
	uaClassifier UserAgentClassifier,
	logger *slog.Logger,
	handshakeTimeout time.Duration,
) *Machine {
	return &Machine{
		transport:        transport,
		bridge:           bridge,
		registry:         reg,
		metrics:          metrics,
		uaClassifier:     uaClassifier,
		logger:           logger,
		handshakeTimeout: handshakeTimeout,
	}
}

// Run advances the state machine from WaitingForHello to Done. It never
// returns an error: per the design this mirrors, a connection's failure
// is a per-connection concern logged by ShutdownCleanup, not something
// that propagates to the accept loop. Callers that need failure
// signaling should wrap Machine with their own notification channel
// rather than relying on Run's return value.
func (m *Machine) Run(ctx context.Context) {
	var state State = newWaitingForHello(m.handshakeTimeout)

	for {
		if m.mailbox != nil {
			m.mailbox.Touch()
		}
		next, err := state.step(ctx, m)
		if err != nil {
			state = newShutdownCleanup(classify(err))
			continue
		}
		if next == nil {
			return
		}
		state = next
	}
}
