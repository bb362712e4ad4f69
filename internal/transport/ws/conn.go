package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/webitel/webpush-connection-engine/internal/domain/model"
)

// writeTimeout bounds a single frame write; it is not a connection-wide
// deadline, matching the spec's "no timers bound individual operations
// after hello" — this guards the socket layer itself, below the state
// machine.
const writeTimeout = 10 * time.Second

// Conn adapts a gorilla websocket connection to session.Transport. The
// framing layer (ping/pong, fragmentation) lives here and below,
// entirely out of the state machine's view: it only ever sees whole,
// decoded client frames.
type Conn struct {
	ws         *websocket.Conn
	remoteAddr string
	userAgent  string

	messages chan model.ClientMessage
	errors   chan error
}

// NewConn wraps ws and starts its read pump.
func NewConn(ws *websocket.Conn, remoteAddr, userAgent string) *Conn {
	c := &Conn{
		ws:         ws,
		remoteAddr: remoteAddr,
		userAgent:  userAgent,
		messages:   make(chan model.ClientMessage),
		errors:     make(chan error, 1),
	}
	go c.readPump()
	return c
}

func (c *Conn) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.sendErr(err)
			}
			return
		}

		msg, err := model.DecodeClientMessage(data)
		if err != nil {
			c.sendErr(err)
			return
		}
		c.messages <- msg
	}
}

func (c *Conn) sendErr(err error) {
	select {
	case c.errors <- err:
	default:
	}
}

func (c *Conn) Messages() <-chan model.ClientMessage { return c.messages }
func (c *Conn) Errors() <-chan error                 { return c.errors }

// Send marshals msg and writes it as a single text frame, blocking until
// the write completes. This is the state machine's one backpressure
// point. gorilla allows only one writer at a time; writes never overlap
// here since only the state machine goroutine calls Send.
func (c *Conn) Send(ctx context.Context, msg model.ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) RemoteAddr() string { return c.remoteAddr }
func (c *Conn) UserAgent() string  { return c.userAgent }

// Close closes the underlying socket. Safe to call after the read pump
// has already exited.
func (c *Conn) Close() error { return c.ws.Close() }
