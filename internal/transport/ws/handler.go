package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/webitel/webpush-connection-engine/internal/session"
)

// Handler upgrades an inbound HTTP request to a websocket and runs one
// connection's state machine to completion.
type Handler struct {
	logger   *slog.Logger
	factory  *session.Factory
	upgrader websocket.Upgrader
}

func NewHandler(logger *slog.Logger, factory *session.Factory) *Handler {
	return &Handler{
		logger:  logger,
		factory: factory,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "error", err)
		return
	}

	conn := NewConn(wsConn, r.RemoteAddr, r.Header.Get("User-Agent"))
	defer conn.Close()

	machine := h.factory.New(conn)
	machine.Run(r.Context())
}
