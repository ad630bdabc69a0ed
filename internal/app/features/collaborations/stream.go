// internal/app/features/collaborations/stream.go
package collaborations

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
)

const (
	// Time allowed to write an entry or control frame to the peer.
	streamWriteWait = 10 * time.Second

	// Time allowed to read the next pong before the connection is
	// considered dead.
	streamPongWait = 60 * time.Second

	// Ping interval; must be less than streamPongWait.
	streamPingPeriod = (streamPongWait * 9) / 10
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The admin dashboard is served from its own origin; authorization is
	// the session check in the route middleware, not the Origin header.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeOperationsStream handles GET /api/collaborations/{id}/operations/stream:
// upgrades to a WebSocket and forwards each recorded operation as a JSON
// message as it happens. The subscription does not replay history; clients
// load GET .../operations first and then attach.
func (h *Handler) ServeOperationsStream(w http.ResponseWriter, r *http.Request) {
	id, err := collabID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	entries, unsubscribe := h.Monitor.Subscribe(id)
	defer unsubscribe()

	conn, err := streamUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		h.Log.Warn("operations stream upgrade failed",
			zap.String("collaboration_id", id.Hex()), zap.Error(err))
		return
	}
	defer conn.Close()

	h.Log.Info("operations stream opened", zap.String("collaboration_id", id.Hex()))

	// Read pump: the client sends nothing we care about, but reading is
	// what surfaces close frames and keeps pong handling alive.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case entry := <-entries:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(entry); err != nil {
				h.Log.Debug("operations stream write failed",
					zap.String("collaboration_id", id.Hex()), zap.Error(err))
				return
			}
		}
	}
}
