// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
)

// Handler answers liveness probes from the browser client. The client polls
// while a tab is open; a 401 from the session middleware tells it the
// session has expired so it can prompt for sign-in.
type Handler struct {
	Log *zap.Logger
}

// NewHandler creates a new heartbeat handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// heartbeatResponse is the JSON body for a live session.
type heartbeatResponse struct {
	Status     string    `json:"status"`
	UserID     string    `json:"user_id,omitempty"`
	ServerTime time.Time `json:"server_time"`
}

// ServeHeartbeat handles GET /heartbeat. Always 200 for a live session;
// the body carries the server clock so clients can detect drift.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	resp := heartbeatResponse{
		Status:     "ok",
		ServerTime: time.Now().UTC(),
	}
	if u, ok := auth.CurrentUser(r); ok {
		resp.UserID = u.ID
	}
	inputval.WriteJSON(w, http.StatusOK, resp)
}
