// internal/app/features/collaborations/monitor.go
package collaborations

import (
	"net/http"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/opmonitor"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
)

type monitorResponse struct {
	Monitoring bool `json:"monitoring"`
}

// HandleStartMonitor handles POST /api/collaborations/{id}/monitor: opens
// a change stream over the collaboration's roles. Starting twice is a
// no-op, so the endpoint is safe to retry.
func (h *Handler) HandleStartMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := collabID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "start monitor")
	defer cancel()

	if _, err := h.Collabs.GetByID(ctx, id); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	if err := h.Monitor.Start(ctx, id); err != nil {
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	inputval.WriteJSON(w, http.StatusOK, monitorResponse{Monitoring: true})
}

// HandleStopMonitor handles DELETE /api/collaborations/{id}/monitor.
// Recorded operations survive the stop.
func (h *Handler) HandleStopMonitor(w http.ResponseWriter, r *http.Request) {
	id, err := collabID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	h.Monitor.Stop(id)

	inputval.WriteJSON(w, http.StatusOK, monitorResponse{Monitoring: false})
}

// ServeOperations handles GET /api/collaborations/{id}/operations: every
// recorded role operation for the collaboration, newest first, plus
// whether the stream is currently open.
func (h *Handler) ServeOperations(w http.ResponseWriter, r *http.Request) {
	id, err := collabID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ops := h.Monitor.History(id)
	if ops == nil {
		ops = []opmonitor.Entry{}
	}

	inputval.WriteJSON(w, http.StatusOK, map[string]any{
		"operations": ops,
		"monitoring": h.Monitor.Monitoring(id),
	})
}
