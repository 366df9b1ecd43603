package http

import (
	"net/http"
	"time"

	"github.com/atinyakov/expedientes/internal/client/notify"
)

// Drainer hands out buffered notifications.
type Drainer interface {
	Drain() []notify.Notification
}

// HealthReporter is the last known backend health.
type HealthReporter interface {
	Healthy() (healthy, known bool)
	CheckedAt() time.Time
}

// SystemHandler serves notifications and backend health.
type SystemHandler struct {
	Queue Drainer
	// Watch may be nil when health polling is disabled.
	Watch HealthReporter
}

// Notifications handles GET /notifications, returning and clearing the
// pending notifications.
func (h *SystemHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	items := h.Queue.Drain()
	if items == nil {
		items = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, items)
}

type healthResponse struct {
	Status    string     `json:"status"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
}

// Health handles GET /health.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "unknown"}
	if h.Watch == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Status = "checking"
	healthy, known := h.Watch.Healthy()
	if known {
		at := h.Watch.CheckedAt()
		resp.CheckedAt = &at
		resp.Status = "down"
		if healthy {
			resp.Status = "ok"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
