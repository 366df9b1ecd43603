package service

import (
	"context"
	"sync"
	"time"

	"github.com/atinyakov/expedientes/internal/client/notify"
	"go.uber.org/zap"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  *struct {
		Connected bool `json:"connected"`
	} `json:"database,omitempty"`
}

// Healthy is true when the API answers "ok" and the database is not
// reported as disconnected.
func (h HealthStatus) Healthy() bool {
	return h.Status == "ok" && (h.Database == nil || h.Database.Connected)
}

// HealthService polls the service health endpoint.
type HealthService struct {
	api API
}

func NewHealthService(api API) *HealthService {
	return &HealthService{api: api}
}

// Check fetches the current health. Any failure counts as unhealthy.
func (s *HealthService) Check(ctx context.Context) (HealthStatus, bool) {
	var h HealthStatus
	if err := s.api.Get(ctx, "/health", nil, &h); err != nil {
		return h, false
	}
	return h, h.Healthy()
}

// HealthWatch holds the last result of a running health poll.
type HealthWatch struct {
	mu      sync.RWMutex
	checked bool
	healthy bool
	at      time.Time
}

// Healthy returns the last result and whether any check has completed.
func (w *HealthWatch) Healthy() (healthy, known bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.healthy, w.checked
}

// CheckedAt is when the last check completed.
func (w *HealthWatch) CheckedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.at
}

// record stores a result and reports whether it changed the state.
func (w *HealthWatch) record(healthy bool, at time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := w.checked && w.healthy != healthy
	w.checked, w.healthy, w.at = true, healthy, at
	return changed
}

// StartHealthWatch checks health immediately and then every interval until
// ctx is done. Only transitions between healthy and unhealthy notify.
func StartHealthWatch(ctx context.Context, svc *HealthService, interval time.Duration, n notify.Notifier, log *zap.Logger) *HealthWatch {
	if log == nil {
		log = zap.NewNop()
	}
	if n == nil {
		n = notify.Nop{}
	}
	w := &HealthWatch{}

	check := func() {
		_, healthy := svc.Check(ctx)
		if ctx.Err() != nil {
			return
		}
		now := time.Now()
		if !w.record(healthy, now) {
			return
		}
		log.Info("backend health changed", zap.Bool("healthy", healthy))
		if healthy {
			n.Notify(notify.Notification{Title: "Backend operativo", Variant: notify.Success, At: now})
		} else {
			n.Notify(notify.Notification{
				Title:       "Backend inaccesible",
				Description: "No se pudo verificar el estado del servidor.",
				Variant:     notify.Destructive,
				At:          now,
			})
		}
	}

	go func() {
		check()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
	return w
}
