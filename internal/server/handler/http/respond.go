// Package http exposes the expedientes client as a local JSON console.
// Every view of the client maps to a route; the responses use the same
// {success, data, error, details} envelope as the remote service.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/go-chi/chi/v5"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    any             `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Field   string          `json:"field,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: v})
}

// writeError maps client errors onto console statuses. Remote failures
// keep their status where it means something to the caller of the
// console; upstream breakage becomes 502.
func writeError(w http.ResponseWriter, err error) {
	var (
		verr *gateway.ValidationError
		gerr *gateway.Error
	)
	env := envelope{Error: err.Error()}
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		env.Error, env.Field = verr.Message, verr.Field
	case errors.As(err, &gerr):
		env.Error, env.Details = gerr.Message, gerr.Details
		switch gerr.Kind {
		case gateway.KindAuthExpired:
			status = http.StatusUnauthorized
		case gateway.KindPermissionDenied:
			status = http.StatusForbidden
		case gateway.KindNotFound:
			status = http.StatusNotFound
		case gateway.KindRateLimited:
			status = http.StatusTooManyRequests
			if wait := gerr.RateLimit.WaitSeconds(time.Now()); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(wait))
			}
		case gateway.KindRequest:
			status = gerr.Status
		default:
			status = http.StatusBadGateway
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, gateway.Invalid("", msg))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		badRequest(w, "invalid body")
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}
