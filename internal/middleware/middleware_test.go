package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/atinyakov/expedientes/internal/client/guard"
	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/atinyakov/expedientes/internal/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// dummyHandler is a placeholder that records if it was called and the context it received.
type dummyHandler struct {
	called bool
	ctx    context.Context
	status int
}

func (d *dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.called = true
	d.ctx = r.Context()
	if d.status != 0 {
		w.WriteHeader(d.status)
	}
	_, _ = w.Write([]byte("ok"))
}

type fakeSession struct {
	mu   sync.Mutex
	user *models.User
}

func (s *fakeSession) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

func (s *fakeSession) HasRole(roles ...models.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	for _, r := range roles {
		if r == s.user.Role {
			return true
		}
	}
	return false
}

func TestRequireAuth_Redirects(t *testing.T) {
	dummy := &dummyHandler{}
	h := RequireAuth(guard.NewAuthGuard(&fakeSession{}))(dummy)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/expedientes?estado=abierto", nil)
	h.ServeHTTP(rec, req)

	if dummy.called {
		t.Error("did not expect next handler to be called without a session")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	want := "/login?returnTo=%2Fexpedientes%3Festado%3Dabierto"
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q; want %q", got, want)
	}
}

func TestRequireAuth_Allows(t *testing.T) {
	dummy := &dummyHandler{}
	s := &fakeSession{user: &models.User{ID: 1, Username: "ana", Role: models.RoleTecnico}}
	h := RequireAuth(guard.NewAuthGuard(s))(dummy)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/expedientes", nil))

	if !dummy.called {
		t.Error("expected next handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 OK, got %d", rec.Code)
	}
}

func TestRequireRole_DeniesOnce(t *testing.T) {
	dummy := &dummyHandler{}
	s := &fakeSession{user: &models.User{ID: 1, Username: "ana", Role: models.RoleTecnico}}
	q := notify.NewQueue(10)
	h := RequireRole(guard.NewRoleGuard(s, q, models.RoleCoordinador))(dummy)

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/usuarios", nil))
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != guard.DefaultRoute {
			t.Fatalf("expected redirect to %s, got %d %q", guard.DefaultRoute, rec.Code, rec.Header().Get("Location"))
		}
	}
	if dummy.called {
		t.Error("did not expect next handler to be called for a technician")
	}
	if n := len(q.Drain()); n != 1 {
		t.Errorf("expected 1 denial notification, got %d", n)
	}
}

func TestWithRequestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dummy := &dummyHandler{status: http.StatusNotFound}
	h := WithRequestLogging(zap.New(core))(dummy)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/expedientes/9", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("response request id = %q; want req-123", got)
	}
	if got := RequestIDFromContext(dummy.ctx); got != "req-123" {
		t.Errorf("context request id = %q; want req-123", got)
	}

	entries := logs.FilterMessage("client error").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 client error log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusNotFound) {
		t.Errorf("logged status = %v; want 404", fields["status"])
	}
	if fields["path"] != "/expedientes/9" {
		t.Errorf("logged path = %v", fields["path"])
	}
}

func TestWithRequestLogging_GeneratesID(t *testing.T) {
	dummy := &dummyHandler{}
	h := WithRequestLogging(zap.NewNop())(dummy)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("expected empty request id outside the middleware")
	}
}
