// Package guard gates navigation to views on the session state.
//
// The authorization checks are stateless and evaluated on every call. The
// only state a guard keeps is whether a RoleGuard has already told the user
// about a denial since it was last mounted.
package guard

import (
	"sync/atomic"
	"time"

	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/atinyakov/expedientes/internal/models"
)

const (
	// LoginRoute is where unauthenticated navigation is sent.
	LoginRoute = "/login"
	// DefaultRoute is where under-privileged navigation is sent.
	DefaultRoute = "/dashboard"
)

// Session is the read side of the session store.
type Session interface {
	IsAuthenticated() bool
	HasRole(roles ...models.Role) bool
}

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed bool
	// Redirect is the route to navigate to when not allowed.
	Redirect string
	// ReturnTo is the originally requested route, kept so navigation can
	// come back to it after login.
	ReturnTo string
}

// AuthGuard admits only authenticated sessions.
type AuthGuard struct {
	session Session
}

func NewAuthGuard(s Session) *AuthGuard {
	return &AuthGuard{session: s}
}

// Check evaluates target against the current session.
func (g *AuthGuard) Check(target string) Decision {
	if g.session.IsAuthenticated() {
		return Decision{Allowed: true}
	}
	return Decision{Redirect: LoginRoute, ReturnTo: target}
}

// RoleGuard admits users whose role is in an allow-list.
type RoleGuard struct {
	session  Session
	allowed  []models.Role
	notifier notify.Notifier
	now      func() time.Time

	// denied is set once the denial notification has been shown for the
	// current mount.
	denied atomic.Bool
}

func NewRoleGuard(s Session, n notify.Notifier, allowed ...models.Role) *RoleGuard {
	if n == nil {
		n = notify.Nop{}
	}
	return &RoleGuard{session: s, allowed: allowed, notifier: n, now: time.Now}
}

// Allowed returns the allow-list.
func (g *RoleGuard) Allowed() []models.Role {
	return append([]models.Role(nil), g.allowed...)
}

// Check evaluates the current session. A denial notifies the user only the
// first time per mount.
func (g *RoleGuard) Check() Decision {
	if g.session.HasRole(g.allowed...) {
		return Decision{Allowed: true}
	}
	if g.denied.CompareAndSwap(false, true) {
		g.notifier.Notify(notify.Notification{
			Title:       "Acceso denegado",
			Description: "No tienes permisos para acceder a esta página.",
			Variant:     notify.Destructive,
			At:          g.now(),
		})
	}
	return Decision{Redirect: DefaultRoute}
}

// Remount starts a new mount: the next denial is notified again.
func (g *RoleGuard) Remount() {
	g.denied.Store(false)
}

// Subscriber is anything that can report session transitions.
type Subscriber interface {
	Subscribe(fn func(authenticated bool))
}

// RemountOn remounts g on every login and logout published by s.
func (g *RoleGuard) RemountOn(s Subscriber) {
	s.Subscribe(func(bool) { g.Remount() })
}
