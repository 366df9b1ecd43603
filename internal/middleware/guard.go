// Package middleware provides HTTP middlewares for route guarding and
// request logging on the console router.
package middleware

import (
	"net/http"
	"net/url"

	"github.com/atinyakov/expedientes/internal/client/guard"
)

// RequireAuth redirects unauthenticated requests to the login route,
// carrying the requested path as returnTo.
func RequireAuth(g *guard.AuthGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Check(r.URL.RequestURI())
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			target := d.Redirect
			if d.ReturnTo != "" {
				target += "?" + url.Values{"returnTo": {d.ReturnTo}}.Encode()
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}

// RequireRole redirects requests from users outside the guard's
// allow-list to the default route. The guard's one-time denial
// notification spans all requests until it is remounted.
func RequireRole(g *guard.RoleGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Check()
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
		})
	}
}
