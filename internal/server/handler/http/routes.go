package http

import (
	"net/http"

	"github.com/atinyakov/expedientes/internal/client/guard"
	"github.com/atinyakov/expedientes/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the console handlers.
type Handlers struct {
	Auth        *AuthHandler
	Expedientes *ExpedienteHandler
	Indicios    *IndicioHandler
	Usuarios    *UsuarioHandler
	System      *SystemHandler
}

// Guards are the route guards of the console. Usuarios gates the user
// administration view.
type Guards struct {
	Auth     *guard.AuthGuard
	Usuarios *guard.RoleGuard
}

// NewRouter constructs the console router.
//
// Routes:
//
//	GET  /login, POST /login, POST /logout  → public
//	GET  /health, GET /notifications         → public
//	/dashboard, /expedientes/..., /indicios/... → RequireAuth
//	/usuarios/...                            → RequireAuth + RequireRole(coordinador)
//
// Middleware chain (applied in order):
//  1. WithRequestLogging(logger): request id and access log
//  2. Recoverer: turns panics into 500s
//  3. AllowContentType: JSON bodies only
func NewRouter(h Handlers, g Guards, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Get("/login", h.Auth.Session)
	r.Post("/login", h.Auth.Login)
	r.Post("/logout", h.Auth.Logout)
	r.Get("/health", h.System.Health)
	r.Get("/notifications", h.System.Notifications)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(g.Auth))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, guard.DefaultRoute, http.StatusFound)
		})
		r.Get("/dashboard", h.Expedientes.Dashboard)

		r.Route("/expedientes", func(r chi.Router) {
			r.Get("/", h.Expedientes.List)
			r.Post("/", h.Expedientes.Create)
			r.Get("/export", h.Expedientes.Export)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Expedientes.Get)
				r.Put("/", h.Expedientes.Update)
				r.Patch("/estado", h.Expedientes.ChangeEstado)
				r.Get("/export", h.Expedientes.ExportOne)
				r.Get("/indicios", h.Indicios.List)
				r.Post("/indicios", h.Indicios.Create)
			})
		})

		r.Route("/indicios/{id}", func(r chi.Router) {
			r.Put("/", h.Indicios.Update)
			r.Patch("/activo", h.Indicios.SetActivo)
		})

		r.Route("/usuarios", func(r chi.Router) {
			r.Use(middleware.RequireRole(g.Usuarios))

			r.Get("/", h.Usuarios.List)
			r.Post("/", h.Usuarios.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Usuarios.Get)
				r.Put("/", h.Usuarios.Update)
				r.Delete("/", h.Usuarios.Delete)
				r.Patch("/password", h.Usuarios.ChangePassword)
				r.Patch("/activo", h.Usuarios.SetActivo)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, guard.DefaultRoute, http.StatusFound)
	})

	return r
}
