// Package app wires the client components from the configuration. Both
// front ends build the same stack and differ only in how they present it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/expedientes/internal/client/export"
	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/atinyakov/expedientes/internal/client/session"
	"github.com/atinyakov/expedientes/internal/config"
	"github.com/atinyakov/expedientes/internal/db"
	"github.com/atinyakov/expedientes/internal/repository"
	"github.com/atinyakov/expedientes/internal/service"
	"go.uber.org/zap"
)

// App is the wired client.
type App struct {
	Session     *session.Store
	Gateway     *gateway.Client
	Auth        *service.AuthService
	Expedientes *service.ExpedienteService
	Indicios    *service.IndicioService
	Usuarios    *service.UsuarioService
	Exporter    *export.Exporter
	HealthCheck *service.HealthService
	Health      *service.HealthWatch

	db *sql.DB
}

// Options are the front-end specific parts of the wiring.
type Options struct {
	// Notifier receives every user-facing notification.
	Notifier notify.Notifier
	// Navigator is told to go to the login view after a session expiry.
	Navigator gateway.Navigator
	// Saver is where exports go by default.
	Saver export.Saver
}

// New builds the stack and restores the persisted session. The health
// watch runs until ctx is done. Close releases the session database.
func New(ctx context.Context, cfg *config.Options, o Options, log *zap.Logger) (*App, error) {
	a := &App{}

	persister, err := a.persister(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.Session = session.New(persister, log.Named("session"))
	a.Session.Restore()

	httpClient, err := gateway.NewHTTPClient(cfg.CAFile, cfg.RequestTimeout)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Gateway, err = gateway.New(gateway.Config{
		BaseURL:       cfg.APIURL,
		HTTPClient:    httpClient,
		Session:       a.Session,
		Notifier:      o.Notifier,
		Navigator:     o.Navigator,
		RedirectDelay: cfg.RedirectDelay,
		Logger:        log.Named("gateway"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Auth = service.NewAuthService(a.Gateway, a.Session, log.Named("auth"))
	a.Expedientes = service.NewExpedienteService(a.Gateway)
	a.Indicios = service.NewIndicioService(a.Gateway)
	a.Usuarios = service.NewUsuarioService(a.Gateway)
	a.Exporter = export.New(a.Gateway, o.Saver, log.Named("export"))

	// Polling failures must not raise the gateway's own notifications;
	// the watch reports transitions itself.
	quiet, err := gateway.New(gateway.Config{
		BaseURL:    cfg.APIURL,
		HTTPClient: httpClient,
		Session:    a.Session,
		Logger:     log.Named("health"),
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.HealthCheck = service.NewHealthService(quiet)
	if cfg.HealthInterval > 0 {
		a.Health = service.StartHealthWatch(ctx, a.HealthCheck, cfg.HealthInterval, o.Notifier, log.Named("health"))
	}
	return a, nil
}

func (a *App) persister(ctx context.Context, cfg *config.Options, log *zap.Logger) (session.Persister, error) {
	switch cfg.SessionBackend {
	case "postgres":
		conn, err := db.InitPostgres(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("cannot init database: %w", err)
		}
		a.db = conn
		if cfg.SessionRetention > 0 {
			db.StartStaleSessionCleaner(ctx, conn, time.Hour, cfg.SessionRetention, log.Named("cleaner"))
		}
		return repository.NewPostgresSessionRepository(conn), nil
	default:
		return repository.NewFileSessionRepository(cfg.SessionFile), nil
	}
}

// Close releases the session database, if any.
func (a *App) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
