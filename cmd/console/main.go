// Package main serves the expedientes console: the client views as JSON
// endpoints on a local address, gated by the route guards.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/expedientes/internal/app"
	"github.com/atinyakov/expedientes/internal/client/export"
	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/client/guard"
	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/atinyakov/expedientes/internal/config"
	"github.com/atinyakov/expedientes/internal/logger"
	"github.com/atinyakov/expedientes/internal/models"
	"github.com/atinyakov/expedientes/internal/server/handler/http"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse("expedientes-console", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))
	if options.ShowVersion {
		return
	}

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Notifications are buffered for GET /notifications and logged.
	queue := notify.NewQueue(0)
	notifier := notify.Multi{queue, notify.Log{L: zapLogger.Named("notify")}}

	// The console has no view to move; an expired session is reported by
	// the auth guard on the next request.
	a, err := app.New(ctx, options, app.Options{
		Notifier: notifier,
		Navigator: gateway.NavigatorFunc(func(path string) {
			zapLogger.Info("navigation requested", zap.String("path", path))
		}),
		Saver: export.DirSaver{Dir: options.ExportDir},
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot start console", zap.Error(err))
	}
	defer a.Close()

	// Route guards.
	usuarios := guard.NewRoleGuard(a.Session, notifier, models.RoleCoordinador)
	usuarios.RemountOn(a.Session)
	guards := http.Guards{Auth: guard.NewAuthGuard(a.Session), Usuarios: usuarios}

	// Create HTTP handlers for the views.
	handlers := http.Handlers{
		Auth:        &http.AuthHandler{AuthService: a.Auth},
		Expedientes: &http.ExpedienteHandler{Expedientes: a.Expedientes, Exporter: a.Exporter, Auth: a.Auth},
		Indicios:    &http.IndicioHandler{Indicios: a.Indicios},
		Usuarios:    &http.UsuarioHandler{Usuarios: a.Usuarios},
		System:      &http.SystemHandler{Queue: queue},
	}
	if a.Health != nil {
		handlers.System.Watch = a.Health
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(handlers, guards, zapLogger)

	server := &nethttp.Server{
		Addr:              options.ConsoleAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	zapLogger.Info("starting console", zap.String("addr", options.ConsoleAddr), zap.String("api", options.APIURL))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start console", zap.Error(err))
	}
}
