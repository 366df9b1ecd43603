// Package main runs the interactive expedientes shell.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/expedientes/internal/app"
	"github.com/atinyakov/expedientes/internal/cli"
	"github.com/atinyakov/expedientes/internal/client/export"
	"github.com/atinyakov/expedientes/internal/client/gateway"
	"github.com/atinyakov/expedientes/internal/client/notify"
	"github.com/atinyakov/expedientes/internal/config"
	"github.com/atinyakov/expedientes/internal/logger"
	"go.uber.org/zap"
)

var (
	version   string
	buildDate string
)

func main() {
	options, err := config.Parse("expedientes", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if options.ShowVersion {
		fmt.Printf("Expedientes Client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The shell needs the gateway and the gateway needs the shell as its
	// navigator; the closure resolves the cycle.
	var shell *cli.Shell
	queue := notify.NewQueue(0)
	a, err := app.New(ctx, options, app.Options{
		Notifier:  queue,
		Navigator: gateway.NavigatorFunc(func(path string) { shell.Navigate(path) }),
		Saver:     export.DirSaver{Dir: options.ExportDir},
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot start client", zap.Error(err))
	}
	defer a.Close()

	shell = cli.New(cli.Config{
		In:      os.Stdin,
		Out:     os.Stdout,
		Session: a.Session,
		Services: cli.Services{
			Auth:        a.Auth,
			Expedientes: a.Expedientes,
			Indicios:    a.Indicios,
			Usuarios:    a.Usuarios,
			Exporter:    a.Exporter,
			HealthCheck: a.HealthCheck,
			Health:      a.Health,
		},
		Notifications: queue,
		Logger:        zapLogger.Named("shell"),
	})

	if err := shell.Run(ctx); err != nil {
		zapLogger.Error("shell stopped", zap.Error(err))
	}
}
