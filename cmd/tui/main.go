package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/kirillkom/startup-scout/internal/adapters/tui"
	"github.com/kirillkom/startup-scout/internal/bootstrap"
	"github.com/kirillkom/startup-scout/internal/config"
	"github.com/kirillkom/startup-scout/internal/observability/logging"
)

const serviceName = "scout-tui"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run logs to a file because the terminal belongs to the UI.
func run() error {
	cfg := config.Load()
	logFile, err := logging.OpenLogFile(cfg.TUILogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()
	slog.SetDefault(logging.NewJSONLoggerTo(logFile, serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	flow := app.NewFlow(ctx, uuid.NewString(), nil)
	defer flow.Close()

	return tui.Run(ctx, flow, tui.Options{
		ExportDir: cfg.ExportDir,
		Baseline:  app.Baseline,
	})
}
