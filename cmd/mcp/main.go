package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	mcpadapter "github.com/kirillkom/startup-scout/internal/adapters/mcp"
	"github.com/kirillkom/startup-scout/internal/bootstrap"
	"github.com/kirillkom/startup-scout/internal/config"
	"github.com/kirillkom/startup-scout/internal/observability/logging"
)

const serviceName = "scout-mcp"

func main() {
	cfg := config.Load()
	// stdout carries the protocol.
	slog.SetDefault(logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel))

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	flow := app.NewFlow(ctx, uuid.NewString(), nil)
	defer flow.Close()

	if err := mcpadapter.New(flow, app.Journal, app.Baseline).ServeStdio(); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
