package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/startup-scout/internal/adapters/http"
	"github.com/kirillkom/startup-scout/internal/bootstrap"
	"github.com/kirillkom/startup-scout/internal/config"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/observability/logging"
	"github.com/kirillkom/startup-scout/internal/observability/metrics"
)

const serviceName = "scout-web"

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	viewMetrics := metrics.NewViewMetrics(serviceName, httpMetrics.Registry())
	app.Executor.SetObserver(metrics.NewUpstreamMetrics(serviceName, httpMetrics.Registry()))

	sessions := httpadapter.NewSessionStore(func(sessionID string) ports.ViewFlow {
		return app.NewFlow(ctx, sessionID, viewMetrics)
	}, cfg.SessionTTL(), cfg.MaxSessions)
	defer sessions.Close()
	go sessions.Run(ctx, time.Minute)

	router, err := httpadapter.NewRouter(cfg, httpadapter.Dependencies{
		Sessions:  sessions,
		Uploads:   app.Uploads,
		Extractor: app.Extractor,
		Logos:     app.Logos,
		Journal:   app.Journal,
		Baseline:  app.Baseline,
		Metrics:   httpMetrics,
	})
	if err != nil {
		slog.Error("router_init_failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.AnalysisTimeout() + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("web_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("web_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("web_shutdown_failed", "error", err)
	}
}
