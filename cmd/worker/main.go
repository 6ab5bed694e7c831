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

	"github.com/kirillkom/startup-scout/internal/bootstrap"
	"github.com/kirillkom/startup-scout/internal/config"
	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/infrastructure/queue/nats"
	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
	"github.com/kirillkom/startup-scout/internal/observability/logging"
	"github.com/kirillkom/startup-scout/internal/observability/metrics"
)

const serviceName = "scout-worker"

// The worker answers NATS analysis and chat requests by calling the HTTP or
// Ollama backend, so web and terminal clients can share one queue.
func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WorkerBackend == bootstrap.BackendNATS {
		slog.Error("worker_misconfigured", "error", "WORKER_BACKEND must not be nats")
		os.Exit(1)
	}
	backendCfg := cfg
	backendCfg.AnalysisBackend = cfg.WorkerBackend
	backendCfg.LogoEnabled = false

	app, err := bootstrap.New(ctx, backendCfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	transport, err := nats.New(cfg.NATSURL, nats.Options{
		AnalysisSubject:    cfg.NATSAnalysisSubject,
		ChatSubject:        cfg.NATSChatSubject,
		ResilienceExecutor: resilience.NewExecutor(cfg.Resilience()),
	})
	if err != nil {
		slog.Error("nats_connect_failed", "error", err)
		os.Exit(1)
	}
	defer transport.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	app.Executor.SetObserver(metrics.NewUpstreamMetrics(serviceName, workerMetrics.Registry()))
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	analyzer := instrumentedAnalyzer{next: app.Analyzer, metrics: workerMetrics}
	chat := instrumentedChat{next: app.Chat, metrics: workerMetrics}

	slog.Info("worker_serving",
		"analysis_subject", cfg.NATSAnalysisSubject,
		"chat_subject", cfg.NATSChatSubject,
		"backend", cfg.WorkerBackend,
	)
	if err := transport.Serve(ctx, analyzer, chat, cfg.AnalysisTimeout()); err != nil {
		slog.Error("worker_serve_failed", "error", err)
		os.Exit(1)
	}
}

type instrumentedAnalyzer struct {
	next    ports.Analyzer
	metrics *metrics.WorkerMetrics
}

func (a instrumentedAnalyzer) Analyze(ctx context.Context, prompt string) (*domain.AnalysisResult, error) {
	started := time.Now()
	a.metrics.StartRequest()
	result, err := a.next.Analyze(ctx, prompt)
	a.metrics.FinishRequest(serviceName, "analysis", time.Since(started), err)
	return result, err
}

type instrumentedChat struct {
	next    ports.ChatResponder
	metrics *metrics.WorkerMetrics
}

func (c instrumentedChat) Reply(ctx context.Context, message string, result *domain.AnalysisResult) (string, error) {
	started := time.Now()
	c.metrics.StartRequest()
	reply, err := c.next.Reply(ctx, message, result)
	c.metrics.FinishRequest(serviceName, "chat", time.Since(started), err)
	return reply, err
}
