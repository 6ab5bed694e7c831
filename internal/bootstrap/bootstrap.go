package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/startup-scout/internal/config"
	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/core/usecase"
	"github.com/kirillkom/startup-scout/internal/infrastructure/backend"
	"github.com/kirillkom/startup-scout/internal/infrastructure/extractor/document"
	"github.com/kirillkom/startup-scout/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/startup-scout/internal/infrastructure/logo"
	"github.com/kirillkom/startup-scout/internal/infrastructure/queue/nats"
	"github.com/kirillkom/startup-scout/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
	"github.com/kirillkom/startup-scout/internal/infrastructure/storage/localfs"
)

const (
	BackendHTTP   = "http"
	BackendOllama = "ollama"
	BackendNATS   = "nats"
)

// App holds the collaborators shared by every view flow of a process.
type App struct {
	Config   config.Config
	Baseline domain.Baseline

	Analyzer  ports.Analyzer
	Chat      ports.ChatResponder
	Extractor ports.TextExtractor
	Logos     ports.LogoFinder
	Journal   ports.EvaluationJournal
	Uploads   ports.ObjectStorage

	// Executor guards every outbound analysis, chat and extract call.
	Executor *resilience.Executor

	closeFns []func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}
	if err := app.init(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	baseline, err := config.LoadBaseline(cfg.BaselineFile)
	if err != nil {
		return fmt.Errorf("load baseline: %w", err)
	}
	a.Baseline = baseline

	executor := resilience.NewExecutor(cfg.Resilience())
	a.Executor = executor
	client := backend.New(cfg.BackendURL, backend.Options{
		AnalysisPath:      cfg.BackendAnalysisPath,
		ChatPath:          cfg.BackendChatPath,
		ExtractPath:       cfg.BackendExtractPath,
		RequestsPerMinute: cfg.BackendRequestsPerMinute,
		Timeout:           cfg.AnalysisTimeout(),
		Executor:          executor,
	})

	switch strings.ToLower(strings.TrimSpace(cfg.AnalysisBackend)) {
	case BackendHTTP, "":
		a.Analyzer = backend.NewAnalyzer(client)
		a.Chat = backend.NewChatResponder(client)
	case BackendOllama:
		llm := ollama.New(cfg.OllamaURL, cfg.OllamaModel, executor)
		a.Analyzer = ollama.NewAnalyzer(llm)
		a.Chat = ollama.NewChatResponder(llm)
	case BackendNATS:
		transport, err := nats.New(cfg.NATSURL, nats.Options{
			AnalysisSubject:    cfg.NATSAnalysisSubject,
			ChatSubject:        cfg.NATSChatSubject,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return fmt.Errorf("init nats transport: %w", err)
		}
		a.onClose(transport.Close)
		a.Analyzer = nats.NewAnalyzer(transport)
		a.Chat = nats.NewChatResponder(transport)
	default:
		return fmt.Errorf("unknown analysis backend %q", cfg.AnalysisBackend)
	}

	switch strings.ToLower(strings.TrimSpace(cfg.ExtractorMode)) {
	case "local", "":
		a.Extractor = document.NewExtractor(cfg.MaxUploadBytes)
	case "remote":
		a.Extractor = backend.NewExtractor(client)
	default:
		return fmt.Errorf("unknown extractor mode %q", cfg.ExtractorMode)
	}

	if cfg.LogoEnabled {
		finder, err := logo.NewFinder(logo.Options{
			ClearbitURL:   cfg.LogoClearbitURL,
			DuckDuckGoURL: cfg.LogoDuckDuckGoURL,
			Timeout:       cfg.LogoTimeout(),
		})
		if err != nil {
			return fmt.Errorf("init logo finder: %w", err)
		}
		a.Logos = finder
	}

	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		a.onClose(func() { _ = db.Close() })
		repo := postgres.NewEvaluationRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		a.Journal = repo
	}

	if cfg.UploadDir != "" {
		storage, err := localfs.New(cfg.UploadDir)
		if err != nil {
			return fmt.Errorf("init upload storage: %w", err)
		}
		a.Uploads = storage
	}

	slog.Info("bootstrap_ready",
		"analysis_backend", cfg.AnalysisBackend,
		"extractor_mode", cfg.ExtractorMode,
		"logo_enabled", a.Logos != nil,
		"journal_enabled", a.Journal != nil,
		"retry_max_attempts", executor.Policy().RetryMaxAttempts,
		"breaker_enabled", executor.Policy().BreakerEnabled,
	)
	return nil
}

// NewFlow builds one view controller wired to the shared collaborators.
func (a *App) NewFlow(ctx context.Context, sessionID string, observer ports.ViewObserver) *usecase.ViewController {
	ingest := usecase.NewFileIngestClient(a.Extractor, a.Config.MaxUploadBytes)
	return usecase.NewViewController(ctx, a.Analyzer, ingest, a.Chat, usecase.ViewControllerOptions{
		SessionID:       sessionID,
		AnalysisTimeout: a.Config.AnalysisTimeout(),
		ChatTimeout:     a.Config.ChatTimeout(),
		IngestTimeout:   a.Config.IngestTimeout(),
		LogoTimeout:     a.Config.LogoTimeout(),
		MaxContextRunes: a.Config.MaxContextRunes,
		Logos:           a.Logos,
		Journal:         a.Journal,
		Observer:        observer,
	})
}

func (a *App) onClose(fn func()) {
	a.closeFns = append(a.closeFns, fn)
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}
