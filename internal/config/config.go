package config

import (
	"os"
	"strconv"
	"time"

	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
)

type Config struct {
	WebPort  string
	LogLevel string

	AnalysisBackend string

	BackendURL               string
	BackendAnalysisPath      string
	BackendChatPath          string
	BackendExtractPath       string
	BackendRequestsPerMinute int

	OllamaURL   string
	OllamaModel string

	NATSURL             string
	NATSAnalysisSubject string
	NATSChatSubject     string

	ExtractorMode   string
	MaxUploadBytes  int64
	MaxContextRunes int

	LogoEnabled       bool
	LogoClearbitURL   string
	LogoDuckDuckGoURL string

	AnalysisTimeoutSeconds int
	ChatTimeoutSeconds     int
	IngestTimeoutSeconds   int
	LogoTimeoutSeconds     int

	RetryMaxAttempts       int
	RetryInitialBackoffMS  int
	RetryMaxBackoffMS      int
	BreakerEnabled         bool
	BreakerMinRequests     int
	BreakerFailureRatio    float64
	BreakerOpenTimeoutSecs int

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int
	APIInFlightWaitMS int
	SessionTTLMinutes int
	MaxSessions       int

	PostgresDSN  string
	BaselineFile string
	UploadDir    string

	TUILogFile string
	ExportDir  string

	WorkerBackend     string
	WorkerMetricsPort string
}

func Load() Config {
	return Config{
		WebPort:  mustEnv("WEB_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		AnalysisBackend: mustEnv("ANALYSIS_BACKEND", "http"),

		BackendURL:               mustEnv("BACKEND_URL", "http://localhost:5000"),
		BackendAnalysisPath:      mustEnv("BACKEND_ANALYSIS_PATH", "/start-search"),
		BackendChatPath:          mustEnv("BACKEND_CHAT_PATH", "/chat"),
		BackendExtractPath:       mustEnv("BACKEND_EXTRACT_PATH", "/pdf/extract"),
		BackendRequestsPerMinute: mustEnvInt("BACKEND_REQUESTS_PER_MINUTE", 0),

		OllamaURL:   mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: mustEnv("OLLAMA_MODEL", "llama3.1:8b"),

		NATSURL:             mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSAnalysisSubject: mustEnv("NATS_ANALYSIS_SUBJECT", "scout.analysis"),
		NATSChatSubject:     mustEnv("NATS_CHAT_SUBJECT", "scout.chat"),

		ExtractorMode:   mustEnv("EXTRACTOR_MODE", "local"),
		MaxUploadBytes:  int64(mustEnvInt("MAX_UPLOAD_BYTES", 20<<20)),
		MaxContextRunes: mustEnvInt("MAX_CONTEXT_RUNES", 24000),

		LogoEnabled:       mustEnvBool("LOGO_ENABLED", true),
		LogoClearbitURL:   mustEnv("LOGO_CLEARBIT_URL", "https://autocomplete.clearbit.com/v1/companies/suggest"),
		LogoDuckDuckGoURL: mustEnv("LOGO_DUCKDUCKGO_URL", "https://duckduckgo.com/i.js"),

		AnalysisTimeoutSeconds: mustEnvInt("ANALYSIS_TIMEOUT_SECONDS", 120),
		ChatTimeoutSeconds:     mustEnvInt("CHAT_TIMEOUT_SECONDS", 60),
		IngestTimeoutSeconds:   mustEnvInt("INGEST_TIMEOUT_SECONDS", 60),
		LogoTimeoutSeconds:     mustEnvInt("LOGO_TIMEOUT_SECONDS", 10),

		RetryMaxAttempts:       mustEnvInt("RETRY_MAX_ATTEMPTS", 1),
		RetryInitialBackoffMS:  mustEnvInt("RETRY_INITIAL_BACKOFF_MS", 250),
		RetryMaxBackoffMS:      mustEnvInt("RETRY_MAX_BACKOFF_MS", 2000),
		BreakerEnabled:         mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:     mustEnvInt("BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio:    mustEnvFloat("BREAKER_FAILURE_RATIO", 0.6),
		BreakerOpenTimeoutSecs: mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),

		APIRateLimitRPS:   mustEnvFloat("API_RATE_LIMIT_RPS", 10),
		APIRateLimitBurst: mustEnvInt("API_RATE_LIMIT_BURST", 20),
		APIMaxInFlight:    mustEnvInt("API_MAX_IN_FLIGHT", 64),
		APIInFlightWaitMS: mustEnvInt("API_IN_FLIGHT_WAIT_MS", 250),
		SessionTTLMinutes: mustEnvInt("SESSION_TTL_MINUTES", 30),
		MaxSessions:       mustEnvInt("MAX_SESSIONS", 1000),

		PostgresDSN:  mustEnv("POSTGRES_DSN", ""),
		BaselineFile: mustEnv("BASELINE_FILE", ""),
		UploadDir:    mustEnv("UPLOAD_DIR", "./data/uploads"),

		TUILogFile: mustEnv("TUI_LOG_FILE", "./data/logs/scout-tui.log"),
		ExportDir:  mustEnv("EXPORT_DIR", "."),

		WorkerBackend:     mustEnv("WORKER_BACKEND", "http"),
		WorkerMetricsPort: mustEnv("WORKER_METRICS_PORT", "9090"),
	}
}

// Resilience builds the outbound call policy.
func (c Config) Resilience() resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    c.RetryMaxAttempts,
		RetryInitialBackoff: time.Duration(c.RetryInitialBackoffMS) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(c.RetryMaxBackoffMS) * time.Millisecond,
		RetryMultiplier:     2,
		RetryJitter:         0.2,

		BreakerEnabled:          c.BreakerEnabled,
		BreakerMinRequests:      uint32(max(c.BreakerMinRequests, 0)),
		BreakerFailureRatio:     c.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(c.BreakerOpenTimeoutSecs) * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func (c Config) AnalysisTimeout() time.Duration { return seconds(c.AnalysisTimeoutSeconds) }
func (c Config) ChatTimeout() time.Duration     { return seconds(c.ChatTimeoutSeconds) }
func (c Config) IngestTimeout() time.Duration   { return seconds(c.IngestTimeoutSeconds) }
func (c Config) LogoTimeout() time.Duration     { return seconds(c.LogoTimeoutSeconds) }
func (c Config) SessionTTL() time.Duration      { return time.Duration(c.SessionTTLMinutes) * time.Minute }

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
