package httpadapter

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/kirillkom/startup-scout/internal/config"
	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/observability/metrics"
)

const serviceName = "scout-web"

// Dependencies are the collaborators behind the web surface. Logos, Journal
// and Metrics are optional.
type Dependencies struct {
	Sessions  *SessionStore
	Uploads   ports.ObjectStorage
	Extractor ports.TextExtractor
	Logos     ports.LogoFinder
	Journal   ports.EvaluationJournal
	Baseline  domain.Baseline
	Metrics   *metrics.HTTPServerMetrics
}

type Router struct {
	cfg       config.Config
	sessions  *SessionStore
	uploads   ports.ObjectStorage
	extractor ports.TextExtractor
	logos     ports.LogoFinder
	journal   ports.EvaluationJournal
	baseline  domain.Baseline
	metrics   *metrics.HTTPServerMetrics
	validator *requestValidator
	pages     *template.Template
	now       func() time.Time
}

func NewRouter(cfg config.Config, deps Dependencies) (*Router, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("http router: session store is required")
	}
	validator, err := newRequestValidator(bodyLimitFor(cfg.MaxUploadBytes))
	if err != nil {
		return nil, err
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	baseline := deps.Baseline
	if baseline == nil {
		baseline = domain.DefaultBaseline()
	}
	if deps.Metrics != nil {
		deps.Sessions.OnChange(deps.Metrics.SetActiveSessions)
	}

	return &Router{
		cfg:       cfg,
		sessions:  deps.Sessions,
		uploads:   deps.Uploads,
		extractor: deps.Extractor,
		logos:     deps.Logos,
		journal:   deps.Journal,
		baseline:  baseline,
		metrics:   deps.Metrics,
		validator: validator,
		pages:     pages,
		now:       time.Now,
	}, nil
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("GET /{$}", rt.page)
	mux.HandleFunc("POST /start", rt.webStart)
	mux.HandleFunc("POST /upload", rt.webUpload)
	mux.HandleFunc("POST /launch", rt.webLaunch)
	mux.HandleFunc("POST /cancel", rt.webCancel)
	mux.HandleFunc("POST /back", rt.webBack)
	mux.HandleFunc("POST /chat/open", rt.webOpenChat)
	mux.HandleFunc("POST /chat/close", rt.webCloseChat)
	mux.HandleFunc("POST /chat/send", rt.webSendChat)
	mux.HandleFunc("GET /export.xlsx", rt.exportXLSX)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/v1/session", rt.getSession)
	api.HandleFunc("POST /api/v1/session/events", rt.postSessionEvent)
	api.HandleFunc("POST /api/v1/pdf/extract", rt.extractPDF)
	api.HandleFunc("GET /api/v1/logo", rt.findLogo)
	api.HandleFunc("GET /api/v1/evaluations", rt.listEvaluations)
	mux.Handle("/api/v1/", rt.validator.middleware(api))

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIInFlightWaitMS)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.recordRejected)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": rt.sessions.Len(),
	})
}

func (rt *Router) recordRejected(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordRejected(serviceName, reason)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
