package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	return rec.Body.String()
}

func assertSample(t *testing.T, body, sample string) {
	t.Helper()
	if !strings.Contains(body, sample) {
		t.Fatalf("expected sample %q in:\n%s", sample, body)
	}
}

func TestViewMetricsCountsOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewViewMetrics("scout-web", registry)

	m.ObserveTransition(domain.ViewIntake, domain.ViewLoading)
	m.ObserveAnalysis(domain.EvaluationSucceeded, 3*time.Second)
	m.ObserveAnalysis(domain.EvaluationFailed, time.Second)
	m.ObserveChat("error")
	m.ObserveIngest("")

	body := scrape(t, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	assertSample(t, body, `scout_view_transitions_total{from="intake",service="scout-web",to="loading"} 1`)
	assertSample(t, body, `scout_analysis_runs_total{service="scout-web",status="failed"} 1`)
	assertSample(t, body, `scout_chat_replies_total{service="scout-web",status="error"} 1`)
	assertSample(t, body, `scout_ingest_files_total{service="scout-web",status="unknown"} 1`)
}

func TestMiddlewareRecordsNormalizedPath(t *testing.T) {
	m := NewHTTPServerMetrics("scout-web")
	handler := m.Middleware("scout-web", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin/login.php", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/launch", nil))
	m.SetActiveSessions(3)

	body := scrape(t, m.Handler())
	assertSample(t, body, `scout_http_requests_total{method="GET",path="other",service="scout-web",status="418"} 1`)
	assertSample(t, body, `scout_http_requests_total{method="POST",path="/launch",service="scout-web",status="418"} 1`)
	assertSample(t, body, `scout_web_sessions_active{service="scout-web"} 3`)
}

func TestWorkerMetricsFinishRequest(t *testing.T) {
	m := NewWorkerMetrics("scout-worker")
	m.StartRequest()
	m.FinishRequest("scout-worker", "analysis", time.Second, errors.New("boom"))

	body := scrape(t, m.Handler())
	assertSample(t, body, `scout_worker_requests_total{kind="analysis",service="scout-worker",status="error"} 1`)
	assertSample(t, body, `scout_worker_in_flight_requests{service="scout-worker"} 0`)
}

func TestUpstreamMetricsTracksRetriesAndBreaker(t *testing.T) {
	m := NewWorkerMetrics("scout-worker")
	upstream := NewUpstreamMetrics("scout-worker", m.Registry())
	upstream.ObserveRetry("backend.analysis")
	upstream.ObserveRetry("backend.analysis")
	upstream.ObserveBreakerState("nats.chat", "open")

	body := scrape(t, m.Handler())
	assertSample(t, body, `scout_upstream_retries_total{operation="backend.analysis",service="scout-worker"} 2`)
	assertSample(t, body, `scout_upstream_circuit_state{operation="nats.chat",service="scout-worker"} 2`)
}
