package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/startup-scout/internal/config"
	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
	"github.com/kirillkom/startup-scout/internal/core/usecase"
)

type analyzerFake struct {
	mu     sync.Mutex
	result *domain.AnalysisResult
	err    error
	calls  int
}

func (f *analyzerFake) Analyze(context.Context, string) (*domain.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result.Clone(), nil
}

func (f *analyzerFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type chatFake struct {
	reply string
}

func (f chatFake) Reply(context.Context, string, *domain.AnalysisResult) (string, error) {
	return f.reply, nil
}

type extractorFake struct {
	text string
	err  error
}

func (f extractorFake) Extract(context.Context, domain.EncodedDocument) (string, error) {
	return f.text, f.err
}

type logoFake struct {
	url string
	err error
}

func (f logoFake) FindLogo(context.Context, string) (string, error) {
	return f.url, f.err
}

type journalFake struct {
	records []domain.EvaluationRecord
	limit   int
}

func (f *journalFake) Record(context.Context, domain.EvaluationRecord) error { return nil }

func (f *journalFake) ListRecent(_ context.Context, limit int) ([]domain.EvaluationRecord, error) {
	f.limit = limit
	return f.records, nil
}

func sampleResult() *domain.AnalysisResult {
	return &domain.AnalysisResult{
		Scores: map[string]float64{
			domain.MetricOverall:  7.5,
			domain.MetricMarket:   8,
			domain.MetricProduct:  7,
			domain.MetricTraction: 6,
			domain.MetricRisk:     4,
			domain.MetricTeam:     9,
		},
		Justifications: map[string]string{domain.MetricMarket: "Large market"},
		Summary:        "Promising seed-stage company.",
		CompanyInfo:    domain.CompanyInfo{Name: "Acme Robotics", Founders: "Jane Doe"},
	}
}

type testEnv struct {
	handler  http.Handler
	router   *Router
	analyzer *analyzerFake
	cookies  []*http.Cookie
}

func newTestEnv(t *testing.T, cfg config.Config, deps Dependencies) *testEnv {
	t.Helper()

	analyzer := &analyzerFake{result: sampleResult()}
	extractor := deps.Extractor
	if extractor == nil {
		extractor = extractorFake{text: "deck text"}
		deps.Extractor = extractor
	}
	ingest := usecase.NewFileIngestClient(extractor, 0)
	deps.Sessions = NewSessionStore(func(id string) ports.ViewFlow {
		return usecase.NewViewController(context.Background(), analyzer, ingest, chatFake{reply: "Strong team."}, usecase.ViewControllerOptions{
			SessionID: id,
			Logos:     deps.Logos,
		})
	}, time.Hour, 0)
	t.Cleanup(deps.Sessions.Close)

	router, err := NewRouter(cfg, deps)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return &testEnv{handler: router.Handler(), router: router, analyzer: analyzer}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range e.cookies {
		req.AddCookie(c)
	}
	res := httptest.NewRecorder()
	e.handler.ServeHTTP(res, req)
	if cookies := res.Result().Cookies(); len(cookies) > 0 {
		e.cookies = cookies
	}
	return res
}

func (e *testEnv) event(t *testing.T, payload map[string]any) (*httptest.ResponseRecorder, sessionResponse) {
	t.Helper()
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := e.do(req)

	var resp sessionResponse
	if res.Code == http.StatusOK {
		if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode session response: %v", err)
		}
	}
	return res, resp
}

func (e *testEnv) snapshot(t *testing.T) domain.Snapshot {
	t.Helper()
	res := e.do(httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("get session: expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return resp.Snapshot
}

func (e *testEnv) waitForState(t *testing.T, state domain.ViewState) domain.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := e.snapshot(t)
		if snap.State == state {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s, last state %s", state, snap.State)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
