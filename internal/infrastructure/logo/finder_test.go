package logo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

func newTestFinder(t *testing.T, clearbit, ddg http.HandlerFunc) *Finder {
	t.Helper()
	cb := httptest.NewServer(clearbit)
	t.Cleanup(cb.Close)
	dd := httptest.NewServer(ddg)
	t.Cleanup(dd.Close)

	finder, err := NewFinder(Options{ClearbitURL: cb.URL, DuckDuckGoURL: dd.URL})
	if err != nil {
		t.Fatalf("NewFinder() error = %v", err)
	}
	return finder
}

func TestFindLogoPrefersClearbit(t *testing.T) {
	var ddgCalled bool
	finder := newTestFinder(t,
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("query") != "Stripe" {
				t.Fatalf("unexpected query %q", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`[{"name":"Stripe","domain":"stripe.com","logo":"https://logo.clearbit.com/stripe.com"}]`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			ddgCalled = true
		},
	)

	got, err := finder.FindLogo(context.Background(), " Stripe ")
	if err != nil {
		t.Fatalf("FindLogo() error = %v", err)
	}
	if got != "https://logo.clearbit.com/stripe.com" || ddgCalled {
		t.Fatalf("got %q ddgCalled=%v", got, ddgCalled)
	}
}

func TestFindLogoFallsBackToDuckDuckGo(t *testing.T) {
	var userAgent, query string
	finder := newTestFinder(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			userAgent = r.Header.Get("User-Agent")
			query = r.URL.Query().Get("q")
			_, _ = w.Write([]byte(`{"results":[{"image":"https://img.example/acme.png"}]}`))
		},
	)

	got, err := finder.FindLogo(context.Background(), "Acme")
	if err != nil {
		t.Fatalf("FindLogo() error = %v", err)
	}
	if got != "https://img.example/acme.png" {
		t.Fatalf("got %q", got)
	}
	if query != "Acme logo" || userAgent != defaultUserAgent {
		t.Fatalf("query %q user agent %q", query, userAgent)
	}
}

func TestFindLogoFallsBackWhenClearbitFails(t *testing.T) {
	finder := newTestFinder(t,
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":[{"image":"https://img.example/x.png"}]}`))
		},
	)

	got, err := finder.FindLogo(context.Background(), "Acme")
	if err != nil || got != "https://img.example/x.png" {
		t.Fatalf("got %q err %v", got, err)
	}
}

func TestFindLogoReportsNotFound(t *testing.T) {
	finder := newTestFinder(t,
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`[]`)) },
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"results":[]}`)) },
	)

	_, err := finder.FindLogo(context.Background(), "Nobody Inc")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFindLogoReportsUpstreamFailure(t *testing.T) {
	finder := newTestFinder(t,
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`[]`)) },
		func(w http.ResponseWriter, r *http.Request) { http.Error(w, "blocked", http.StatusForbidden) },
	)

	_, err := finder.FindLogo(context.Background(), "Acme")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary, got %v", err)
	}
}

func TestFindLogoRejectsBlankName(t *testing.T) {
	finder, err := NewFinder(Options{})
	if err != nil {
		t.Fatalf("NewFinder() error = %v", err)
	}
	if _, err := finder.FindLogo(context.Background(), "  "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
