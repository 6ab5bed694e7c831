package logo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/kirillkom/startup-scout/internal/core/domain"
)

const (
	DefaultClearbitURL   = "https://autocomplete.clearbit.com/v1/companies/suggest"
	DefaultDuckDuckGoURL = "https://duckduckgo.com/i.js"
	defaultUserAgent     = "Mozilla/5.0 (compatible; Bot/1.0)"
)

type Options struct {
	ClearbitURL   string
	DuckDuckGoURL string
	UserAgent     string
	Timeout       time.Duration
}

// Finder resolves a company logo URL from Clearbit autocomplete and falls back
// to a DuckDuckGo image search.
type Finder struct {
	clearbitURL   string
	duckDuckGoURL string
	userAgent     string
	httpClient    *http.Client
}

func NewFinder(opts Options) (*Finder, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Finder{
		clearbitURL:   valueOrDefault(opts.ClearbitURL, DefaultClearbitURL),
		duckDuckGoURL: valueOrDefault(opts.DuckDuckGoURL, DefaultDuckDuckGoURL),
		userAgent:     valueOrDefault(opts.UserAgent, defaultUserAgent),
		httpClient:    &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

func (f *Finder) FindLogo(ctx context.Context, companyName string) (string, error) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "find logo", fmt.Errorf("company name is empty"))
	}

	logoURL, cbErr := f.clearbit(ctx, name)
	if cbErr == nil && logoURL != "" {
		return logoURL, nil
	}
	if cbErr != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Warn("logo_clearbit_failed", "company", name, "error", cbErr)
	}

	logoURL, err := f.duckDuckGo(ctx, name)
	if err != nil {
		if cbErr != nil {
			err = errors.Join(cbErr, err)
		}
		return "", domain.WrapError(domain.ErrTemporary, "find logo", err)
	}
	if logoURL == "" {
		return "", domain.WrapError(domain.ErrNotFound, "find logo", fmt.Errorf("no logo found for %q", name))
	}
	return logoURL, nil
}

func (f *Finder) clearbit(ctx context.Context, name string) (string, error) {
	endpoint := f.clearbitURL + "?query=" + url.QueryEscape(name)
	var suggestions []struct {
		Name   string `json:"name"`
		Domain string `json:"domain"`
		Logo   string `json:"logo"`
	}
	if err := f.getJSON(ctx, endpoint, "clearbit", &suggestions, false); err != nil {
		return "", err
	}
	if len(suggestions) == 0 {
		return "", nil
	}
	return strings.TrimSpace(suggestions[0].Logo), nil
}

func (f *Finder) duckDuckGo(ctx context.Context, name string) (string, error) {
	endpoint := f.duckDuckGoURL + "?l=en-us&q=" + url.QueryEscape(name+" logo")
	var response struct {
		Results []struct {
			Image string `json:"image"`
		} `json:"results"`
	}
	if err := f.getJSON(ctx, endpoint, "duckduckgo", &response, true); err != nil {
		return "", err
	}
	if len(response.Results) == 0 {
		return "", nil
	}
	return strings.TrimSpace(response.Results[0].Image), nil
}

func (f *Finder) getJSON(ctx context.Context, endpoint, source string, out any, withUserAgent bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", source, err)
	}
	req.Header.Set("Accept", "application/json")
	if withUserAgent {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s status: %s: %s", source, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", source, err)
	}
	return nil
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimRight(value, "?")
}
