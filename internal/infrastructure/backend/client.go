package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
)

const (
	DefaultAnalysisPath = "/start-search"
	DefaultChatPath     = "/chat"
	DefaultExtractPath  = "/pdf/extract"
)

type Options struct {
	AnalysisPath string
	ChatPath     string
	ExtractPath  string
	// RequestsPerMinute throttles outgoing calls; 0 disables throttling.
	RequestsPerMinute int
	Timeout           time.Duration
	Executor          *resilience.Executor
	HTTPClient        *http.Client
}

// Client talks to the analysis service over JSON HTTP.
type Client struct {
	baseURL      string
	analysisPath string
	chatPath     string
	extractPath  string
	httpClient   *http.Client
	limiter      *rate.Limiter
	executor     *resilience.Executor
}

func New(baseURL string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		analysisPath: pathOrDefault(opts.AnalysisPath, DefaultAnalysisPath),
		chatPath:     pathOrDefault(opts.ChatPath, DefaultChatPath),
		extractPath:  pathOrDefault(opts.ExtractPath, DefaultExtractPath),
		httpClient:   httpClient,
		limiter:      limiter,
		executor:     opts.Executor,
	}
}

type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) Analyze(ctx context.Context, prompt string) (*domain.AnalysisResult, error) {
	body, err := a.client.postJSON(ctx, a.client.analysisPath, AnalysisRequest{Message: prompt, Content: prompt}, "analyze")
	if err != nil {
		return nil, err
	}
	return DecodeAnalysisEnvelope(body)
}

type ChatResponder struct {
	client *Client
}

func NewChatResponder(client *Client) *ChatResponder {
	return &ChatResponder{client: client}
}

func (c *ChatResponder) Reply(ctx context.Context, message string, result *domain.AnalysisResult) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "chat reply", fmt.Errorf("message is empty"))
	}
	body, err := c.client.postJSON(ctx, c.client.chatPath, ChatRequest{Message: message, Context: ChatContext(result)}, "chat")
	if err != nil {
		return "", err
	}
	return DecodeChatReply(body)
}

// Extractor delegates PDF text extraction to the remote service.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.EncodedDocument) (string, error) {
	body, err := e.client.postJSON(ctx, e.client.extractPath, ExtractRequest{Base64: doc.Base64}, "extract")
	if err != nil {
		return "", err
	}
	return DecodeExtractResponse(body)
}

func pathOrDefault(path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
