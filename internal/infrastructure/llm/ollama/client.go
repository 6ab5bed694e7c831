package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/infrastructure/backend"
	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// Analyzer scores a company directly against a local model.
type Analyzer struct {
	client *Client
}

func NewAnalyzer(client *Client) *Analyzer {
	return &Analyzer{client: client}
}

func (a *Analyzer) Analyze(ctx context.Context, prompt string) (*domain.AnalysisResult, error) {
	respText, err := a.client.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return backend.DecodeAnalysisResult(json.RawMessage(backend.ExtractJSONObject(respText)))
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
	reply, err := c.client.generateText(ctx, buildChatPrompt(message, backend.ChatContext(result)))
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", domain.WrapError(domain.ErrInvalidResponse, "chat reply", fmt.Errorf("model returned empty reply"))
	}
	return reply, nil
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}
	return c.generate(ctx, reqBody)
}

func (c *Client) generate(ctx context.Context, reqBody map[string]any) (string, error) {
	response, err := c.postGenerate(ctx, reqBody)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
