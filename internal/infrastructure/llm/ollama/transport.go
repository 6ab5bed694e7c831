package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kirillkom/startup-scout/internal/infrastructure/resilience"
)

type generateResponse struct {
	Response   string `json:"response"`
	Done       bool   `json:"done"`
	DoneReason string `json:"done_reason"`
}

func (c *Client) postGenerate(ctx context.Context, payload map[string]any) (generateResponse, error) {
	const operation = "generate"

	body, err := json.Marshal(payload)
	if err != nil {
		return generateResponse{}, fmt.Errorf("marshal %s request: %w", operation, err)
	}

	var out generateResponse
	call := func(callCtx context.Context) error {
		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("ollama %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return resilience.NewStatusError(systemName, operation, resp)
		}
		out = generateResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		// A cold server answers the first request by loading the model
		// and returning an empty completion.
		if out.DoneReason == "load" && out.Response == "" {
			return fmt.Errorf("%s %s: %w", systemName, c.model, errModelLoading)
		}
		return nil
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return generateResponse{}, markTemporary(operation, err)
	}
	return out, nil
}
