package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"archreview/internal/models"
)

const customTimeout = 60 * time.Second

// CustomProvider reaches a caller-configured chat endpoint with a raw HTTP POST.
type CustomProvider struct {
	endpoint string
	model    string
	auth     Authenticator
	client   *http.Client
}

// NewCustomProvider creates a client for one custom model. The endpoint must
// be set; the upstream model name defaults to fallbackModel.
func NewCustomProvider(api models.APIConfig, fallbackModel string, client *http.Client) (*CustomProvider, error) {
	if api.Endpoint == "" {
		return nil, &Error{Code: models.ErrorCodeNoAPIEndpoint, Message: "custom model has no API endpoint"}
	}

	model := api.Model
	if model == "" {
		model = fallbackModel
	}

	if client == nil {
		client = &http.Client{Timeout: customTimeout}
	}

	return &CustomProvider{
		endpoint: api.Endpoint,
		model:    model,
		auth:     NewSimpleAPIKeyAuth(api.APIKey, "Authorization", "Bearer ", api.APIVersion),
		client:   client,
	}, nil
}

// Type returns the client type
func (p *CustomProvider) Type() string {
	return "custom"
}

// Model returns the upstream model name sent in the payload
func (p *CustomProvider) Model() string {
	return p.model
}

type customChatPayload struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
}

type customChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat posts {model, messages, max_tokens} to the endpoint.
func (p *CustomProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(customChatPayload{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Code: models.ErrorCodeConfig, Message: "invalid endpoint", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	authCtx, err := p.auth.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if err := authCtx.ApplyToRequest(ctx, httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply auth: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	latency := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewStatusError(resp.StatusCode, respBody)
	}

	var parsed customChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Code:       models.ErrorCodeInvalidResponse,
			Message:    "response is not valid JSON",
			Err:        err,
		}
	}

	content := ""
	if len(parsed.Choices) > 0 {
		content = parsed.Choices[0].Message.Content
	}

	return &ChatResponse{
		StatusCode:      resp.StatusCode,
		Content:         content,
		Body:            respBody,
		ProviderLatency: latency,
	}, nil
}
