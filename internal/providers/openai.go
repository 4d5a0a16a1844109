package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"archreview/internal/models"
)

const (
	openAIDefaultBaseURL = "https://api.deepseek.com/v1"
	openAITimeout        = 120 * time.Second
)

// OpenAIConfig configures the shared client used for built-in models.
type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// OpenAIProvider reaches OpenAI-compatible chat APIs through go-openai.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates the shared built-in model client
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)

	clientCfg.BaseURL = openAIDefaultBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	clientCfg.HTTPClient = cfg.HTTPClient
	if clientCfg.HTTPClient == nil {
		clientCfg.HTTPClient = &http.Client{
			Timeout: openAITimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &OpenAIProvider{client: openai.NewClientWithConfig(clientCfg)}
}

// Type returns the client type
func (p *OpenAIProvider) Type() string {
	return "openai"
}

// Chat sends a chat completion request
func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	start := time.Now()

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.Thinking {
		chatReq.ReasoningEffort = "medium"
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, translateOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{
			StatusCode: http.StatusOK,
			Code:       models.ErrorCodeInvalidResponse,
			Message:    "response contained no choices",
		}
	}

	return &ChatResponse{
		StatusCode:      http.StatusOK,
		Content:         resp.Choices[0].Message.Content,
		ProviderLatency: time.Since(start),
	}, nil
}

// translateOpenAIError turns go-openai errors carrying an HTTP status into
// *Error. Transport errors are returned wrapped so callers can inspect them.
func translateOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := CodeForStatus(apiErr.HTTPStatusCode)
		if isQuotaError(apiErr) {
			code = models.ErrorCodeInsufficientQuota
		}
		return &Error{
			StatusCode: apiErr.HTTPStatusCode,
			Code:       code,
			Message:    apiErr.Message,
			Err:        err,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		code := CodeForStatus(reqErr.HTTPStatusCode)
		if reqErr.HTTPStatusCode == http.StatusPaymentRequired {
			code = models.ErrorCodeInsufficientQuota
		}
		return &Error{
			StatusCode: reqErr.HTTPStatusCode,
			Code:       code,
			Message:    string(reqErr.Body),
			Err:        err,
		}
	}

	return fmt.Errorf("chat completion failed: %w", err)
}

func isQuotaError(apiErr *openai.APIError) bool {
	if apiErr.HTTPStatusCode == http.StatusPaymentRequired {
		return true
	}
	if apiErr.Type == "insufficient_quota" {
		return true
	}
	code, _ := apiErr.Code.(string)
	return code == "insufficient_quota"
}
