package providers

import (
	"context"
	"time"
)

// Role values for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a normalized one-shot chat invocation.
type ChatRequest struct {
	Model       string // provider-specific model name
	Messages    []Message
	Temperature float32
	MaxTokens   int
	Thinking    bool // ask the provider for extended reasoning
}

// ChatResponse is a normalized provider response.
type ChatResponse struct {
	StatusCode      int
	Content         string
	Body            []byte
	ProviderLatency time.Duration
}

// ChatClient is implemented by every way of reaching a model: the shared
// OpenAI-compatible client for built-in models and raw HTTP for custom ones.
type ChatClient interface {
	// Type returns the client type (openai, custom)
	Type() string

	// Chat sends a chat completion request
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Authenticator handles authentication for a request.
type Authenticator interface {
	// Authenticate prepares authentication for a request
	Authenticate(ctx context.Context) (AuthContext, error)
}

// AuthContext holds authentication information for a request
type AuthContext interface {
	// ApplyToRequest applies authentication to an HTTP request
	ApplyToRequest(ctx context.Context, req any) error
}
