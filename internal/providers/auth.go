package providers

import (
	"context"
	"fmt"
	"net/http"
)

// SimpleAPIKeyAuth implements API key authentication (OpenAI-style)
type SimpleAPIKeyAuth struct {
	apiKey     string
	headerName string // e.g., "Authorization"
	prefix     string // e.g., "Bearer "
	apiVersion string // sent as API-Version when set
}

// NewSimpleAPIKeyAuth creates a new simple API key authenticator. An empty
// apiKey is allowed: the request is then sent without credentials.
func NewSimpleAPIKeyAuth(apiKey, headerName, prefix, apiVersion string) *SimpleAPIKeyAuth {
	if headerName == "" {
		headerName = "Authorization"
	}
	if prefix == "" {
		prefix = "Bearer "
	}

	return &SimpleAPIKeyAuth{
		apiKey:     apiKey,
		headerName: headerName,
		prefix:     prefix,
		apiVersion: apiVersion,
	}
}

// Authenticate returns an auth context with the API key
func (a *SimpleAPIKeyAuth) Authenticate(ctx context.Context) (AuthContext, error) {
	return &SimpleAPIKeyAuthContext{
		apiKey:     a.apiKey,
		headerName: a.headerName,
		prefix:     a.prefix,
		apiVersion: a.apiVersion,
	}, nil
}

// SimpleAPIKeyAuthContext holds the auth context for API key authentication
type SimpleAPIKeyAuthContext struct {
	apiKey     string
	headerName string
	prefix     string
	apiVersion string
}

// ApplyToRequest adds the API key and version headers to the HTTP request
func (c *SimpleAPIKeyAuthContext) ApplyToRequest(ctx context.Context, req any) error {
	httpReq, ok := req.(*http.Request)
	if !ok {
		return fmt.Errorf("expected *http.Request, got %T", req)
	}

	if c.apiKey != "" {
		httpReq.Header.Set(c.headerName, c.prefix+c.apiKey)
	}
	if c.apiVersion != "" {
		httpReq.Header.Set("API-Version", c.apiVersion)
	}
	return nil
}
