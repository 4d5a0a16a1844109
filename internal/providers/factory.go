package providers

import (
	"net/http"

	"archreview/internal/models"
	"archreview/internal/registry"
)

// ModelLookup finds a registered model configuration.
type ModelLookup interface {
	GetModelConfig(modelID string) (*models.ModelConfig, bool)
}

// Target is a model id resolved to the client that reaches it.
type Target struct {
	ModelID  string
	Name     string
	Client   ChatClient
	Model    string // upstream model name
	Thinking bool
	IsCustom bool
}

// Factory resolves model ids to chat clients. Built-in models share one
// client; custom models get a raw HTTP client per call.
type Factory struct {
	builtIn    ChatClient
	lookup     ModelLookup
	httpClient *http.Client
}

// NewFactory creates a factory. httpClient is used for custom endpoints and
// may be nil.
func NewFactory(builtIn ChatClient, lookup ModelLookup, httpClient *http.Client) *Factory {
	return &Factory{
		builtIn:    builtIn,
		lookup:     lookup,
		httpClient: httpClient,
	}
}

// Resolve returns the target for modelID. The error is an *Error whose Code
// tells why the model cannot be reached; for a registered custom model the
// partial target (id, name) is returned alongside it.
func (f *Factory) Resolve(modelID string) (*Target, error) {
	if b, ok := registry.LookupBuiltIn(modelID); ok {
		name := b.Name
		if cfg, found := f.lookup.GetModelConfig(modelID); found {
			name = cfg.Name
		}
		return &Target{
			ModelID:  modelID,
			Name:     name,
			Client:   f.builtIn,
			Model:    b.UpstreamModel,
			Thinking: b.Thinking,
		}, nil
	}

	cfg, ok := f.lookup.GetModelConfig(modelID)
	if !ok {
		return nil, &Error{Code: models.ErrorCodeConfig, Message: "unknown model " + modelID}
	}

	var api models.APIConfig
	if cfg.APIConfig != nil {
		api = *cfg.APIConfig
	}

	client, err := NewCustomProvider(api, modelID, f.httpClient)
	if err != nil {
		return &Target{ModelID: modelID, Name: cfg.Name, IsCustom: true}, err
	}

	return &Target{
		ModelID:  modelID,
		Name:     cfg.Name,
		Client:   client,
		Model:    client.Model(),
		IsCustom: true,
	}, nil
}
