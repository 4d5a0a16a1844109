package models

import "time"

//
// ModelConfig (registry entry)
//

// APIConfig holds the endpoint settings of a custom model.
type APIConfig struct {
	Endpoint   string `json:"endpoint" yaml:"endpoint"`
	APIKey     string `json:"apiKey,omitempty" yaml:"apiKey"`
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion"`
	Model      string `json:"model,omitempty" yaml:"model"`
}

// ModelConfig describes one model known to the registry, built-in or custom.
type ModelConfig struct {
	ModelID     string     `json:"modelId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Provider    string     `json:"provider"`
	Enabled     bool       `json:"enabled"`
	IsDefault   bool       `json:"isDefault"`
	Priority    int        `json:"priority"`
	LastUpdated time.Time  `json:"lastUpdated"`
	IsCustom    bool       `json:"isCustom"`
	APIConfig   *APIConfig `json:"apiConfig,omitempty"`
}

// Clone returns a deep copy so callers never share the registry's pointers.
func (c *ModelConfig) Clone() *ModelConfig {
	if c == nil {
		return nil
	}
	out := *c
	if c.APIConfig != nil {
		api := *c.APIConfig
		out.APIConfig = &api
	}
	return &out
}

// ModelConfigUpdate is a partial update. Nil fields are left untouched.
type ModelConfigUpdate struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Provider    *string    `json:"provider,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	APIConfig   *APIConfig `json:"apiConfig,omitempty"`
}
