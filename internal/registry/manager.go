package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"archreview/internal/models"
)

// Manager is the in-memory registry of model configurations. It is safe for
// concurrent use; every operation runs under a single lock so no intermediate
// state is observable.
type Manager struct {
	mu           sync.RWMutex
	configs      map[string]*models.ModelConfig
	nextPriority int
	now          func() time.Time
	logger       zerolog.Logger
}

// NewManager creates a registry populated with the built-in catalog. The first
// catalog entry is the initial default.
func NewManager(logger zerolog.Logger) *Manager {
	m := &Manager{
		configs:      make(map[string]*models.ModelConfig, len(builtInCatalog)),
		nextPriority: customPriorityBase,
		now:          time.Now,
		logger:       logger.With().Str("component", "registry").Logger(),
	}

	ts := m.now()
	for i, b := range builtInCatalog {
		m.configs[b.ID] = &models.ModelConfig{
			ModelID:     b.ID,
			Name:        b.Name,
			Description: b.Description,
			Provider:    b.Provider,
			Enabled:     true,
			IsDefault:   i == 0,
			Priority:    i + 1,
			LastUpdated: ts,
		}
	}

	return m
}

// GetAllConfigs returns copies of all configs ordered by priority.
func (m *Manager) GetAllConfigs() []*models.ModelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sortedLocked(false)
}

// ListEnabled returns copies of the enabled configs ordered by priority.
func (m *Manager) ListEnabled() []*models.ModelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sortedLocked(true)
}

// IDs returns every registered model id in priority order.
func (m *Manager) IDs() []string {
	configs := m.GetAllConfigs()
	ids := make([]string, 0, len(configs))
	for _, c := range configs {
		ids = append(ids, c.ModelID)
	}
	return ids
}

// GetModelConfig returns a copy of the config for modelID.
func (m *Manager) GetModelConfig(modelID string) (*models.ModelConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[modelID]
	if !ok {
		return nil, false
	}
	return cfg.Clone(), true
}

// SetModelEnabled toggles a model. Disabling the default first moves the
// default to the next enabled model; if there is none the registry is left
// without a default. Enabling a model while no default exists makes it the
// default. Returns false only for an unknown model.
func (m *Manager) SetModelEnabled(modelID string, enabled bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.configs[modelID]
	if !ok {
		return false
	}

	ts := m.now()
	if !enabled && cfg.IsDefault {
		if next := m.firstEnabledLocked(modelID); next != nil {
			next.IsDefault = true
			next.LastUpdated = ts
			m.logger.Info().Str("from", modelID).Str("to", next.ModelID).Msg("default model reassigned")
		} else {
			m.logger.Warn().Str("model_id", modelID).Msg("last enabled model disabled, no default left")
		}
		cfg.IsDefault = false
	}

	cfg.Enabled = enabled
	cfg.LastUpdated = ts

	if enabled && m.defaultLocked() == nil {
		cfg.IsDefault = true
	}

	return true
}

// SetDefaultModel makes modelID the default. It fails if the model is unknown
// or disabled, leaving the previous default in place.
func (m *Manager) SetDefaultModel(modelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.configs[modelID]
	if !ok || !target.Enabled {
		return false
	}

	ts := m.now()
	if prev := m.defaultLocked(); prev != nil && prev != target {
		prev.IsDefault = false
		prev.LastUpdated = ts
	}
	target.IsDefault = true
	target.LastUpdated = ts

	return true
}

// AddCustomModel registers a new custom model. The new config is enabled and
// gets the next custom priority. It is not the default, except when the
// registry has no default at all: then it becomes the default so that an
// enabled model is always selectable.
func (m *Manager) AddCustomModel(modelID, name, description, provider string, api *models.APIConfig) (*models.ModelConfig, error) {
	if modelID == "" {
		return nil, ErrInvalidModelID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.configs[modelID]; exists {
		return nil, ErrModelExists
	}

	cfg := &models.ModelConfig{
		ModelID:     modelID,
		Name:        name,
		Description: description,
		Provider:    provider,
		Enabled:     true,
		Priority:    m.nextPriority,
		LastUpdated: m.now(),
		IsCustom:    true,
	}
	if api != nil {
		copied := *api
		cfg.APIConfig = &copied
	}
	m.nextPriority++
	m.configs[modelID] = cfg

	if m.defaultLocked() == nil {
		cfg.IsDefault = true
	}

	return cfg.Clone(), nil
}

// DeleteCustomModel removes a custom model. Built-in and unknown ids fail.
// Deleting the default moves it to the next enabled model first.
func (m *Manager) DeleteCustomModel(modelID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.configs[modelID]
	if !ok || !cfg.IsCustom {
		return false
	}

	if cfg.IsDefault {
		if next := m.firstEnabledLocked(modelID); next != nil {
			next.IsDefault = true
			next.LastUpdated = m.now()
		}
	}

	delete(m.configs, modelID)
	return true
}

// UpdateModelConfig merges the non-nil fields of update into the config.
// API settings only apply to custom models.
func (m *Manager) UpdateModelConfig(modelID string, update models.ModelConfigUpdate) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, ok := m.configs[modelID]
	if !ok {
		return false
	}

	if update.Name != nil {
		cfg.Name = *update.Name
	}
	if update.Description != nil {
		cfg.Description = *update.Description
	}
	if update.Provider != nil {
		cfg.Provider = *update.Provider
	}
	if update.Priority != nil {
		cfg.Priority = *update.Priority
	}
	if update.APIConfig != nil && cfg.IsCustom {
		api := *update.APIConfig
		cfg.APIConfig = &api
	}
	cfg.LastUpdated = m.now()

	return true
}

// GetDefaultModel returns the enabled default, else the first enabled model,
// else FallbackModelID.
func (m *Manager) GetDefaultModel() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if def := m.defaultLocked(); def != nil && def.Enabled {
		return def.ModelID
	}
	if first := m.firstEnabledLocked(""); first != nil {
		return first.ModelID
	}
	return FallbackModelID
}

// Resolve maps a requested model id to a usable one. An empty id selects the
// default model.
func (m *Manager) Resolve(modelID string) (string, error) {
	if modelID == "" {
		return m.GetDefaultModel(), nil
	}

	cfg, ok := m.GetModelConfig(modelID)
	if !ok {
		return "", ErrModelNotFound
	}
	if !cfg.Enabled {
		return "", ErrModelDisabled
	}
	return cfg.ModelID, nil
}

func (m *Manager) defaultLocked() *models.ModelConfig {
	for _, c := range m.configs {
		if c.IsDefault {
			return c
		}
	}
	return nil
}

// firstEnabledLocked returns the enabled config with the lowest priority,
// skipping exclude.
func (m *Manager) firstEnabledLocked(exclude string) *models.ModelConfig {
	var best *models.ModelConfig
	for id, c := range m.configs {
		if id == exclude || !c.Enabled {
			continue
		}
		if best == nil || less(c, best) {
			best = c
		}
	}
	return best
}

func (m *Manager) sortedLocked(enabledOnly bool) []*models.ModelConfig {
	out := make([]*models.ModelConfig, 0, len(m.configs))
	for _, c := range m.configs {
		if enabledOnly && !c.Enabled {
			continue
		}
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// less orders by priority, then id, so equal priorities stay stable.
func less(a, b *models.ModelConfig) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ModelID < b.ModelID
}
