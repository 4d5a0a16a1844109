package registry

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"archreview/internal/models"
)

// CatalogFile is the YAML layout of a custom model seed file.
//
//	models:
//	  - modelId: kimi-k2
//	    name: Kimi K2
//	    provider: moonshot
//	    apiConfig:
//	      endpoint: https://api.moonshot.cn/v1/chat/completions
//	      apiKey: sk-...
//	      model: kimi-k2-0711-preview
type CatalogFile struct {
	Models []CatalogEntry `yaml:"models"`
}

// CatalogEntry is one custom model in a seed file.
type CatalogEntry struct {
	ModelID     string            `yaml:"modelId"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Provider    string            `yaml:"provider"`
	Disabled    bool              `yaml:"disabled"`
	APIConfig   *models.APIConfig `yaml:"apiConfig"`
}

// LoadCatalogFile adds every model of the YAML file at path as a custom model.
// Entries whose id is already registered are skipped. Returns the number of
// models added.
func (m *Manager) LoadCatalogFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read model catalog: %w", err)
	}

	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse model catalog: %w", err)
	}

	added := 0
	for _, entry := range file.Models {
		if _, err := m.AddCustomModel(entry.ModelID, entry.Name, entry.Description, entry.Provider, entry.APIConfig); err != nil {
			if errors.Is(err, ErrModelExists) {
				m.logger.Warn().Str("model_id", entry.ModelID).Msg("catalog model already registered, skipping")
				continue
			}
			return added, fmt.Errorf("catalog model %q: %w", entry.ModelID, err)
		}
		if entry.Disabled {
			m.SetModelEnabled(entry.ModelID, false)
		}
		added++
	}

	return added, nil
}

// Restore re-registers previously persisted custom models, keeping their
// enabled flag. Already registered ids are skipped.
func (m *Manager) Restore(configs []*models.ModelConfig) int {
	restored := 0
	for _, c := range configs {
		if _, err := m.AddCustomModel(c.ModelID, c.Name, c.Description, c.Provider, c.APIConfig); err != nil {
			m.logger.Warn().Err(err).Str("model_id", c.ModelID).Msg("skipping persisted custom model")
			continue
		}
		if !c.Enabled {
			m.SetModelEnabled(c.ModelID, false)
		}
		restored++
	}
	return restored
}
