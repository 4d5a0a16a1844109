package registry

// FallbackModelID is returned by GetDefaultModel when no model is enabled.
const FallbackModelID = "deepseek-v3"

// customPriorityBase is the first priority handed to custom models; it sits
// above every built-in priority.
const customPriorityBase = 100

// BuiltInModel is an entry of the fixed startup catalog.
type BuiltInModel struct {
	ID            string
	Name          string
	Description   string
	Provider      string
	UpstreamModel string // model name sent to the provider API
	Thinking      bool   // request extended reasoning
}

var builtInCatalog = []BuiltInModel{
	{
		ID:            "deepseek-v3",
		Name:          "DeepSeek V3",
		Description:   "General purpose model for fast professional review",
		Provider:      "deepseek",
		UpstreamModel: "deepseek-chat",
	},
	{
		ID:            "deepseek-r1",
		Name:          "DeepSeek R1",
		Description:   "Reasoning model for in-depth code compliance analysis",
		Provider:      "deepseek",
		UpstreamModel: "deepseek-reasoner",
		Thinking:      true,
	},
	{
		ID:            "doubao-seed-1-6",
		Name:          "Doubao Seed 1.6",
		Description:   "Long-context model with optional deep thinking",
		Provider:      "volcengine",
		UpstreamModel: "doubao-seed-1-6-250615",
		Thinking:      true,
	},
}

// BuiltInModels returns a copy of the startup catalog in catalog order.
func BuiltInModels() []BuiltInModel {
	out := make([]BuiltInModel, len(builtInCatalog))
	copy(out, builtInCatalog)
	return out
}

// LookupBuiltIn returns the catalog entry for id.
func LookupBuiltIn(id string) (BuiltInModel, bool) {
	for _, m := range builtInCatalog {
		if m.ID == id {
			return m, true
		}
	}
	return BuiltInModel{}, false
}

// IsBuiltIn reports whether id belongs to the startup catalog.
func IsBuiltIn(id string) bool {
	_, ok := LookupBuiltIn(id)
	return ok
}
