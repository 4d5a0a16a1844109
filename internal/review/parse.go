package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"archreview/internal/models"
)

var (
	errNoJSON          = errors.New("no JSON object in model output")
	errInvalidJSON     = errors.New("model output is not valid JSON")
	errMissingAnalysis = errors.New("ai_analysis is missing")
	errItemsNotArray   = errors.New("review_items is not an array")
)

// extractJSONObject returns the text from the first '{' to the last '}'.
// Markdown fences and prose around the object are dropped this way.
func extractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

type reviewPayload struct {
	AIAnalysis  *string         `json:"ai_analysis"`
	ReviewItems json.RawMessage `json:"review_items"`
}

// parseReview turns raw model output into a result for profession. Item ids
// missing from the output are stamped <prefix>_<n>; display_order always
// follows array order.
func parseReview(p Profession, raw string) (models.ReviewResult, error) {
	object, ok := extractJSONObject(raw)
	if !ok {
		return models.ReviewResult{}, errNoJSON
	}

	var payload reviewPayload
	if err := json.Unmarshal([]byte(object), &payload); err != nil {
		return models.ReviewResult{}, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	if payload.AIAnalysis == nil {
		return models.ReviewResult{}, errMissingAnalysis
	}

	var items []map[string]any
	trimmed := strings.TrimSpace(string(payload.ReviewItems))
	if !strings.HasPrefix(trimmed, "[") {
		return models.ReviewResult{}, errItemsNotArray
	}
	if err := json.Unmarshal(payload.ReviewItems, &items); err != nil {
		return models.ReviewResult{}, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}

	return models.ReviewResult{
		Profession:  p.ID,
		AIAnalysis:  *payload.AIAnalysis,
		ReviewItems: normalizeItems(p.Prefix(), items),
	}, nil
}

func normalizeItems(prefix string, raw []map[string]any) []models.ReviewItem {
	items := make([]models.ReviewItem, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for i, fields := range raw {
		id := stringField(fields, "id")
		if _, dup := seen[id]; id == "" || dup {
			id = nextFreeID(prefix, i+1, seen)
		}
		seen[id] = struct{}{}

		items = append(items, models.ReviewItem{
			ID:           id,
			Description:  stringField(fields, "description"),
			Standard:     stringField(fields, "standard"),
			Suggestion:   stringField(fields, "suggestion"),
			DisplayOrder: i + 1,
		})
	}
	return items
}

// nextFreeID returns <prefix>_<n>, moving n forward past ids already used.
func nextFreeID(prefix string, n int, seen map[string]struct{}) string {
	for {
		id := prefix + "_" + strconv.Itoa(n)
		if _, taken := seen[id]; !taken {
			return id
		}
		n++
	}
}

// stringField reads a scalar field; models sometimes send numbers for ids.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// fallbackResult is the canned review used when the model cannot be used.
func fallbackResult(p Profession) models.ReviewResult {
	return models.ReviewResult{
		Profession: p.ID,
		AIAnalysis: fmt.Sprintf("AI review for %s is currently unavailable. Please review this section manually.", p.Name),
		ReviewItems: []models.ReviewItem{
			{
				ID:           p.Prefix() + "_1",
				Description:  "AI review is unavailable for this profession.",
				Standard:     "Applicable national and local standards",
				Suggestion:   fmt.Sprintf("Have a qualified %s reviewer check the report manually.", strings.ToLower(p.Name)),
				DisplayOrder: 1,
			},
		},
	}
}
