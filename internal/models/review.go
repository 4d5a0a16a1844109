package models

// ReviewItem is a single finding produced for one profession.
type ReviewItem struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Standard     string `json:"standard"`
	Suggestion   string `json:"suggestion"`
	DisplayOrder int    `json:"display_order"`
}

// ReviewResult is the review of one report by one profession.
type ReviewResult struct {
	Profession  string       `json:"profession"`
	AIAnalysis  string       `json:"ai_analysis"`
	ReviewItems []ReviewItem `json:"review_items"`
}

// ReviewDiagnostic explains why a fallback result was substituted.
type ReviewDiagnostic struct {
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// ReviewOutcome pairs a result with the diagnostic of a degraded call.
// Diagnostic is nil when the model produced the result.
type ReviewOutcome struct {
	Result     ReviewResult      `json:"result"`
	Diagnostic *ReviewDiagnostic `json:"diagnostic,omitempty"`
}

// Fallback reports whether the result is the canned fallback review.
func (o ReviewOutcome) Fallback() bool {
	return o.Diagnostic != nil
}
