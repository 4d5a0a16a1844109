package review

import (
	"fmt"
	"strings"
)

const userPromptTemplate = `Review the following feasibility-study report summary from the point of view of %s.

Report summary:
"""
%s
"""

Respond with a single JSON object and nothing else, using exactly this shape:
{
  "ai_analysis": "overall assessment of the report for %s",
  "review_items": [
    {
      "id": "%s_1",
      "description": "the problem found in the report",
      "standard": "the code or standard clause it relates to",
      "suggestion": "how to fix it"
    }
  ]
}

Provide between 5 and 10 review items, most important first.`

func buildUserPrompt(p Profession, summary string) string {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = "(empty)"
	}
	name := strings.ToLower(p.Name)
	return fmt.Sprintf(userPromptTemplate, name, summary, name, p.Prefix())
}
