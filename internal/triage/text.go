package triage

import (
	"strings"

	"firewatch/internal/model"
)

// Keyword sets for the description scan. Matching is case-insensitive
// substring search; each hit adds 0.2 to its score, capped at 1.
var (
	urgencyKeywords  = []string{"fire", "explosion", "smoke", "burning", "emergency", "help"}
	severityKeywords = []string{"large", "spreading", "trapped", "injured", "building"}
)

const keywordWeight = 0.2

// AnalyzeText scores a free-form incident description.
func AnalyzeText(description string) model.TextAnalysis {
	out := model.TextAnalysis{}
	if strings.TrimSpace(description) == "" {
		return out
	}
	lower := strings.ToLower(description)
	for _, kw := range urgencyKeywords {
		if strings.Contains(lower, kw) {
			out.UrgencyScore += keywordWeight
			out.KeyPhrases = append(out.KeyPhrases, kw)
		}
	}
	for _, kw := range severityKeywords {
		if strings.Contains(lower, kw) {
			out.SeverityScore += keywordWeight
			out.KeyPhrases = append(out.KeyPhrases, kw)
		}
	}
	if out.UrgencyScore > 1 {
		out.UrgencyScore = 1
	}
	if out.SeverityScore > 1 {
		out.SeverityScore = 1
	}
	out.Confidence = 0.8
	return out
}
