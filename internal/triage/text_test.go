package triage

import (
	"math"
	"testing"
)

func TestAnalyzeTextScenario(t *testing.T) {
	got := AnalyzeText("Large fire spreading, people trapped in building")
	if math.Abs(got.UrgencyScore-0.2) > 1e-9 {
		t.Fatalf("urgency: got %v want 0.2", got.UrgencyScore)
	}
	if math.Abs(got.SeverityScore-0.8) > 1e-9 {
		t.Fatalf("severity: got %v want 0.8", got.SeverityScore)
	}
	if got.Confidence != 0.8 {
		t.Fatalf("confidence: got %v want 0.8", got.Confidence)
	}
	if len(got.KeyPhrases) != 5 {
		t.Fatalf("key phrases: got %v", got.KeyPhrases)
	}
}

func TestAnalyzeTextEmpty(t *testing.T) {
	got := AnalyzeText("   ")
	if got.UrgencyScore != 0 || got.SeverityScore != 0 || got.Confidence != 0 {
		t.Fatalf("blank description should score zero: %+v", got)
	}
}

func TestAnalyzeTextCaps(t *testing.T) {
	got := AnalyzeText("fire explosion smoke burning emergency help please help again")
	if got.UrgencyScore != 1 {
		t.Fatalf("urgency should cap at 1, got %v", got.UrgencyScore)
	}
}

func TestAnalyzeTextCaseInsensitive(t *testing.T) {
	upper := AnalyzeText("FIRE SPREADING")
	lower := AnalyzeText("fire spreading")
	if upper.UrgencyScore != lower.UrgencyScore || upper.SeverityScore != lower.SeverityScore {
		t.Fatalf("case should not matter: %+v vs %+v", upper, lower)
	}
}
