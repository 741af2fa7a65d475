package triage

import (
	"math"
	"strings"
	"testing"

	"firewatch/internal/model"
)

func TestRiskLevelThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  model.RiskLevel
	}{
		{0.85, model.RiskExtreme},
		{0.8, model.RiskExtreme},
		{0.79, model.RiskHigh},
		{0.6, model.RiskHigh},
		{0.45, model.RiskModerate},
		{0.2, model.RiskLow},
		{0.1, model.RiskMinimal},
		{0, model.RiskMinimal},
	}
	for _, c := range cases {
		if got := RiskLevelFor(c.score); got != c.want {
			t.Fatalf("RiskLevelFor(%v): got %s want %s", c.score, got, c.want)
		}
	}
}

func TestPriorityLevelThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  model.PriorityLevel
	}{
		{0.9, model.PriorityCritical},
		{0.8, model.PriorityCritical},
		{0.7, model.PriorityHigh},
		{0.5, model.PriorityMedium},
		{0.39, model.PriorityLow},
	}
	for _, c := range cases {
		if got := PriorityLevelFor(c.score); got != c.want {
			t.Fatalf("PriorityLevelFor(%v): got %s want %s", c.score, got, c.want)
		}
	}
}

func TestRecommendResponsePlans(t *testing.T) {
	imm := RecommendResponse(0.85)
	if imm.ResponseType != "immediate" || imm.RecommendedUnits != 3 || imm.EstimatedResponseTime != "2-4 minutes" {
		t.Fatalf("immediate plan wrong: %+v", imm)
	}
	if len(imm.SpecialEquipment) != 2 || len(imm.AdditionalResources) != 2 {
		t.Fatalf("immediate equipment wrong: %+v", imm)
	}

	urg := RecommendResponse(0.65)
	if urg.ResponseType != "urgent" || urg.RecommendedUnits != 2 || urg.EstimatedResponseTime != "4-8 minutes" {
		t.Fatalf("urgent plan wrong: %+v", urg)
	}

	std := RecommendResponse(0.3)
	if std.ResponseType != "standard" || std.RecommendedUnits != 1 || std.EstimatedResponseTime != "8-15 minutes" {
		t.Fatalf("standard plan wrong: %+v", std)
	}
	if std.AdditionalResources == nil || len(std.AdditionalResources) != 0 {
		t.Fatalf("standard plan should carry an empty additional-resources list: %+v", std)
	}
}

func TestEstimateSeverityOverrides(t *testing.T) {
	if got := EstimateSeverity(0.3, nil); got != "minor" {
		t.Fatalf("baseline: got %s", got)
	}
	if got := EstimateSeverity(0.65, nil); got != "moderate" {
		t.Fatalf("moderate band: got %s", got)
	}
	if got := EstimateSeverity(0.85, nil); got != "major" {
		t.Fatalf("major band: got %s", got)
	}
	if got := EstimateSeverity(0.3, &model.MediaAnalysis{StructuralDamage: true}); got != "major" {
		t.Fatalf("structural damage override: got %s", got)
	}
	if got := EstimateSeverity(0.7, &model.MediaAnalysis{PeopleDetected: true}); got != "critical" {
		t.Fatalf("people detected override: got %s", got)
	}
	// people detected below the score threshold does not escalate
	if got := EstimateSeverity(0.5, &model.MediaAnalysis{PeopleDetected: true}); got != "minor" {
		t.Fatalf("people below threshold: got %s", got)
	}
}

func TestConfidence(t *testing.T) {
	text := model.TextAnalysis{Confidence: 0.8}
	media := &model.MediaAnalysis{Confidence: 0.6}
	if got := Confidence(text, media); math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("both present: got %v", got)
	}
	if got := Confidence(text, nil); got != 0.8*0.8 {
		t.Fatalf("text only: got %v", got)
	}
	if got := Confidence(model.TextAnalysis{}, nil); got != 0.5 {
		t.Fatalf("neither: got %v", got)
	}
}

func TestRiskRecommendationsOrderingAndMonitoring(t *testing.T) {
	weather := model.WeatherSignal{DroughtIndex: 0.9, WindSpeed: 25}
	env := model.EnvironmentalSignal{VegetationDryness: 0.8}
	recs := RiskRecommendations(model.RiskExtreme, weather, env)
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	rank := map[string]int{"critical": 0, "high": 1, "medium": 2}
	for i := 1; i < len(recs); i++ {
		if rank[recs[i-1].Priority] > rank[recs[i].Priority] {
			t.Fatalf("recommendations out of order at %d: %+v", i, recs)
		}
	}
	last := recs[len(recs)-1]
	if last.Action != "monitoring_frequency" {
		t.Fatalf("monitoring item missing: %+v", last)
	}
	if !strings.Contains(last.Message, "15 minutes") || !strings.Contains(last.Message, string(model.RiskExtreme)) {
		t.Fatalf("monitoring message wrong: %q", last.Message)
	}
}

func TestRiskRecommendationsAlwaysHasMonitoring(t *testing.T) {
	recs := RiskRecommendations(model.RiskMinimal, model.WeatherSignal{}, model.EnvironmentalSignal{})
	if len(recs) != 1 || recs[0].Action != "monitoring_frequency" {
		t.Fatalf("minimal risk should still carry the monitoring item: %+v", recs)
	}
	if !strings.Contains(recs[0].Message, "24 hours") {
		t.Fatalf("minimal monitoring interval wrong: %q", recs[0].Message)
	}
}
