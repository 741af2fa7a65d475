package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"firewatch/internal/config"
	"firewatch/internal/model"
	"firewatch/internal/signals"
)

type stubIncidents struct {
	incidents []model.Incident
	err       error
}

func (s stubIncidents) QueryIncidentsSince(context.Context, string, time.Time) ([]model.Incident, error) {
	return s.incidents, s.err
}

func newTestEngine(src signals.IncidentSource) *Engine {
	e := NewEngine(signals.New(src), config.DefaultWeights())
	e.Clock = func() time.Time { return time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestCalculateFireRiskScoreDefaultLocation(t *testing.T) {
	e := newTestEngine(stubIncidents{})
	got := e.CalculateFireRiskScore(context.Background(), "t_test", nil)
	if got.RiskScore < 0 || got.RiskScore > 1 {
		t.Fatalf("score out of range: %v", got.RiskScore)
	}
	if got.RiskLevel == "" {
		t.Fatal("missing risk level")
	}
	if len(got.Recommendations) == 0 {
		t.Fatal("missing recommendations")
	}
	if got.Degraded {
		t.Fatal("healthy gatherers should not report degraded")
	}
	if got.Timestamp.Hour() != 12 {
		t.Fatalf("timestamp should come from the injected clock: %v", got.Timestamp)
	}

	// zero-valued location is treated the same as absent
	zero := e.CalculateFireRiskScore(context.Background(), "t_test", &model.GeoPoint{})
	if zero.RiskScore != got.RiskScore {
		t.Fatalf("zero location should fall back to the default: %v vs %v", zero.RiskScore, got.RiskScore)
	}
}

func TestCalculateFireRiskScoreDeterministicPerLocation(t *testing.T) {
	e := newTestEngine(stubIncidents{})
	loc := &model.GeoPoint{Lat: 34.05, Lng: -118.24}
	a := e.CalculateFireRiskScore(context.Background(), "t_test", loc)
	b := e.CalculateFireRiskScore(context.Background(), "t_test", loc)
	if a.RiskScore != b.RiskScore {
		t.Fatalf("repeated assessments disagree: %v vs %v", a.RiskScore, b.RiskScore)
	}
}

func TestCalculateFireRiskScoreDegradedFloor(t *testing.T) {
	e := newTestEngine(stubIncidents{err: errors.New("store down")})
	got := e.CalculateFireRiskScore(context.Background(), "t_test", nil)
	if !got.Degraded {
		t.Fatal("store failure should flag the assessment degraded")
	}
	if got.RiskLevel.Rank() < model.RiskModerate.Rank() {
		t.Fatalf("degraded assessment below MODERATE: %s", got.RiskLevel)
	}
}

func TestPerformTriageValidation(t *testing.T) {
	e := newTestEngine(stubIncidents{})
	_, err := e.PerformTriage(context.Background(), "t_test", model.IncidentIn{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPerformTriageScenario(t *testing.T) {
	e := newTestEngine(stubIncidents{})
	in := model.IncidentIn{
		Description: "Large fire spreading, people trapped in building",
		Location:    &model.GeoPoint{Lat: 34.05, Lng: -118.24},
		ReportedAt:  "2025-07-10T23:30:00Z",
	}
	got, err := e.PerformTriage(context.Background(), "t_test", in)
	if err != nil {
		t.Fatalf("triage: %v", err)
	}
	if got.PriorityScore < 0 || got.PriorityScore > 1 {
		t.Fatalf("priority out of range: %v", got.PriorityScore)
	}
	if got.Timestamp.Hour() != 23 {
		t.Fatalf("reportedAt should drive the assessment time: %v", got.Timestamp)
	}
	if got.Analysis.Text.SeverityScore == 0 {
		t.Fatal("text analysis missing from result")
	}
	if got.ResponseRecommendation.RecommendedUnits == 0 {
		t.Fatalf("no response plan: %+v", got.ResponseRecommendation)
	}
	if got.Confidence == 0 {
		t.Fatal("missing confidence")
	}
	if got.EstimatedSeverity == "" {
		t.Fatal("missing severity estimate")
	}
}

type failingVision struct{}

func (failingVision) AnalyzeMedia(context.Context, []model.MediaRef) (*model.MediaAnalysis, error) {
	return nil, errors.New("vision unavailable")
}

func TestPerformTriageVisionFailureDegrades(t *testing.T) {
	e := newTestEngine(stubIncidents{})
	e.Vision = failingVision{}
	got, err := e.PerformTriage(context.Background(), "t_test", model.IncidentIn{
		Media: []model.MediaRef{{URL: "https://example.com/a.jpg", Kind: "photo"}},
	})
	if err != nil {
		t.Fatalf("vision failure must not fail the triage: %v", err)
	}
	if got.Analysis.Media != nil {
		t.Fatal("failed vision should select the no-media branch")
	}
}
