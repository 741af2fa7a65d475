package triage

import (
	"math"
	"testing"
	"time"

	"firewatch/internal/config"
	"firewatch/internal/model"
)

func TestFireRiskScoreDeterministic(t *testing.T) {
	weather := model.WeatherSignal{Temperature: 35, Humidity: 20, WindSpeed: 25, Precipitation: 0.1, DroughtIndex: 0.8}
	hist := model.HistoricalSummary{TotalIncidents: 5}
	env := model.EnvironmentalSignal{VegetationDryness: 0.9, AirQuality: 40, ProximityToRisk: 0.8, BuildingDensity: 0.7}
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	got := FireRiskScore(config.DefaultWeights(), weather, hist, env, at)
	// 0.8*0.30 + 0.5*0.25 + 0.8*0.25 + 0.8*0.20
	want := 0.725
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("risk score: got %v want %v", got, want)
	}
}

func TestFireRiskScoreBounds(t *testing.T) {
	w := config.DefaultWeights()
	at := time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC)
	low := FireRiskScore(w, model.WeatherSignal{Temperature: 10, Humidity: 80}, model.HistoricalSummary{}, model.EnvironmentalSignal{AirQuality: 90}, at)
	high := FireRiskScore(w,
		model.WeatherSignal{Temperature: 45, Humidity: 10, WindSpeed: 40, DroughtIndex: 0.95},
		model.HistoricalSummary{TotalIncidents: 50},
		model.EnvironmentalSignal{VegetationDryness: 1, AirQuality: 20, ProximityToRisk: 1, BuildingDensity: 1},
		time.Date(2025, 7, 1, 13, 0, 0, 0, time.UTC))
	if low < 0 || low > 1 || high < 0 || high > 1 {
		t.Fatalf("scores out of [0,1]: low=%v high=%v", low, high)
	}
	if high <= low {
		t.Fatalf("expected high-risk inputs to outscore low-risk: low=%v high=%v", low, high)
	}
}

func TestFireRiskScoreHistoricalCap(t *testing.T) {
	w := config.DefaultWeights()
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	weather := model.WeatherSignal{Temperature: 35, Humidity: 20, WindSpeed: 25, DroughtIndex: 0.8}
	env := model.EnvironmentalSignal{VegetationDryness: 0.9, AirQuality: 40, ProximityToRisk: 0.8, BuildingDensity: 0.7}
	ten := FireRiskScore(w, weather, model.HistoricalSummary{TotalIncidents: 10}, env, at)
	hundred := FireRiskScore(w, weather, model.HistoricalSummary{TotalIncidents: 100}, env, at)
	if math.Abs(ten-hundred) > 1e-9 {
		t.Fatalf("historical component should saturate at 10 incidents: %v vs %v", ten, hundred)
	}
}

func TestPriorityScoreTemporal(t *testing.T) {
	w := config.DefaultWeights()
	text := model.TextAnalysis{UrgencyScore: 0.4, SeverityScore: 0.4, Confidence: 0.8}
	day := PriorityScore(w, text, nil, 0.5, time.Date(2025, 7, 10, 14, 0, 0, 0, time.UTC))
	night := PriorityScore(w, text, nil, 0.5, time.Date(2025, 7, 10, 23, 0, 0, 0, time.UTC))
	if night <= day {
		t.Fatalf("night incident should outscore day incident: day=%v night=%v", day, night)
	}
	// difference is exactly the temporal delta times its weight
	if math.Abs((night-day)-0.3*w.Priority.Temporal) > 1e-9 {
		t.Fatalf("temporal delta wrong: %v", night-day)
	}
}

func TestPriorityScoreMediaUnnormalized(t *testing.T) {
	w := config.DefaultWeights()
	all := &model.MediaAnalysis{FireDetected: true, SmokeDetected: true, StructuralDamage: true, PeopleDetected: true, Confidence: 0.9}
	at := time.Date(2025, 7, 10, 14, 0, 0, 0, time.UTC)
	got := PriorityScore(w, model.TextAnalysis{}, all, 0, at)
	// media sum 3.3 * 0.3 = 0.99 plus temporal 0.5*0.1; clamps at 1
	if got != 1 {
		t.Fatalf("all-flags media should clamp priority to 1, got %v", got)
	}
}
