package triage

import (
	"time"

	"firewatch/internal/config"
	"firewatch/internal/model"
)

// binary indicator contribution values
const (
	indicatorHigh = 0.8
	indicatorLow  = 0.2
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FireRiskScore combines the gathered factor bundles into a [0,1] ambient
// fire-risk score for a location and time.
func FireRiskScore(w config.Weights, weather model.WeatherSignal, hist model.HistoricalSummary, env model.EnvironmentalSignal, at time.Time) float64 {
	weatherScore := (indicator(weather.Temperature > 30) +
		indicator(weather.Humidity < 30) +
		indicator(weather.WindSpeed > 20) +
		indicator(weather.DroughtIndex > 0.7)) / 4

	historicalScore := float64(hist.TotalIncidents) / 10
	if historicalScore > 1 {
		historicalScore = 1
	}

	environmentalScore := (env.VegetationDryness +
		indicator(env.AirQuality < 50) +
		env.ProximityToRisk +
		env.BuildingDensity) / 4

	temporalScore := 0.3
	if h := at.Hour(); h >= 10 && h <= 16 {
		temporalScore = 0.8
	}

	return clamp01(weatherScore*w.Risk.Weather +
		historicalScore*w.Risk.Historical +
		environmentalScore*w.Risk.Environmental +
		temporalScore*w.Risk.Temporal)
}

func indicator(b bool) float64 {
	if b {
		return indicatorHigh
	}
	return indicatorLow
}

// PriorityScore scores how urgently one reported incident needs a response.
// The media component is deliberately left unnormalized (it can reach 3.3
// before weighting) to match the established scoring behavior; changing it
// would shift every historical priority ranking.
func PriorityScore(w config.Weights, text model.TextAnalysis, media *model.MediaAnalysis, locationRisk float64, at time.Time) float64 {
	textScore := (text.UrgencyScore + text.SeverityScore) / 2

	mediaScore := 0.0
	if media != nil {
		if media.FireDetected {
			mediaScore += 0.9
		}
		if media.SmokeDetected {
			mediaScore += 0.7
		}
		if media.StructuralDamage {
			mediaScore += 0.8
		}
		if media.PeopleDetected {
			mediaScore += 0.9
		}
	}

	// night incidents weighted higher
	temporalScore := 0.5
	if h := at.Hour(); h >= 22 || h <= 6 {
		temporalScore = 0.8
	}

	return clamp01(textScore*w.Priority.Text +
		mediaScore*w.Priority.Media +
		locationRisk*w.Priority.LocationRisk +
		temporalScore*w.Priority.Temporal)
}
