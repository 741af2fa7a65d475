package triage

import (
	"fmt"

	"firewatch/internal/model"
)

// RiskLevelFor maps a risk score to its categorical level.
func RiskLevelFor(score float64) model.RiskLevel {
	switch {
	case score >= 0.8:
		return model.RiskExtreme
	case score >= 0.6:
		return model.RiskHigh
	case score >= 0.4:
		return model.RiskModerate
	case score >= 0.2:
		return model.RiskLow
	default:
		return model.RiskMinimal
	}
}

// PriorityLevelFor maps a priority score to its categorical level.
func PriorityLevelFor(score float64) model.PriorityLevel {
	switch {
	case score >= 0.8:
		return model.PriorityCritical
	case score >= 0.6:
		return model.PriorityHigh
	case score >= 0.4:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// EscalationLevelFor maps an escalation probability to its level. Same cut
// points as risk, CRITICAL top label.
func EscalationLevelFor(p float64) model.EscalationLevel {
	switch {
	case p >= 0.8:
		return model.EscalationCritical
	case p >= 0.6:
		return model.EscalationHigh
	case p >= 0.4:
		return model.EscalationModerate
	case p >= 0.2:
		return model.EscalationLow
	default:
		return model.EscalationMinimal
	}
}

// RecommendResponse maps a priority score to a dispatch plan.
func RecommendResponse(priorityScore float64) model.ResponsePlan {
	switch {
	case priorityScore >= 0.8:
		return model.ResponsePlan{
			ResponseType:          "immediate",
			RecommendedUnits:      3,
			EstimatedResponseTime: "2-4 minutes",
			SpecialEquipment:      []string{"ladder_truck", "rescue_unit"},
			AdditionalResources:   []string{"ambulance", "hazmat_team"},
		}
	case priorityScore >= 0.6:
		return model.ResponsePlan{
			ResponseType:          "urgent",
			RecommendedUnits:      2,
			EstimatedResponseTime: "4-8 minutes",
			SpecialEquipment:      []string{"fire_engine"},
			AdditionalResources:   []string{"ambulance"},
		}
	default:
		return model.ResponsePlan{
			ResponseType:          "standard",
			RecommendedUnits:      1,
			EstimatedResponseTime: "8-15 minutes",
			SpecialEquipment:      []string{"fire_engine"},
			AdditionalResources:   []string{},
		}
	}
}

func monitoringInterval(level model.RiskLevel) string {
	switch level {
	case model.RiskExtreme:
		return "15 minutes"
	case model.RiskHigh:
		return "30 minutes"
	case model.RiskModerate:
		return "1 hour"
	case model.RiskLow:
		return "4 hours"
	default:
		return "24 hours"
	}
}

// RiskRecommendations produces mitigation guidance ordered by descending
// priority. The monitoring-frequency item is always present and embeds the
// computed risk level.
func RiskRecommendations(level model.RiskLevel, weather model.WeatherSignal, env model.EnvironmentalSignal) []model.Recommendation {
	var critical, high, medium []model.Recommendation

	if level == model.RiskExtreme {
		critical = append(critical, model.Recommendation{
			Priority: "critical",
			Action:   "preposition_units",
			Message:  "Pre-position response units near the area; extreme ignition conditions",
		})
	}
	if level == model.RiskExtreme || level == model.RiskHigh {
		high = append(high, model.Recommendation{
			Priority: "high",
			Action:   "alert_stations",
			Message:  "Notify nearby stations of elevated fire risk",
		})
	}
	if weather.DroughtIndex > 0.7 {
		high = append(high, model.Recommendation{
			Priority: "high",
			Action:   "burn_restrictions",
			Message:  "Drought conditions present; recommend open-burn restrictions",
		})
	}
	if weather.WindSpeed > 20 {
		high = append(high, model.Recommendation{
			Priority: "high",
			Action:   "wind_advisory",
			Message:  "High winds will accelerate fire spread; brief crews on wind conditions",
		})
	}
	if env.VegetationDryness > 0.7 {
		medium = append(medium, model.Recommendation{
			Priority: "medium",
			Action:   "vegetation_clearing",
			Message:  "Dry vegetation nearby; recommend clearing defensible space",
		})
	}
	medium = append(medium, model.Recommendation{
		Priority: "medium",
		Action:   "monitoring_frequency",
		Message:  fmt.Sprintf("Reassess conditions every %s (risk level: %s)", monitoringInterval(level), level),
	})

	out := append(critical, high...)
	return append(out, medium...)
}

// EstimateSeverity derives an incident severity estimate. Override rules
// apply in order; later rules win.
func EstimateSeverity(priorityScore float64, media *model.MediaAnalysis) string {
	severity := "minor"
	switch {
	case priorityScore >= 0.8:
		severity = "major"
	case priorityScore >= 0.6:
		severity = "moderate"
	}
	if media != nil {
		if media.StructuralDamage {
			severity = "major"
		}
		if media.PeopleDetected && priorityScore >= 0.6 {
			severity = "critical"
		}
	}
	return severity
}

// Confidence combines analysis confidences: average when both are present,
// discounted text confidence when media is missing, flat 0.5 otherwise.
func Confidence(text model.TextAnalysis, media *model.MediaAnalysis) float64 {
	hasText := text.Confidence > 0
	switch {
	case hasText && media != nil:
		return (text.Confidence + media.Confidence) / 2
	case hasText:
		return text.Confidence * 0.8
	default:
		return 0.5
	}
}
