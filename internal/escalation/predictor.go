package escalation

import (
	"context"
	"math"
	"time"

	"firewatch/internal/model"
	"firewatch/internal/signals"
	"firewatch/internal/triage"
)

// Weighting of the three escalation factor groups.
const (
	envWeight      = 0.25
	responseWeight = 0.35
	incidentWeight = 0.4
)

// Fixed reassessment schedule for active incidents.
var checkpoints = []model.Checkpoint{
	{TimeMinutes: 15, Action: "Reassess incident severity and containment status"},
	{TimeMinutes: 30, Action: "Verify resource adequacy; request backup if containment is not progressing"},
	{TimeMinutes: 60, Action: "Full command review; evaluate evacuation and mutual aid"},
}

// Predictor estimates how likely an active incident is to worsen without
// additional intervention.
type Predictor struct {
	Gatherers *signals.Gatherers
	Clock     func() time.Time
}

func New(g *signals.Gatherers) *Predictor {
	return &Predictor{Gatherers: g, Clock: time.Now}
}

func (p *Predictor) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

// Predict never fails; gatherer degradation lowers the reported confidence.
func (p *Predictor) Predict(ctx context.Context, inc model.ActiveIncident) model.EscalationPrediction {
	at := p.now()
	env, degraded := p.Gatherers.GatherEnvironment(ctx, inc.Location)

	envScore := env.VegetationDryness*0.3 +
		branch(env.AirQuality < 50, 0.8, 0.2)*0.2 +
		env.ProximityToRisk*0.3 +
		env.BuildingDensity*0.2

	responseScore := branch(inc.ResponseTime > 10, 0.8, 0.3)*0.4 +
		branch(inc.ResourcesDeployed < 2, 0.7, 0.3)*0.3 +
		branch(inc.PersonnelExperience < 0.5, 0.8, 0.2)*0.3

	severityScore := 0.2
	switch inc.Severity {
	case "critical":
		severityScore = 0.9
	case "high":
		severityScore = 0.7
	case "medium":
		severityScore = 0.4
	}
	timeScore := math.Min(hoursActive(inc.StartedAt, at)/2, 1)
	incidentScore := severityScore*0.6 + timeScore*0.4

	probability := envScore*envWeight + responseScore*responseWeight + incidentScore*incidentWeight
	if probability < 0 {
		probability = 0
	} else if probability > 1 {
		probability = 1
	}

	estMinutes := math.Max(60*(1-probability)*2, 15)
	confidence := 0.8
	if degraded {
		confidence = 0.6
	}

	return model.EscalationPrediction{
		Probability: probability,
		RiskLevel:   triage.EscalationLevelFor(probability),
		Timeline: model.EscalationTimeline{
			EstimatedTimeToEscalation: estMinutes,
			Confidence:                confidence,
			CriticalFactors:           criticalFactors(env, inc),
			RecommendedCheckpoints:    checkpoints,
		},
		PreventionActions: preventionActions(probability, env, inc),
		Factors: model.EscalationFactors{
			Environmental: env,
			ResponseScore: responseScore,
			IncidentScore: incidentScore,
		},
		Recommendations: []model.Recommendation{
			{
				Priority: "medium",
				Action:   "monitoring_frequency",
				Message:  "Reassess at the recommended checkpoints (escalation risk: " + string(triage.EscalationLevelFor(probability)) + ")",
			},
		},
		Timestamp: at,
	}
}

func hoursActive(startedAt string, now time.Time) float64 {
	if startedAt == "" {
		return 0
	}
	t, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return 0
	}
	h := now.Sub(t).Hours()
	if h < 0 {
		return 0
	}
	return h
}

func branch(cond bool, yes, no float64) float64 {
	if cond {
		return yes
	}
	return no
}

func criticalFactors(env model.EnvironmentalSignal, inc model.ActiveIncident) []string {
	var out []string
	if env.VegetationDryness > 0.7 {
		out = append(out, "dry vegetation in the surrounding area")
	}
	if env.AirQuality < 50 {
		out = append(out, "degraded air quality")
	}
	if env.ProximityToRisk > 0.7 {
		out = append(out, "proximity to high-risk structures or terrain")
	}
	if inc.ResponseTime > 10 {
		out = append(out, "slow initial response")
	}
	if inc.ResourcesDeployed < 2 {
		out = append(out, "thin resource coverage on scene")
	}
	return out
}

// preventionActions is additive: every matching rule fires.
func preventionActions(probability float64, env model.EnvironmentalSignal, inc model.ActiveIncident) []model.Recommendation {
	var out []model.Recommendation
	if probability > 0.7 {
		out = append(out, model.Recommendation{
			Priority: "critical",
			Action:   "deploy_resources",
			Message:  "Escalation likely; deploy additional resources immediately",
		})
	}
	if inc.ResourcesDeployed < 2 {
		out = append(out, model.Recommendation{
			Priority: "high",
			Action:   "request_backup",
			Message:  "Fewer than two units on scene; request backup",
		})
	}
	if env.VegetationDryness > 0.7 {
		out = append(out, model.Recommendation{
			Priority: "high",
			Action:   "widen_perimeter",
			Message:  "Dry vegetation surrounds the scene; widen the containment perimeter",
		})
	}
	if inc.PersonnelExperience < 0.5 {
		out = append(out, model.Recommendation{
			Priority: "medium",
			Action:   "experienced_commander",
			Message:  "On-scene experience is low; request an experienced incident commander",
		})
	}
	return out
}
