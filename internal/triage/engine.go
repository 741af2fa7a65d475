package triage

import (
	"context"
	"log"
	"time"

	"firewatch/internal/config"
	"firewatch/internal/metrics"
	"firewatch/internal/model"
	"firewatch/internal/signals"
)

// Default assessment location when a caller supplies none.
var defaultLocation = model.GeoPoint{Lat: 40.7128, Lng: -74.0060}

// ValidationError reports caller input that fails the minimum-content
// contract. It is the only error the pipeline surfaces.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// VisionProvider is the optional media-analysis port. When absent the
// priority formula uses its no-media branch.
type VisionProvider interface {
	AnalyzeMedia(ctx context.Context, media []model.MediaRef) (*model.MediaAnalysis, error)
}

// Engine is the triage and risk-scoring pipeline. Stateless aside from its
// injected collaborators; safe for concurrent use.
type Engine struct {
	Gatherers *signals.Gatherers
	Vision    VisionProvider
	Weights   config.Weights
	Clock     func() time.Time
}

func NewEngine(g *signals.Gatherers, w config.Weights) *Engine {
	return &Engine{Gatherers: g, Weights: w, Clock: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

// CalculateFireRiskScore assesses ambient fire risk for a location. It never
// fails: missing location falls back to the default, gatherer failures
// degrade to defaults and are reflected in the Degraded flag. Degraded
// assessments report at least MODERATE so a partial outage cannot silently
// read as all-clear.
func (e *Engine) CalculateFireRiskScore(ctx context.Context, tenantID string, loc *model.GeoPoint) model.RiskAssessment {
	at := e.now()
	point := defaultLocation
	if loc != nil && (loc.Lat != 0 || loc.Lng != 0) {
		point = *loc
	}

	weather, wDeg := e.Gatherers.GatherWeather(ctx, point)
	hist, hDeg := e.Gatherers.GatherHistorical(ctx, tenantID, point, at)
	env, eDeg := e.Gatherers.GatherEnvironment(ctx, point)
	degraded := wDeg || hDeg || eDeg

	score := FireRiskScore(e.Weights, weather, hist, env, at)
	level := RiskLevelFor(score)
	if degraded && level.Rank() < model.RiskModerate.Rank() {
		level = model.RiskModerate
	}
	metrics.RiskScores.Observe(score)

	return model.RiskAssessment{
		RiskScore:       score,
		RiskLevel:       level,
		Recommendations: RiskRecommendations(level, weather, env),
		Factors:         model.RiskFactors{Weather: weather, Historical: hist, Environmental: env},
		Timestamp:       at,
		Degraded:        degraded,
	}
}

// PerformTriage scores one reported incident. The only failure mode is a
// report carrying neither a description nor media.
func (e *Engine) PerformTriage(ctx context.Context, tenantID string, in model.IncidentIn) (model.TriageResult, error) {
	if in.Description == "" && len(in.Media) == 0 {
		return model.TriageResult{}, &ValidationError{Msg: "incident requires a description or media"}
	}

	at := e.now()
	if in.ReportedAt != "" {
		if t, err := time.Parse(time.RFC3339, in.ReportedAt); err == nil {
			at = t
		}
	}

	text := AnalyzeText(in.Description)
	media := e.analyzeMedia(ctx, in.Media)
	location := e.CalculateFireRiskScore(ctx, tenantID, in.Location)

	score := PriorityScore(e.Weights, text, media, location.RiskScore, at)
	level := PriorityLevelFor(score)
	if location.Degraded && level.Rank() < model.PriorityMedium.Rank() {
		level = model.PriorityMedium
	}
	metrics.TriageRequests.WithLabelValues(string(level)).Inc()

	return model.TriageResult{
		PriorityScore:          score,
		PriorityLevel:          level,
		Confidence:             Confidence(text, media),
		ResponseRecommendation: RecommendResponse(score),
		Analysis: model.TriageAnalysis{
			Text:     text,
			Media:    media,
			Location: location,
		},
		EstimatedSeverity: EstimateSeverity(score, media),
		Timestamp:         at,
	}, nil
}

// analyzeMedia consults the vision provider when media is present. Provider
// failure selects the no-media branch rather than failing the triage.
func (e *Engine) analyzeMedia(ctx context.Context, media []model.MediaRef) *model.MediaAnalysis {
	if e.Vision == nil || len(media) == 0 {
		return nil
	}
	out, err := e.Vision.AnalyzeMedia(ctx, media)
	if err != nil {
		log.Printf("media analysis degraded, continuing without: %v", err)
		metrics.GathererFallbacks.WithLabelValues("vision").Inc()
		return nil
	}
	return out
}
