package signals

import (
	"context"
	"log"
	"time"

	"firewatch/internal/metrics"
	"firewatch/internal/model"
)

// Gatherers produces the three factor bundles the scorer needs. Provider and
// store failures are swallowed and replaced with safe defaults: a degraded
// assessment is always preferable to no assessment.
type Gatherers struct {
	Incidents IncidentSource
	Weather   WeatherProvider
	Env       EnvironmentProvider
	Timeout   time.Duration
	RadiusKM  float64
}

func New(incidents IncidentSource) *Gatherers {
	return &Gatherers{
		Incidents: incidents,
		Weather:   SyntheticWeather{},
		Env:       SyntheticEnvironment{},
		Timeout:   5 * time.Second,
		RadiusKM:  defaultRadiusKM,
	}
}

func (g *Gatherers) timeout() time.Duration {
	if g.Timeout <= 0 {
		return 5 * time.Second
	}
	return g.Timeout
}

// GatherWeather never fails. A provider error falls back to the synthetic
// generator and is recorded, not surfaced.
func (g *Gatherers) GatherWeather(ctx context.Context, loc model.GeoPoint) (model.WeatherSignal, bool) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()
	provider := g.Weather
	if provider == nil {
		provider = SyntheticWeather{}
	}
	ws, err := provider.Weather(ctx, loc)
	if err != nil {
		log.Printf("weather gatherer degraded, using defaults: %v", err)
		metrics.GathererFallbacks.WithLabelValues("weather").Inc()
		ws, _ = SyntheticWeather{}.Weather(ctx, loc)
		return ws, true
	}
	return ws, false
}

// GatherEnvironment mirrors GatherWeather.
func (g *Gatherers) GatherEnvironment(ctx context.Context, loc model.GeoPoint) (model.EnvironmentalSignal, bool) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()
	provider := g.Env
	if provider == nil {
		provider = SyntheticEnvironment{}
	}
	es, err := provider.Environment(ctx, loc)
	if err != nil {
		log.Printf("environment gatherer degraded, using defaults: %v", err)
		metrics.GathererFallbacks.WithLabelValues("environment").Inc()
		es, _ = SyntheticEnvironment{}.Environment(ctx, loc)
		return es, true
	}
	return es, false
}

// GatherHistorical summarizes the last 365 days of incidents within the
// radius. On store failure it returns an empty summary so scoring stays
// available during partial outages.
func (g *Gatherers) GatherHistorical(ctx context.Context, tenantID string, loc model.GeoPoint, asOf time.Time) (model.HistoricalSummary, bool) {
	if g.Incidents == nil {
		return model.HistoricalSummary{}, true
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout())
	defer cancel()
	since := asOf.AddDate(0, 0, -lookbackDays)
	incidents, err := g.Incidents.QueryIncidentsSince(ctx, tenantID, since)
	if err != nil {
		log.Printf("historical gatherer degraded for (%f,%f): %v", loc.Lat, loc.Lng, err)
		metrics.GathererFallbacks.WithLabelValues("historical").Inc()
		return model.HistoricalSummary{}, true
	}
	return historicalSummary(incidents, loc, g.RadiusKM, asOf), false
}
