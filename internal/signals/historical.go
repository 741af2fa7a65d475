package signals

import (
	"context"
	"time"

	"firewatch/internal/model"
)

// IncidentSource is the slice of the store the historical gatherer needs.
type IncidentSource interface {
	QueryIncidentsSince(ctx context.Context, tenantID string, since time.Time) ([]model.Incident, error)
}

const (
	lookbackDays          = 365
	defaultRadiusKM       = 5.0
	defaultAvgResponseMin = 8.5
	responseOutlierMaxMin = 180.0
)

// Seasons and day periods used by the pattern summaries.
var seasonNames = []string{"winter", "spring", "summer", "fall"}

func seasonOf(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "fall"
	}
}

func periodOf(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

// historicalSummary aggregates incidents within the radius of loc over the
// last 365 days into the summary the scorer consumes.
func historicalSummary(incidents []model.Incident, loc model.GeoPoint, radiusKM float64, asOf time.Time) model.HistoricalSummary {
	if radiusKM <= 0 {
		radiusKM = defaultRadiusKM
	}
	nearby := make([]model.Incident, 0, len(incidents))
	for _, inc := range incidents {
		if HaversineKM(loc.Lat, loc.Lng, inc.Location.Lat, inc.Location.Lng) <= radiusKM {
			nearby = append(nearby, inc)
		}
	}

	sum := model.HistoricalSummary{TotalIncidents: len(nearby)}
	sum.AverageResponseTime = averageResponseMinutes(nearby)
	sum.SeasonalPattern = seasonalPattern(nearby, asOf)
	sum.TimePattern = timePattern(nearby, asOf)
	return sum
}

func averageResponseMinutes(incidents []model.Incident) float64 {
	total, n := 0.0, 0
	for _, inc := range incidents {
		var responded *time.Time
		if inc.DispatchedAt != nil {
			responded = inc.DispatchedAt
		} else if inc.ResolvedAt != nil {
			responded = inc.ResolvedAt
		}
		if responded == nil {
			continue
		}
		mins := responded.Sub(inc.CreatedAt).Minutes()
		if mins <= 0 || mins >= responseOutlierMaxMin {
			continue
		}
		total += mins
		n++
	}
	if n == 0 {
		return defaultAvgResponseMin
	}
	return total / float64(n)
}

func seasonalPattern(incidents []model.Incident, asOf time.Time) *model.SeasonalPattern {
	counts := map[string]int{}
	for _, s := range seasonNames {
		counts[s] = 0
	}
	for _, inc := range incidents {
		counts[seasonOf(inc.CreatedAt)]++
	}
	peak, peakCount := seasonNames[0], -1
	for _, s := range seasonNames {
		if counts[s] > peakCount {
			peak, peakCount = s, counts[s]
		}
	}
	current := seasonOf(asOf)
	mult := 1.0
	if peakCount > 0 {
		mult = float64(counts[current]) / float64(peakCount)
		if mult < 0.5 {
			mult = 0.5
		}
	}
	return &model.SeasonalPattern{
		Counts:         counts,
		PeakSeason:     peak,
		CurrentSeason:  current,
		RiskMultiplier: mult,
	}
}

func timePattern(incidents []model.Incident, asOf time.Time) *model.TimePattern {
	var tp model.TimePattern
	for _, inc := range incidents {
		tp.Hourly[inc.CreatedAt.Hour()]++
	}
	peakCount := -1
	for h, c := range tp.Hourly {
		if c > peakCount {
			tp.PeakHour, peakCount = h, c
		}
	}
	tp.PeakPeriod = periodOf(tp.PeakHour)
	tp.RiskMultiplier = 1.0
	if peakCount > 0 {
		tp.RiskMultiplier = float64(tp.Hourly[asOf.Hour()]) / float64(peakCount)
		if tp.RiskMultiplier < 0.3 {
			tp.RiskMultiplier = 0.3
		}
	}
	return &tp
}
