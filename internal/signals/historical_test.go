package signals

import (
	"math"
	"testing"
	"time"

	"firewatch/internal/model"
)

var testAsOf = time.Date(2025, 7, 10, 14, 0, 0, 0, time.UTC)

func incidentAt(lat, lng float64, created time.Time, respondedAfter time.Duration) model.Incident {
	inc := model.Incident{Location: model.GeoPoint{Lat: lat, Lng: lng}, CreatedAt: created, Status: "reported"}
	if respondedAfter > 0 {
		at := created.Add(respondedAfter)
		inc.DispatchedAt = &at
		inc.Status = "dispatched"
	}
	return inc
}

func TestHistoricalSummaryRadiusFilter(t *testing.T) {
	loc := model.GeoPoint{Lat: 34.05, Lng: -118.24}
	incidents := []model.Incident{
		incidentAt(34.05, -118.24, testAsOf.AddDate(0, -1, 0), 6*time.Minute),
		incidentAt(34.051, -118.241, testAsOf.AddDate(0, -2, 0), 10*time.Minute),
		// about 111 km north, outside the 5 km radius
		incidentAt(35.05, -118.24, testAsOf.AddDate(0, -1, 0), 5*time.Minute),
	}
	sum := historicalSummary(incidents, loc, 5, testAsOf)
	if sum.TotalIncidents != 2 {
		t.Fatalf("radius filter: got %d incidents", sum.TotalIncidents)
	}
	if math.Abs(sum.AverageResponseTime-8) > 1e-9 {
		t.Fatalf("average response: got %v want 8", sum.AverageResponseTime)
	}
}

func TestAverageResponseDefaults(t *testing.T) {
	// no incident carries a response timestamp
	incidents := []model.Incident{
		incidentAt(34.05, -118.24, testAsOf.AddDate(0, -1, 0), 0),
	}
	sum := historicalSummary(incidents, model.GeoPoint{Lat: 34.05, Lng: -118.24}, 5, testAsOf)
	if sum.AverageResponseTime != 8.5 {
		t.Fatalf("default average response: got %v", sum.AverageResponseTime)
	}
}

func TestAverageResponseDropsOutliers(t *testing.T) {
	incidents := []model.Incident{
		incidentAt(34.05, -118.24, testAsOf.AddDate(0, -1, 0), 6*time.Minute),
		// four hours to dispatch is recording noise, not a response time
		incidentAt(34.05, -118.24, testAsOf.AddDate(0, -2, 0), 4*time.Hour),
	}
	sum := historicalSummary(incidents, model.GeoPoint{Lat: 34.05, Lng: -118.24}, 5, testAsOf)
	if math.Abs(sum.AverageResponseTime-6) > 1e-9 {
		t.Fatalf("outlier should be dropped: got %v", sum.AverageResponseTime)
	}
}

func TestSeasonalPatternFloor(t *testing.T) {
	// all incidents in winter, asOf is summer
	var incidents []model.Incident
	for i := 0; i < 4; i++ {
		incidents = append(incidents, incidentAt(34.05, -118.24, time.Date(2025, 1, 5+i, 10, 0, 0, 0, time.UTC), 5*time.Minute))
	}
	sum := historicalSummary(incidents, model.GeoPoint{Lat: 34.05, Lng: -118.24}, 5, testAsOf)
	sp := sum.SeasonalPattern
	if sp == nil {
		t.Fatal("missing seasonal pattern")
	}
	if sp.PeakSeason != "winter" || sp.CurrentSeason != "summer" {
		t.Fatalf("seasons wrong: %+v", sp)
	}
	if sp.RiskMultiplier != 0.5 {
		t.Fatalf("off-peak multiplier should floor at 0.5: %v", sp.RiskMultiplier)
	}
}

func TestTimePatternFloor(t *testing.T) {
	// all incidents at 03:00, asOf hour is 14:00
	var incidents []model.Incident
	for i := 0; i < 3; i++ {
		incidents = append(incidents, incidentAt(34.05, -118.24, time.Date(2025, 6, 1+i, 3, 0, 0, 0, time.UTC), 5*time.Minute))
	}
	sum := historicalSummary(incidents, model.GeoPoint{Lat: 34.05, Lng: -118.24}, 5, testAsOf)
	tp := sum.TimePattern
	if tp == nil {
		t.Fatal("missing time pattern")
	}
	if tp.PeakHour != 3 || tp.PeakPeriod != "night" {
		t.Fatalf("peak hour wrong: %+v", tp)
	}
	if tp.RiskMultiplier != 0.3 {
		t.Fatalf("off-peak hour multiplier should floor at 0.3: %v", tp.RiskMultiplier)
	}
}

func TestPatternsWithNoIncidents(t *testing.T) {
	sum := historicalSummary(nil, model.GeoPoint{Lat: 34.05, Lng: -118.24}, 5, testAsOf)
	if sum.TotalIncidents != 0 {
		t.Fatalf("empty input: %+v", sum)
	}
	if sum.SeasonalPattern.RiskMultiplier != 1.0 || sum.TimePattern.RiskMultiplier != 1.0 {
		t.Fatalf("no-data multipliers should be 1.0: %+v %+v", sum.SeasonalPattern, sum.TimePattern)
	}
}
