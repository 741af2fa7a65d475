package signals

import (
	"context"
	"errors"
	"testing"
	"time"

	"firewatch/internal/model"
)

type erroring struct{}

func (erroring) QueryIncidentsSince(context.Context, string, time.Time) ([]model.Incident, error) {
	return nil, errors.New("connection refused")
}

func TestGatherHistoricalFallback(t *testing.T) {
	g := New(erroring{})
	sum, degraded := g.GatherHistorical(context.Background(), "t_test", model.GeoPoint{Lat: 34.05, Lng: -118.24}, time.Now())
	if !degraded {
		t.Fatal("store error should flag degraded")
	}
	if sum.TotalIncidents != 0 || sum.AverageResponseTime != 0 {
		t.Fatalf("degraded summary should be empty: %+v", sum)
	}
}

func TestGatherHistoricalNilSource(t *testing.T) {
	g := &Gatherers{}
	_, degraded := g.GatherHistorical(context.Background(), "t_test", model.GeoPoint{}, time.Now())
	if !degraded {
		t.Fatal("missing source should flag degraded")
	}
}

type erroringWeather struct{}

func (erroringWeather) Weather(context.Context, model.GeoPoint) (model.WeatherSignal, error) {
	return model.WeatherSignal{}, errors.New("feed timeout")
}

func TestGatherWeatherFallsBackToSynthetic(t *testing.T) {
	g := New(nil)
	g.Weather = erroringWeather{}
	loc := model.GeoPoint{Lat: 34.05, Lng: -118.24}
	ws, degraded := g.GatherWeather(context.Background(), loc)
	if !degraded {
		t.Fatal("provider error should flag degraded")
	}
	want, _ := SyntheticWeather{}.Weather(context.Background(), loc)
	if ws != want {
		t.Fatalf("fallback should be the synthetic signal: %+v vs %+v", ws, want)
	}
}

func TestSyntheticProvidersDeterministicAndBounded(t *testing.T) {
	loc := model.GeoPoint{Lat: 34.0522, Lng: -118.2437}
	a, _ := SyntheticWeather{}.Weather(context.Background(), loc)
	b, _ := SyntheticWeather{}.Weather(context.Background(), loc)
	if a != b {
		t.Fatalf("weather not deterministic: %+v vs %+v", a, b)
	}
	if a.Temperature < 25 || a.Temperature > 45 {
		t.Fatalf("temperature out of range: %v", a.Temperature)
	}
	if a.Humidity < 30 || a.Humidity > 80 {
		t.Fatalf("humidity out of range: %v", a.Humidity)
	}
	if a.WindSpeed < 0 || a.WindSpeed > 30 {
		t.Fatalf("wind out of range: %v", a.WindSpeed)
	}
	if a.DroughtIndex < 0 || a.DroughtIndex > 1 {
		t.Fatalf("drought index out of range: %v", a.DroughtIndex)
	}

	env, _ := SyntheticEnvironment{}.Environment(context.Background(), loc)
	if env.AirQuality < 20 || env.AirQuality > 120 {
		t.Fatalf("air quality out of range: %v", env.AirQuality)
	}
	if env.VegetationDryness < 0 || env.VegetationDryness > 1 {
		t.Fatalf("vegetation dryness out of range: %v", env.VegetationDryness)
	}

	other, _ := SyntheticWeather{}.Weather(context.Background(), model.GeoPoint{Lat: 40.7128, Lng: -74.0060})
	if a == other {
		t.Fatal("distinct locations should not share a signal")
	}
}
