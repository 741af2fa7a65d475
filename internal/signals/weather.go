package signals

import (
	"context"
	"math"

	"firewatch/internal/model"
)

// WeatherProvider supplies current conditions for a location. Implementations
// must always return a fully populated signal; the pipeline relies on weather
// never blocking a risk assessment.
type WeatherProvider interface {
	Weather(ctx context.Context, loc model.GeoPoint) (model.WeatherSignal, error)
}

// EnvironmentProvider supplies the environmental factor bundle. Same contract
// as WeatherProvider.
type EnvironmentProvider interface {
	Environment(ctx context.Context, loc model.GeoPoint) (model.EnvironmentalSignal, error)
}

// SyntheticWeather is the default provider used when no live weather feed is
// wired. Values are derived deterministically from the coordinates so that
// repeated assessments for one location agree, and stay inside the documented
// ranges: temperature 25-45C, humidity 30-80%, wind 0-30, precipitation 0-1,
// drought index 0-1.
type SyntheticWeather struct{}

func (SyntheticWeather) Weather(_ context.Context, loc model.GeoPoint) (model.WeatherSignal, error) {
	u := unitNoise(loc.Lat, loc.Lng)
	return model.WeatherSignal{
		Temperature:   25 + u(1)*20,
		Humidity:      30 + u(2)*50,
		WindSpeed:     u(3) * 30,
		Precipitation: u(4),
		DroughtIndex:  u(5),
	}, nil
}

// SyntheticEnvironment mirrors SyntheticWeather for the environmental bundle.
// Air quality spans 20-120 so both the degraded (<50) and healthy branches of
// the scorer are reachable.
type SyntheticEnvironment struct{}

func (SyntheticEnvironment) Environment(_ context.Context, loc model.GeoPoint) (model.EnvironmentalSignal, error) {
	u := unitNoise(loc.Lat, loc.Lng)
	return model.EnvironmentalSignal{
		VegetationDryness: u(11),
		AirQuality:        20 + u(12)*100,
		ProximityToRisk:   u(13),
		BuildingDensity:   u(14),
	}, nil
}

// unitNoise returns a stream of stable pseudo-random values in [0,1) keyed by
// the coordinates and a channel index. splitmix64 over the quantized coords.
func unitNoise(lat, lng float64) func(ch uint64) float64 {
	seed := uint64(int64(lat*1e4))*0x9e3779b97f4a7c15 ^ uint64(int64(lng*1e4))
	return func(ch uint64) float64 {
		z := seed + ch*0x9e3779b97f4a7c15
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
		return math.Abs(float64(z%1e9) / 1e9)
	}
}
