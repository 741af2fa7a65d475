package signals

import (
	"math"
	"testing"
)

func TestHaversineKM(t *testing.T) {
	if d := HaversineKM(40.7128, -74.0060, 40.7128, -74.0060); d != 0 {
		t.Fatalf("zero distance: got %v", d)
	}
	// NYC to LA is roughly 3936 km
	d := HaversineKM(40.7128, -74.0060, 34.0522, -118.2437)
	if math.Abs(d-3936) > 50 {
		t.Fatalf("NYC-LA distance: got %v", d)
	}
	// symmetry
	back := HaversineKM(34.0522, -118.2437, 40.7128, -74.0060)
	if math.Abs(d-back) > 1e-9 {
		t.Fatalf("asymmetric distance: %v vs %v", d, back)
	}
}
