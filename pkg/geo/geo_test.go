package geo

import (
	"math"
	"testing"
)

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Mexico City centre to Guadalajara centre, roughly 460 km.
	d := HaversineKm(19.4326, -99.1332, 20.6597, -103.3496)
	if d < 440 || d > 480 {
		t.Errorf("expected ~460 km, got %.1f", d)
	}
}

func TestHaversineKm_ZeroForSamePoint(t *testing.T) {
	if d := HaversineKm(19.4326, -99.1332, 19.4326, -99.1332); d != 0 {
		t.Errorf("expected 0, got %v", d)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	ab := HaversineKm(40.4168, -3.7038, 41.3874, 2.1686)
	ba := HaversineKm(41.3874, 2.1686, 40.4168, -3.7038)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
}

func TestDegRadRoundTrip(t *testing.T) {
	for _, deg := range []float64{-180, -90, 0, 45.5, 90, 180} {
		if got := RadToDeg(DegToRad(deg)); math.Abs(got-deg) > 1e-9 {
			t.Errorf("round trip of %v gave %v", deg, got)
		}
	}
}

func TestOffsetKm_DistanceMatches(t *testing.T) {
	lat, lng := OffsetKm(19.4326, -99.1332, 5, 0)
	d := HaversineKm(19.4326, -99.1332, lat, lng)
	if math.Abs(d-5) > 0.05 {
		t.Errorf("expected offset of ~5 km north, got %.3f km", d)
	}

	lat, lng = OffsetKm(19.4326, -99.1332, 0, 5)
	d = HaversineKm(19.4326, -99.1332, lat, lng)
	if math.Abs(d-5) > 0.05 {
		t.Errorf("expected offset of ~5 km east, got %.3f km", d)
	}
}
