package dedup

import (
	"math"
	"testing"
)

func TestDistanceKMIdenticalPoints(t *testing.T) {
	if d := DistanceKM(41.0082, 28.9784, 41.0082, 28.9784); d != 0 {
		t.Fatalf("distance for identical points = %v, want 0", d)
	}
}

func TestDistanceKMOneDegreeLatitude(t *testing.T) {
	// One degree of latitude is ~111.19 km everywhere.
	d := DistanceKM(40.0, 29.0, 41.0, 29.0)
	if math.Abs(d-111.19) > 0.5 {
		t.Fatalf("one degree latitude = %v km, want ~111.19", d)
	}
}

func TestDistanceKMSymmetric(t *testing.T) {
	ab := DistanceKM(41.0082, 28.9784, 39.9334, 32.8597)
	ba := DistanceKM(39.9334, 32.8597, 41.0082, 28.9784)
	if ab != ba {
		t.Fatalf("asymmetric: %v vs %v", ab, ba)
	}
	// Istanbul to Ankara, roughly 350 km.
	if ab < 300 || ab > 400 {
		t.Fatalf("Istanbul-Ankara = %v km, want ~350", ab)
	}
}

func TestDistanceKMRounding(t *testing.T) {
	d := DistanceKM(41.0, 29.0, 41.001, 29.001)
	if d != math.Round(d*100)/100 {
		t.Fatalf("distance %v not rounded to 2 decimals", d)
	}
}
