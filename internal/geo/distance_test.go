package geo

import (
	"errors"
	"math"
	"testing"
)

func TestDistanceKmSamePointIsZero(t *testing.T) {
	points := []Point{
		{12.9716, 77.5946},
		{0, 0},
		{-33.8688, 151.2093},
		{90, 180},
		{-90, -180},
	}
	for _, p := range points {
		d, err := Between(p, p)
		if err != nil {
			t.Fatalf("unexpected error for %+v: %v", p, err)
		}
		if d != 0 {
			t.Fatalf("expected 0 for %+v, got %f", p, d)
		}
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	pairs := [][2]Point{
		{{12.9716, 77.5946}, {13.5, 78.5}},
		{{51.5074, -0.1278}, {40.7128, -74.0060}},
		{{-89.9, 10}, {89.9, -170}},
		{{0, 179.9}, {0, -179.9}},
	}
	for _, p := range pairs {
		ab, err := Between(p[0], p[1])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := Between(p[1], p[0])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("expected symmetric distance, got %f and %f", ab, ba)
		}
		if ab < 0 {
			t.Fatalf("expected non-negative distance, got %f", ab)
		}
	}
}

func TestDistanceKmKnownValues(t *testing.T) {
	// London to Paris is roughly 343.5 km on a 6371 km sphere.
	d, err := DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d < 340 || d > 347 {
		t.Fatalf("expected ~343 km, got %f", d)
	}

	// One degree of latitude along a meridian.
	d, err = DistanceKm(0, 0, 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := EarthRadiusKm * math.Pi / 180
	if math.Abs(d-want) > 1e-6 {
		t.Fatalf("expected %f, got %f", want, d)
	}

	// Bengaluru centre to (13.5, 78.5) is well beyond 5 km.
	d, err = DistanceKm(12.9716, 77.5946, 13.5, 78.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d <= 5 {
		t.Fatalf("expected more than 5 km, got %f", d)
	}
}

func TestDistanceKmRejectsInvalidInput(t *testing.T) {
	cases := [][4]float64{
		{math.NaN(), 0, 0, 0},
		{0, math.Inf(1), 0, 0},
		{0, 0, math.Inf(-1), 0},
		{91, 0, 0, 0},
		{0, 0, 0, -181},
	}
	for _, c := range cases {
		if _, err := DistanceKm(c[0], c[1], c[2], c[3]); !errors.Is(err, ErrInvalidCoordinate) {
			t.Fatalf("expected ErrInvalidCoordinate for %v, got %v", c, err)
		}
	}
}

func TestFromNullable(t *testing.T) {
	lat, lng := 12.0, 77.0
	if _, err := FromNullable(&lat, nil); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected missing lng to be invalid, got %v", err)
	}
	if _, err := FromNullable(nil, nil); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected missing coordinates to be invalid, got %v", err)
	}
	p, err := FromNullable(&lat, &lng)
	if err != nil || p.Lat != 12 || p.Lng != 77 {
		t.Fatalf("expected point (12,77), got %+v err=%v", p, err)
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		0:        0,
		1.234:    1.23,
		1.235001: 1.24,
		99.999:   100,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Fatalf("Round2(%v): expected %v, got %v", in, want, got)
		}
	}
}
