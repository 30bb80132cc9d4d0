// Package geo holds the single great-circle distance implementation used by
// every proximity filter in the service.
package geo

import (
	"errors"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate is returned for NaN, infinite or out-of-range input.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Validate checks that p is finite and within [-90,90] x [-180,180].
func (p Point) Validate() error {
	if !finite(p.Lat) || !finite(p.Lng) {
		return ErrInvalidCoordinate
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidCoordinate
	}
	return nil
}

// DistanceKm returns the haversine distance in kilometres between
// (lat1, lon1) and (lat2, lon2).
func DistanceKm(lat1, lon1, lat2, lon2 float64) (float64, error) {
	return Between(Point{Lat: lat1, Lng: lon1}, Point{Lat: lat2, Lng: lon2})
}

// Between is DistanceKm for two Points.
func Between(a, b Point) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair above 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h)), nil
}

// FromNullable builds a Point from optional coordinates.  Missing values are
// reported as ErrInvalidCoordinate so every call site treats them alike.
func FromNullable(lat, lng *float64) (Point, error) {
	if lat == nil || lng == nil {
		return Point{}, ErrInvalidCoordinate
	}
	p := Point{Lat: *lat, Lng: *lng}
	return p, p.Validate()
}

// Round2 rounds a distance to two decimals for display.
func Round2(km float64) float64 {
	return math.Round(km*100) / 100
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
