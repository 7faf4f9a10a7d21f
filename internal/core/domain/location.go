package domain

import (
	"fmt"
	"math"
)

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// IsZero reports whether the point is the unset zero value.
func (c Coordinates) IsZero() bool { return c.Lat == 0 && c.Lng == 0 }

// LocationSample is one courier position report from the assignment store.
type LocationSample struct {
	Lat         float64   `json:"lat" bson:"lat"`
	Lng         float64   `json:"lng" bson:"lng"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Timestamp   Timestamp `json:"timestamp" bson:"timestamp"`
	AccuracyM   float64   `json:"accuracy_m,omitempty" bson:"accuracy_m,omitempty"`
}

// Validate checks the coordinate invariants: both values finite, latitude in
// [-90, 90] and longitude in [-180, 180]. Samples failing validation must be
// dropped, never forwarded.
func (s LocationSample) Validate() error {
	if math.IsNaN(s.Lat) || math.IsInf(s.Lat, 0) || math.IsNaN(s.Lng) || math.IsInf(s.Lng, 0) {
		return fmt.Errorf("%w: non-finite coordinates (%v, %v)", ErrInvalidCoordinates, s.Lat, s.Lng)
	}
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinates, s.Lat)
	}
	if s.Lng < -180 || s.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinates, s.Lng)
	}
	return nil
}

// Coordinates returns the sample's position as a Coordinates value.
func (s LocationSample) Coordinates() Coordinates {
	return Coordinates{Lat: s.Lat, Lng: s.Lng}
}

// Route is a resolved road path between two points.
type Route struct {
	Points     []Coordinates `json:"points"`
	DistanceKm float64       `json:"distance_km"`
}

// MapCoordinates is the view state for the tracking map. It is owned
// exclusively by the active tracking session and replaced wholesale on each
// accepted update, never partially mutated by two writers.
type MapCoordinates struct {
	Current            Coordinates `json:"current"`
	Destination        Coordinates `json:"destination"`
	CurrentDescription string      `json:"current_description,omitempty"`
	RouteDistanceKm    float64     `json:"route_distance_km,omitempty"`
	RouteAvailable     bool        `json:"route_available"`
	LastUpdated        Timestamp   `json:"last_updated,omitempty"`
}
