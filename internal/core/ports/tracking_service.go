package ports

import (
	"context"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

// TrackingSnapshot is the full result of one tracking lookup: the parcel,
// its merged timeline, resolved map state, optional route and ETA.
type TrackingSnapshot struct {
	Parcel   *domain.Parcel
	Timeline []domain.TrackingEvent
	Map      domain.MapCoordinates
	// Route is nil when the routing provider could not resolve a path; the
	// map layer then draws a straight line between Map.Current and
	// Map.Destination.
	Route *domain.Route
	// ETA is nil when the parcel is already delivered.
	ETA *domain.EstimatedDelivery
	// Generation identifies the lookup that produced this snapshot. Live
	// updates carry the same token so stale sessions can be told apart.
	Generation string
	// LiveTracking reports whether the session started the live location
	// tracker for this parcel.
	LiveTracking bool
}

// LocationUpdate is one accepted live position change, with the map state
// and route recomputed for it.
type LocationUpdate struct {
	Sample     domain.LocationSample
	Map        domain.MapCoordinates
	Route      *domain.Route
	Generation string
}

// TrackingService is the engine's public surface: one session per consumer,
// lifetime tied to the consumer, torn down with Close.
type TrackingService interface {
	// Lookup resolves a tracking identifier into a snapshot. Starting a new
	// lookup fully tears down the previous one first.
	Lookup(ctx context.Context, trackingID string) (*TrackingSnapshot, error)

	// Updates streams live location updates for the active lookup.
	Updates() <-chan LocationUpdate

	// Close stops live tracking and releases the session. Idempotent.
	Close()
}
