package domain

import "errors"

var (
	// ErrParcelNotFound is returned when a tracking identifier has no
	// matching parcel record. Reported to the caller, never retried.
	ErrParcelNotFound = errors.New("parcel not found")

	// ErrEmptyTrackingID rejects a lookup before any I/O happens.
	ErrEmptyTrackingID = errors.New("tracking identifier must not be empty")

	// ErrInvalidCoordinates marks a location sample outside the valid
	// latitude/longitude ranges or carrying non-finite values.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrNoResult is the geocoder's "address unknown" outcome, distinct
	// from a transient provider failure.
	ErrNoResult = errors.New("no result")

	// ErrRouteUnavailable signals that no road route could be resolved and
	// the map layer should fall back to a straight line.
	ErrRouteUnavailable = errors.New("route unavailable")

	// ErrProviderUnavailable marks a transient provider failure (timeout,
	// open circuit). Callers absorb it with their defined fallback.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrLookupSuperseded is returned to a lookup whose session was reset
	// by a newer lookup while its I/O was still in flight.
	ErrLookupSuperseded = errors.New("lookup superseded")
)
