package ports

import (
	"context"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

// GeocodeResult is a resolved address/coordinate pair.
type GeocodeResult struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formatted_address"`
}

// Geocoder wraps the external geocoding provider. Both directions distinguish
// "address unknown" (domain.ErrNoResult) from transient provider failures so
// callers can pick the right fallback.
type Geocoder interface {
	Forward(ctx context.Context, address string) (*GeocodeResult, error)
	Reverse(ctx context.Context, lat, lng float64) (*GeocodeResult, error)
}

// RoutePlanner wraps the external routing provider. Failures yield
// domain.ErrRouteUnavailable (no road route) or a transient error; either way
// the caller falls back to a straight line between the two points.
type RoutePlanner interface {
	Route(ctx context.Context, origin, dest domain.Coordinates) (*domain.Route, error)
}
