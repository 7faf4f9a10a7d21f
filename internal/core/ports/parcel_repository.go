package ports

import (
	"context"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

// ParcelRepository reads the authoritative parcel record store. The engine
// never writes through this interface.
type ParcelRepository interface {
	// GetByTrackingID retrieves one parcel. Zero matches is reported as
	// domain.ErrParcelNotFound, not as an empty result.
	GetByTrackingID(ctx context.Context, trackingID string) (*domain.Parcel, error)
}
