package ports

import (
	"context"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

// Subscription is a cancellable stream of courier location samples. Updates
// is closed after Close returns; Close is idempotent and safe to call from
// cleanup paths.
type Subscription interface {
	Updates() <-chan domain.LocationSample
	Close()
}

// AssignmentWatcher exposes the courier assignment store: the last reported
// position per tracking identifier, updated out of band by a courier-side
// reporter at an unpredictable cadence.
type AssignmentWatcher interface {
	// LastByTrackingID returns the most recent reported sample, or
	// domain.ErrNoResult when the courier has not reported yet.
	LastByTrackingID(ctx context.Context, trackingID string) (*domain.LocationSample, error)

	// WatchByTrackingID opens a subscription for subsequent position
	// reports. The stream ends when ctx is cancelled or Close is called.
	WatchByTrackingID(ctx context.Context, trackingID string) (Subscription, error)
}
