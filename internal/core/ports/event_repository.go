package ports

import (
	"context"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

// EventLogRepository reads the append-only status event log. Writers are out
// of scope; the engine only merges from it.
type EventLogRepository interface {
	// QueryByTrackingID returns all event records for a parcel ordered by
	// time ascending. An empty slice is a legitimate outcome.
	QueryByTrackingID(ctx context.Context, trackingID string) ([]domain.EventRecord, error)
}
