package service

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

// dedupWindow is the boundary for considering two events duplicates: same
// status with timestamps at most this far apart.
const dedupWindow = time.Second

// TimelineBuilder merges the parcel record and the event log into one
// ordered, deduplicated sequence of tracking events.
type TimelineBuilder struct {
	log zerolog.Logger
}

func NewTimelineBuilder(log zerolog.Logger) *TimelineBuilder {
	return &TimelineBuilder{log: log}
}

// statusTitle maps a canonical status to its timeline headline.
var statusTitle = map[domain.ParcelStatus]string{
	domain.StatusRegistered:     "Parcel Registered",
	domain.StatusInTransit:      "In Transit",
	domain.StatusOutForDelivery: "Out for Delivery",
	domain.StatusDelivered:      "Delivered",
}

// statusDescription provides defaults for log entries without one.
var statusDescription = map[domain.ParcelStatus]string{
	domain.StatusRegistered:     "Parcel registered and awaiting pickup",
	domain.StatusInTransit:      "Parcel is moving between facilities",
	domain.StatusOutForDelivery: "Courier is on the way to the receiver",
	domain.StatusDelivered:      "Parcel handed over to the receiver",
}

var statusIcon = map[domain.ParcelStatus]string{
	domain.StatusRegistered:     "package",
	domain.StatusInTransit:      "truck",
	domain.StatusOutForDelivery: "navigation",
	domain.StatusDelivered:      "check-circle",
}

// Build produces the display timeline for one parcel, newest first.
//
// The registration event is always synthesized from the parcel record. Log
// entries are filtered to the four canonical statuses, defaulted, and merged
// with duplicate suppression (same status within dedupWindow). Terminal
// states claimed by the parcel record but missing from the log are
// synthesized last, so a surviving log entry always wins the ordering.
func (b *TimelineBuilder) Build(parcel *domain.Parcel, entries []domain.EventRecord) []domain.TrackingEvent {
	events := []domain.TrackingEvent{{
		Title:       statusTitle[domain.StatusRegistered],
		Status:      domain.StatusRegistered,
		Description: statusDescription[domain.StatusRegistered],
		Timestamp:   parcel.CreatedAt,
		Location:    parcel.PickupLocation,
		Icon:        statusIcon[domain.StatusRegistered],
		Provenance:  domain.ProvenanceRecord,
	}}

	for _, entry := range entries {
		status := domain.ParseStatus(entry.Status)
		if !status.Canonical() {
			b.log.Debug().
				Str("tracking_id", parcel.TrackingID).
				Str("status", entry.Status).
				Msg("skipping non-canonical event log entry")
			continue
		}
		if entry.Timestamp.IsZero() {
			b.log.Warn().
				Str("tracking_id", parcel.TrackingID).
				Str("status", entry.Status).
				Msg("event log entry without usable timestamp dropped")
			continue
		}
		if containsDuplicate(events, status, entry.Timestamp) {
			b.log.Debug().
				Str("tracking_id", parcel.TrackingID).
				Str("status", string(status)).
				Msg("duplicate event log entry skipped")
			continue
		}

		events = append(events, eventFromLogEntry(status, entry))
	}

	events = b.synthesizeTerminal(parcel, events)

	// Display order: newest first. Consumers needing chronological order
	// re-sort explicitly.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp > events[j].Timestamp
	})

	return events
}

func eventFromLogEntry(status domain.ParcelStatus, entry domain.EventRecord) domain.TrackingEvent {
	title := entry.Title
	if title == "" {
		title = statusTitle[status]
	}
	description := entry.Description
	if description == "" {
		description = statusDescription[status]
	}

	return domain.TrackingEvent{
		Title:       title,
		Status:      status,
		Description: description,
		Timestamp:   entry.Timestamp,
		Location:    entry.Location,
		CourierName: entry.CourierName,
		ProofRef:    entry.PhotoRef,
		Icon:        statusIcon[status],
		Provenance:  domain.ProvenanceLog,
	}
}

// synthesizeTerminal appends an out-for-delivery or delivered event from the
// parcel record when the log never produced one. The log remains
// authoritative: synthesis only fills gaps, it never overrides.
func (b *TimelineBuilder) synthesizeTerminal(parcel *domain.Parcel, events []domain.TrackingEvent) []domain.TrackingEvent {
	status := parcel.Status
	if status != domain.StatusOutForDelivery && status != domain.StatusDelivered {
		return events
	}
	for _, ev := range events {
		if ev.Status == status {
			return events
		}
	}

	ts := parcel.UpdatedAt
	if status == domain.StatusDelivered && !parcel.DeliveredAt.IsZero() {
		ts = parcel.DeliveredAt
	}
	if ts.IsZero() {
		ts = parcel.CreatedAt
	}

	b.log.Info().
		Str("tracking_id", parcel.TrackingID).
		Str("status", string(status)).
		Msg("synthesizing terminal event missing from log")

	return append(events, domain.TrackingEvent{
		Title:       statusTitle[status],
		Status:      status,
		Description: statusDescription[status],
		Timestamp:   ts,
		Location:    bestLocation(parcel, events),
		CourierName: parcel.CourierName,
		ProofRef:    parcel.ProofRef,
		Icon:        statusIcon[status],
		Provenance:  domain.ProvenanceRecord,
	})
}

// bestLocation picks the most recent known location text for a synthesized
// event: the newest located event, then the receiver's city, then pickup.
func bestLocation(parcel *domain.Parcel, events []domain.TrackingEvent) string {
	var newest domain.TrackingEvent
	for _, ev := range events {
		if ev.Location != "" && ev.Timestamp > newest.Timestamp {
			newest = ev
		}
	}
	if newest.Location != "" {
		return newest.Location
	}
	if parcel.ReceiverAddress.City != "" {
		return parcel.ReceiverAddress.City
	}
	return parcel.PickupLocation
}

func containsDuplicate(events []domain.TrackingEvent, status domain.ParcelStatus, ts domain.Timestamp) bool {
	for _, ev := range events {
		if ev.Status == status && ev.Timestamp.Within(ts, dedupWindow) {
			return true
		}
	}
	return false
}
