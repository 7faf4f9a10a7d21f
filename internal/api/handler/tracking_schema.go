package handler

import (
	"time"

	"github.com/parcelview/tracking-engine/internal/core/domain"
	"github.com/parcelview/tracking-engine/internal/core/ports"
)

// --- Response types ---

type personResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type parcelResponse struct {
	TrackingID  string         `json:"tracking_id"`
	Status      string         `json:"status"`
	StatusText  string         `json:"status_text"`
	Sender      personResponse `json:"sender"`
	Receiver    personResponse `json:"receiver"`
	Destination string         `json:"destination"`
	CourierName string         `json:"courier_name,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	DeliveredAt string         `json:"delivered_at,omitempty"`
}

type timelineEventResponse struct {
	Title       string `json:"title"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Location    string `json:"location,omitempty"`
	CourierName string `json:"courier_name,omitempty"`
	ProofRef    string `json:"proof_ref,omitempty"`
	Icon        string `json:"icon"`
	Provenance  string `json:"provenance"`
}

type etaResponse struct {
	Date          string `json:"date"`
	DateText      string `json:"date_text"`
	DayName       string `json:"day_name"`
	TimeWindow    string `json:"time_window"`
	DaysRemaining int    `json:"days_remaining"`
}

type trackingResponse struct {
	Parcel       parcelResponse         `json:"parcel"`
	Timeline     []timelineEventResponse `json:"timeline"`
	Map          domain.MapCoordinates  `json:"map"`
	Route        *domain.Route          `json:"route,omitempty"`
	ETA          *etaResponse           `json:"eta,omitempty"`
	Generation   string                 `json:"generation"`
	LiveTracking bool                   `json:"live_tracking"`
}

type locationUpdateResponse struct {
	Sample     domain.LocationSample `json:"sample"`
	Map        domain.MapCoordinates `json:"map"`
	Route      *domain.Route         `json:"route,omitempty"`
	Generation string                `json:"generation"`
}

// --- Mapping ---

func formatTimestamp(ts domain.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Time().UTC().Format(time.RFC3339)
}

func toTrackingResponse(snap *ports.TrackingSnapshot) trackingResponse {
	p := snap.Parcel

	timeline := make([]timelineEventResponse, 0, len(snap.Timeline))
	for _, ev := range snap.Timeline {
		timeline = append(timeline, timelineEventResponse{
			Title:       ev.Title,
			Status:      string(ev.Status),
			Description: ev.Description,
			Timestamp:   formatTimestamp(ev.Timestamp),
			Location:    ev.Location,
			CourierName: ev.CourierName,
			ProofRef:    ev.ProofRef,
			Icon:        ev.Icon,
			Provenance:  string(ev.Provenance),
		})
	}

	var eta *etaResponse
	if snap.ETA != nil {
		eta = &etaResponse{
			Date:          snap.ETA.Date.Format(time.RFC3339),
			DateText:      snap.ETA.DateText,
			DayName:       snap.ETA.DayName,
			TimeWindow:    snap.ETA.TimeWindow,
			DaysRemaining: snap.ETA.DaysRemaining,
		}
	}

	return trackingResponse{
		Parcel: parcelResponse{
			TrackingID:  p.TrackingID,
			Status:      string(p.Status),
			StatusText:  p.Status.Display(),
			Sender:      personResponse{Name: p.Sender.Name, Phone: p.Sender.Phone},
			Receiver:    personResponse{Name: p.Receiver.Name, Phone: p.Receiver.Phone},
			Destination: p.ReceiverAddress.FullText(),
			CourierName: p.CourierName,
			CreatedAt:   formatTimestamp(p.CreatedAt),
			DeliveredAt: formatTimestamp(p.DeliveredAt),
		},
		Timeline:     timeline,
		Map:          snap.Map,
		Route:        snap.Route,
		ETA:          eta,
		Generation:   snap.Generation,
		LiveTracking: snap.LiveTracking,
	}
}

func toLocationUpdateResponse(upd ports.LocationUpdate) locationUpdateResponse {
	return locationUpdateResponse{
		Sample:     upd.Sample,
		Map:        upd.Map,
		Route:      upd.Route,
		Generation: upd.Generation,
	}
}
