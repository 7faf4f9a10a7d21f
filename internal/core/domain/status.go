package domain

import "strings"

// ParcelStatus represents the lifecycle state of a parcel. The four canonical
// values below drive timeline and ETA logic; anything else is carried through
// as-is so unrecognized store values are displayable but never fatal.
type ParcelStatus string

const (
	StatusRegistered     ParcelStatus = "registered"
	StatusInTransit      ParcelStatus = "in_transit"
	StatusOutForDelivery ParcelStatus = "out_for_delivery"
	StatusDelivered      ParcelStatus = "delivered"
)

// ParseStatus normalizes a raw store value ("In Transit", "OUT-FOR-DELIVERY",
// "delivered") to a canonical status. Unrecognized values are returned
// unchanged as a free-text passthrough.
func ParseStatus(raw string) ParcelStatus {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)

	switch ParcelStatus(norm) {
	case StatusRegistered, StatusInTransit, StatusOutForDelivery, StatusDelivered:
		return ParcelStatus(norm)
	}
	return ParcelStatus(raw)
}

// Canonical reports whether the status is one of the four tracked states.
func (s ParcelStatus) Canonical() bool {
	switch s {
	case StatusRegistered, StatusInTransit, StatusOutForDelivery, StatusDelivered:
		return true
	}
	return false
}

// InFlight reports whether the parcel is actively moving, which is when live
// courier tracking applies.
func (s ParcelStatus) InFlight() bool {
	return s == StatusInTransit || s == StatusOutForDelivery
}

// Terminal reports whether the parcel has reached its final state.
func (s ParcelStatus) Terminal() bool {
	return s == StatusDelivered
}

// Display returns a human-readable label. Unrecognized statuses fall back to
// the raw string.
func (s ParcelStatus) Display() string {
	switch s {
	case StatusRegistered:
		return "Registered"
	case StatusInTransit:
		return "In Transit"
	case StatusOutForDelivery:
		return "Out for Delivery"
	case StatusDelivered:
		return "Delivered"
	}
	return string(s)
}
