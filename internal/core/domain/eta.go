package domain

import "time"

// EstimatedDelivery is an immutable ETA snapshot, recomputed from scratch on
// each parcel lookup and never patched incrementally.
type EstimatedDelivery struct {
	Date          time.Time `json:"date"`
	DateText      string    `json:"date_text"`
	DayName       string    `json:"day_name"`
	TimeWindow    string    `json:"time_window"`
	DaysRemaining int       `json:"days_remaining"`
}
