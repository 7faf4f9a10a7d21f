package service

import (
	"math"
	"time"

	"github.com/parcelview/tracking-engine/internal/core/domain"
)

// Delivery model constants. Effective road speed is the base speed damped by
// a traffic factor; the remaining values are administrative overheads.
const (
	baseSpeedKmh  = 80.0
	trafficFactor = 0.8

	sortingHours = 4.0
	loadingHours = 0.5
	perStopHours = 0.25

	// bufferDays is added after rounding estimated hours up to whole days.
	bufferDays = 0.5

	// businessCloseHour: lookups after this hour start the working-day walk
	// on the following day.
	businessCloseHour = 18

	// restDay is skipped when accumulating working days.
	restDay = time.Sunday
)

// EstimateDelivery computes the ETA snapshot for a parcel. It is a pure
// function of the parcel snapshot, the haversine distance (<= 0 when
// unknown) and the wall clock, so identical inputs always produce identical
// output. Returns nil when the parcel is already delivered.
func EstimateDelivery(parcel *domain.Parcel, distanceKm float64, now time.Time) *domain.EstimatedDelivery {
	if parcel.Status.Terminal() {
		return nil
	}

	hours := estimateHours(parcel.Status, distanceKm)
	hours *= adjustmentFactor(now)

	workingDays := int(math.Ceil(math.Ceil(hours/24) + bufferDays))

	eta := walkWorkingDays(parcel.CreatedAt.Time(), now, workingDays)

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	daysRemaining := int(eta.Sub(today).Hours() / 24)
	if daysRemaining < 0 {
		daysRemaining = 0
	}

	return &domain.EstimatedDelivery{
		Date:          eta,
		DateText:      eta.Format("Mon, 02 Jan 2006"),
		DayName:       eta.Weekday().String(),
		TimeWindow:    timeWindow(daysRemaining, distanceKm, now),
		DaysRemaining: daysRemaining,
	}
}

// estimateHours models travel plus handling time. Without a usable distance
// it falls back to fixed hours keyed by the current status.
func estimateHours(status domain.ParcelStatus, distanceKm float64) float64 {
	if distanceKm <= 0 {
		switch status {
		case domain.StatusOutForDelivery:
			return 6
		case domain.StatusInTransit:
			return 24
		default: // registered or unrecognized
			return 48
		}
	}

	travel := distanceKm / (baseSpeedKmh * trafficFactor)
	stops := float64(estimateStops(distanceKm)) * perStopHours

	return travel + sortingHours + loadingHours + stops + tierOverheadHours(distanceKm)
}

// tierOverheadHours reflects the extra handling days longer hauls accumulate.
func tierOverheadHours(distanceKm float64) float64 {
	switch {
	case distanceKm < 50:
		return 0
	case distanceKm < 150:
		return 4
	case distanceKm < 300:
		return 12
	default:
		return 24
	}
}

// estimateStops bands the expected intermediate stop count by distance.
func estimateStops(distanceKm float64) int {
	switch {
	case distanceKm < 50:
		return 2
	case distanceKm < 150:
		return 5
	case distanceKm < 300:
		return 8
	default:
		return 12
	}
}

// adjustmentFactor applies multiplicative slowdowns for rush-hour windows and
// end-of-week load.
func adjustmentFactor(now time.Time) float64 {
	factor := 1.0

	hour := now.Hour()
	if (hour >= 7 && hour < 9) || (hour >= 17 && hour < 19) {
		factor *= 1.3
	}

	switch now.Weekday() {
	case time.Friday:
		factor *= 1.2
	case time.Saturday:
		factor *= 1.4
	}

	return factor
}

// walkWorkingDays advances day by day from the parcel's creation date,
// skipping the rest day, until the required working days have elapsed. Past
// the business-day close the walk starts on the following day.
func walkWorkingDays(created, now time.Time, workingDays int) time.Time {
	day := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)
	if now.Hour() >= businessCloseHour {
		day = day.AddDate(0, 0, 1)
	}

	worked := 0
	for worked < workingDays {
		day = day.AddDate(0, 0, 1)
		if day.Weekday() == restDay {
			continue
		}
		worked++
	}
	return day
}

// timeWindow derives the display window: same-day windows narrow as the day
// progresses, future-day windows widen with distance.
func timeWindow(daysRemaining int, distanceKm float64, now time.Time) string {
	if daysRemaining == 0 {
		switch {
		case now.Hour() >= 15:
			return "16:00 - 20:00"
		case now.Hour() >= 12:
			return "14:00 - 18:00"
		default:
			return "12:00 - 17:00"
		}
	}

	switch {
	case distanceKm > 0 && distanceKm < 50:
		return "09:00 - 13:00"
	case distanceKm > 0 && distanceKm < 150:
		return "10:00 - 16:00"
	case distanceKm > 0 && distanceKm < 300:
		return "09:00 - 18:00"
	default:
		return "09:00 - 20:00"
	}
}
