// Package geo provides the pure geospatial helpers used by the tracking
// engine: great-circle distance, degree/radian conversion, and small
// coordinate offsets for fallback destinations.
package geo

import "math"

// EarthRadiusKm is the mean earth radius used for great-circle math.
const EarthRadiusKm = 6371.0

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}

// HaversineKm returns the great-circle distance in kilometres between two
// latitude/longitude pairs.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := DegToRad(lat2 - lat1)
	dLng := DegToRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(DegToRad(lat1))*math.Cos(DegToRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// OffsetKm shifts a coordinate north and east by the given distances in
// kilometres. Longitude displacement gets wider towards the poles, so the
// east component is scaled by the cosine of the latitude.
func OffsetKm(lat, lng, northKm, eastKm float64) (float64, float64) {
	latOut := lat + RadToDeg(northKm/EarthRadiusKm)

	cosLat := math.Cos(DegToRad(lat))
	if math.Abs(cosLat) < 1e-9 {
		return latOut, lng
	}
	lngOut := lng + RadToDeg(eastKm/(EarthRadiusKm*cosLat))

	return latOut, lngOut
}
