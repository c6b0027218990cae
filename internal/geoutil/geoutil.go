// Package geoutil holds the short-range geometry helpers shared by trip
// discovery and the arrival checks. Distances are in miles, coordinates in
// decimal degrees.
package geoutil

import "math"

// ArrivalToleranceMiles is how close a driver must be to a stop before the
// matching lifecycle verb is allowed.
const ArrivalToleranceMiles = 0.1

// MetersToMiles converts a distance reported in meters to miles.
func MetersToMiles(meters float64) float64 {
	return meters * 0.000621371
}

// IntervalsOverlap reports whether two closed time intervals [startA, endA]
// and [startB, endB] share at least one instant. Touching endpoints count as
// an overlap.
func IntervalsOverlap(startA, endA, startB, endB int64) bool {
	return startA <= endB && startB <= endA
}

// WithinRadius reports whether (lat, lng) falls inside a flat-earth ellipse of
// the given radius (miles) around (centerLat, centerLng). One degree of
// latitude is treated as 69 miles; a degree of longitude shrinks by the
// cosine of the latitude. Good enough for the mile-scale radii we use.
func WithinRadius(centerLat, centerLng, radiusMiles, lat, lng float64) bool {
	latSpan := radiusMiles / 69.0
	lngSpan := radiusMiles / (69.0 * math.Cos(centerLat*math.Pi/180.0))

	dLat := (lat - centerLat) / latSpan
	dLng := (lng - centerLng) / lngSpan
	return dLng*dLng+dLat*dLat <= 1
}
