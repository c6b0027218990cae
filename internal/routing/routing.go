// Package routing quotes drivable routes for trips and pickups. It wraps the
// Google Maps Directions API behind a small interface the services can fake.
package routing

import (
	"context"
	"time"
)

// LatLng is a coordinate pair in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Leg is one stop-to-stop segment of a quoted route.
type Leg struct {
	Miles        float64
	Duration     time.Duration
	Start        LatLng
	End          LatLng
	StartAddress string
	EndAddress   string
}

// Itinerary describes the stops of a route quote in driving order.
// Waypoints are visited between Origin and Destination.
type Itinerary struct {
	Origin        string
	Destination   string
	Waypoints     []string
	AvoidHighways bool
	AvoidTolls    bool
}

// Quoter turns an itinerary into ordered legs, one per stop-to-stop segment.
// Implementations return ErrRouteUnavailable (via internal/errors) when no
// drivable route exists.
type Quoter interface {
	Quote(ctx context.Context, it Itinerary) ([]Leg, error)
}

// TripItinerary builds the route a driver publishes: origin to destination,
// and back again for a round trip.
func TripItinerary(origin, destination string, roundTrip, avoidHighways, avoidTolls bool) Itinerary {
	it := Itinerary{
		Origin:        origin,
		Destination:   destination,
		AvoidHighways: avoidHighways,
		AvoidTolls:    avoidTolls,
	}
	if roundTrip {
		// origin -> destination -> origin, two legs
		it.Destination = origin
		it.Waypoints = []string{destination}
	}
	return it
}

// PickupItinerary builds the detour route for a ride request: the driver's
// origin, the rider's pickup point, the shared destination, and for a round
// trip the same stops in reverse.
func PickupItinerary(origin, pickup, destination string, roundTrip, avoidHighways, avoidTolls bool) Itinerary {
	it := Itinerary{
		Origin:        origin,
		Destination:   destination,
		Waypoints:     []string{pickup},
		AvoidHighways: avoidHighways,
		AvoidTolls:    avoidTolls,
	}
	if roundTrip {
		// origin -> pickup -> destination -> pickup -> origin, four legs
		it.Destination = origin
		it.Waypoints = []string{pickup, destination, pickup}
	}
	return it
}

// TotalMiles sums the distance of the given legs.
func TotalMiles(legs []Leg) float64 {
	var total float64
	for _, leg := range legs {
		total += leg.Miles
	}
	return total
}
