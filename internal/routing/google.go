package routing

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	apperrors "github.com/driveu/backend/internal/errors"
	"github.com/driveu/backend/internal/geoutil"
)

// GoogleQuoter quotes routes through the Google Maps Directions API.
type GoogleQuoter struct {
	client *maps.Client
}

func NewGoogleQuoter(apiKey string) (*GoogleQuoter, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleQuoter{client: client}, nil
}

func (q *GoogleQuoter) Quote(ctx context.Context, it Itinerary) ([]Leg, error) {
	r := &maps.DirectionsRequest{
		Origin:      it.Origin,
		Destination: it.Destination,
		Waypoints:   it.Waypoints,
		Mode:        maps.TravelModeDriving,
		Avoid:       avoidFlags(it),
	}

	routes, _, err := q.client.Directions(ctx, r)
	if err != nil {
		// The Directions API reports "unroutable" as an error, not as an
		// empty result set. Callers only care that no route exists.
		return nil, apperrors.ErrRouteUnavailable
	}

	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, apperrors.ErrRouteUnavailable
	}

	return convertLegs(&routes[0]), nil
}

func avoidFlags(it Itinerary) []maps.Avoid {
	var avoid []maps.Avoid
	if it.AvoidHighways {
		avoid = append(avoid, maps.AvoidHighways)
	}
	if it.AvoidTolls {
		avoid = append(avoid, maps.AvoidTolls)
	}
	return avoid
}

func convertLegs(route *maps.Route) []Leg {
	legs := make([]Leg, 0, len(route.Legs))
	for _, l := range route.Legs {
		legs = append(legs, Leg{
			Miles:        geoutil.MetersToMiles(float64(l.Distance.Meters)),
			Duration:     l.Duration,
			Start:        LatLng{Lat: l.StartLocation.Lat, Lng: l.StartLocation.Lng},
			End:          LatLng{Lat: l.EndLocation.Lat, Lng: l.EndLocation.Lng},
			StartAddress: l.StartAddress,
			EndAddress:   l.EndAddress,
		})
	}
	return legs
}
