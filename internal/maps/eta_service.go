// README: Delivery ETA estimates via the Google Maps Directions API.
package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

// ETAService estimates driving time from the restaurant to a delivery
// address. Estimates are advisory; order flow never blocks on them.
type ETAService struct {
	client *maps.Client
	origin string
}

func NewETAService(apiKey, origin string) (*ETAService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &ETAService{client: client, origin: origin}, nil
}

func (s *ETAService) Estimate(ctx context.Context, address string) (time.Duration, error) {
	r := &maps.DirectionsRequest{
		Origin:      s.origin,
		Destination: address,
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}
	return routes[0].Legs[0].Duration, nil
}
