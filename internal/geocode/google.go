package geocode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roadcall/dispatch/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleAPIClient is the slice of the Google Maps client the geocoder needs.
// Declared here so tests can substitute a mock.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleGeocoder resolves place names through the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client GoogleAPIClient
	log    *slog.Logger
}

// ErrGoogleEmptyResponse is returned when the API finds no match for a place.
var ErrGoogleEmptyResponse = errors.New("google maps API returned no results")

// NewGoogleGeocoder wraps an existing Google Maps API client.
func NewGoogleGeocoder(client GoogleAPIClient, log *slog.Logger) *GoogleGeocoder {
	return &GoogleGeocoder{client: client, log: log}
}

// Resolve geocodes a free-text place name into coordinates.
func (g *GoogleGeocoder) Resolve(ctx context.Context, place string) (*models.Coordinates, error) {
	g.log.DebugContext(ctx, "Resolving place via Google Maps", "place", place)

	req := maps.GeocodingRequest{Address: place}
	results, err := g.client.Geocode(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("failed to geocode place: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrGoogleEmptyResponse
	}
	loc := results[0].Geometry.Location

	return &models.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
