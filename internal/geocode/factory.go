package geocode

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// Kind selects which geocoder backend to construct.
type Kind string

const (
	// KindNone disables free-text geocoding entirely.
	KindNone Kind = "none"
	// KindGoogle uses the Google Maps Geocoding API (requires an API key).
	KindGoogle Kind = "google"
	// KindNominatim uses the free OpenStreetMap Nominatim API.
	KindNominatim Kind = "nominatim"
)

// Config holds everything needed to construct a geocoder backend.
type Config struct {
	Kind      Kind         // Kind of backend to create.
	APIKey    string       // APIKey for the Google backend.
	RateLimit int          // RateLimit in requests per second for the Google client.
	Logger    *slog.Logger // Logger for the backend.
}

// ErrAPIKeyRequired is returned when a backend needs an API key and none was given.
var ErrAPIKeyRequired = errors.New("API key is required for the google geocoder")

// New constructs a geocoder from configuration. KindNone returns a nil
// Geocoder and no error; callers treat nil as "skip the geocoding step".
func New(cfg Config) (Geocoder, error) {
	switch cfg.Kind {
	case KindNone, "":
		return nil, nil //nolint:nilnil // nil geocoder means the step is disabled
	case KindGoogle:
		return newGoogleGeocoder(cfg)
	case KindNominatim:
		return NewNominatimGeocoder(cfg.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported geocoder kind: %s", cfg.Kind)
	}
}

func newGoogleGeocoder(cfg Config) (Geocoder, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	clientOpts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(cfg.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleGeocoder(client, cfg.Logger), nil
}
