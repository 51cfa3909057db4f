package location

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/roadcall/dispatch/internal/geocode"
	"github.com/roadcall/dispatch/internal/models"
)

// ErrUnresolvable is returned when a stored location cannot be turned into
// coordinates by any strategy in the chain. Callers skip the record rather
// than failing the dispatch cycle.
var ErrUnresolvable = errors.New("location could not be resolved to coordinates")

// Resolver normalizes the heterogeneous location values found in provider
// records. Historical data mixes a JSON coordinate object, a "lat,lng"
// string and free-text place names entered by hand, so resolution is an
// ordered chain of strategies where the first success wins:
//
//  1. JSON object with numeric latitude/longitude;
//  2. comma-delimited "lat,lng" float pair;
//  3. external geocoder, when one is configured;
//  4. keyword-to-coordinate fallback table (case-insensitive substring);
//  5. a single configurable default coordinate.
type Resolver struct {
	geocoder  geocode.Geocoder              // optional; nil disables step 3
	fallbacks map[string]models.Coordinates // lowercased keyword -> coordinate
	fallback  models.Coordinates            // last-resort default
	log       *slog.Logger
}

// DefaultFallbacks returns the built-in keyword table. Kept as data rather
// than inline literals so deployments can replace it through configuration.
func DefaultFallbacks() map[string]models.Coordinates {
	return map[string]models.Coordinates{
		"lahore":    {Latitude: 31.5204, Longitude: 74.3587},
		"karachi":   {Latitude: 24.8607, Longitude: 67.0011},
		"islamabad": {Latitude: 33.6844, Longitude: 73.0479},
	}
}

// DefaultCoordinates is the last-resort fallback when nothing in a free-text
// location matches the keyword table.
func DefaultCoordinates() models.Coordinates {
	return models.Coordinates{Latitude: 31.5204, Longitude: 74.3587}
}

// NewResolver builds a resolver. The geocoder may be nil, fallbacks may be
// nil (the built-in table is used), and fallback is the default coordinate
// for unmatched free text.
func NewResolver(
	geocoder geocode.Geocoder,
	fallbacks map[string]models.Coordinates,
	fallback models.Coordinates,
	log *slog.Logger,
) *Resolver {
	if fallbacks == nil {
		fallbacks = DefaultFallbacks()
	}

	normalized := make(map[string]models.Coordinates, len(fallbacks))
	for keyword, coords := range fallbacks {
		normalized[strings.ToLower(keyword)] = coords
	}

	return &Resolver{
		geocoder:  geocoder,
		fallbacks: normalized,
		fallback:  fallback,
		log:       log,
	}
}

// Resolve turns a raw stored location into coordinates. It only fails for
// empty input; any non-empty string ultimately lands on the default
// coordinate, keeping messy legacy records in the candidate pool.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*models.Coordinates, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrUnresolvable
	}

	if coords, ok := parseJSONObject(raw); ok {
		return coords, nil
	}

	if coords, ok := parsePair(raw); ok {
		return coords, nil
	}

	if r.geocoder != nil {
		coords, err := r.geocoder.Resolve(ctx, raw)
		if err == nil {
			return coords, nil
		}
		r.log.DebugContext(ctx, "Geocoder could not resolve place, falling back",
			"place", raw, "error", err)
	}

	lowered := strings.ToLower(raw)
	for keyword, coords := range r.fallbacks {
		if strings.Contains(lowered, keyword) {
			match := coords
			return &match, nil
		}
	}

	r.log.DebugContext(ctx, "Location fell through to default coordinate", "raw", raw)
	fallback := r.fallback

	return &fallback, nil
}

// coordinatePayload accepts both latitude/longitude and lat/lng key
// spellings seen in stored records. Pointers distinguish absent fields from
// zero values.
type coordinatePayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

func (p coordinatePayload) coordinates() (*models.Coordinates, bool) {
	lat, lng := p.Latitude, p.Longitude
	if lat == nil {
		lat = p.Lat
	}
	if lng == nil {
		lng = p.Lng
	}
	if lat == nil || lng == nil {
		return nil, false
	}

	return &models.Coordinates{Latitude: *lat, Longitude: *lng}, true
}

func parseJSONObject(raw string) (*models.Coordinates, bool) {
	var payload coordinatePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false
	}

	return payload.coordinates()
}

func parsePair(raw string) (*models.Coordinates, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, false
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if latErr != nil || lngErr != nil || math.IsNaN(lat) || math.IsNaN(lng) {
		return nil, false
	}

	return &models.Coordinates{Latitude: lat, Longitude: lng}, true
}

// ParseStrict parses a coordinate value from a webhook record, which may be a
// JSON object or a string holding either a JSON object or a "lat,lng" pair.
// Unlike Resolve it never guesses: the triggering request's own coordinates
// must be real, otherwise the whole invocation is rejected.
func ParseStrict(raw json.RawMessage) (*models.Coordinates, error) {
	if len(raw) == 0 {
		return nil, ErrUnresolvable
	}

	var payload coordinatePayload
	if err := json.Unmarshal(raw, &payload); err == nil {
		if coords, ok := payload.coordinates(); ok {
			return coords, nil
		}
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		if coords, ok := parseJSONObject(text); ok {
			return coords, nil
		}
		if coords, ok := parsePair(text); ok {
			return coords, nil
		}
	}

	return nil, ErrUnresolvable
}
