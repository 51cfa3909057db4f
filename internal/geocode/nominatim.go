package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/roadcall/dispatch/internal/models"
)

// HTTPClient is the interface used for outbound HTTP, allowing tests to
// substitute a mock transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// NominatimGeocoder resolves place names through OpenStreetMap's free
// Nominatim API. Fair-use policy allows about one request per second, which
// is plenty for the occasional provider record with a free-text location.
type NominatimGeocoder struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
	// userAgent with contact info is mandated by the Nominatim usage policy.
	userAgent string
}

// nominatimResult is the subset of the Nominatim search response we read.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Common errors for the Nominatim geocoder.
var (
	ErrNominatimEmptyResponse = errors.New("nominatim API returned empty response")
	ErrNominatimInvalidCoords = errors.New("nominatim API returned invalid coordinates")
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// NewNominatimGeocoder creates a Nominatim geocoder using the public API
// endpoint with a default HTTP client.
func NewNominatimGeocoder(log *slog.Logger) *NominatimGeocoder {
	const timeout = 10
	return &NominatimGeocoder{
		client:    &http.Client{Timeout: timeout * time.Second},
		baseURL:   nominatimBaseURL,
		log:       log,
		userAgent: "RoadCall-Dispatch/1.0 (https://github.com/roadcall/dispatch)",
	}
}

// NewNominatimGeocoderWithClient injects a custom HTTP client, for tests.
func NewNominatimGeocoderWithClient(client HTTPClient, log *slog.Logger) *NominatimGeocoder {
	geocoder := NewNominatimGeocoder(log)
	geocoder.client = client

	return geocoder
}

// Resolve geocodes a free-text place name into coordinates.
func (n *NominatimGeocoder) Resolve(ctx context.Context, place string) (*models.Coordinates, error) {
	n.log.DebugContext(ctx, "Resolving place via Nominatim", "place", place)

	reqURL, err := url.Parse(n.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", place)
	query.Set("format", "json")
	query.Set("limit", "1")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		n.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var results []nominatimResult
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNominatimEmptyResponse
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrNominatimInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrNominatimInvalidCoords, results[0].Lon)
	}

	n.log.DebugContext(ctx, "Nominatim resolved place", "place", place, "lat", lat, "lon", lon)

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
