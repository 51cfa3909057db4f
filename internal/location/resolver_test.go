package location_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/roadcall/dispatch/internal/geocode"
	"github.com/roadcall/dispatch/internal/location"
	"github.com/roadcall/dispatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGeocoder is a canned Geocoder for testing the optional chain step.
type stubGeocoder struct {
	coords *models.Coordinates
	err    error
	calls  int
}

func (s *stubGeocoder) Resolve(_ context.Context, _ string) (*models.Coordinates, error) {
	s.calls++
	return s.coords, s.err
}

func newResolver(geocoder geocode.Geocoder) *location.Resolver {
	return location.NewResolver(geocoder, nil, location.DefaultCoordinates(), slog.Default())
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("JSON object with latitude and longitude", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, `{"latitude": 30.1, "longitude": 70.2}`)

		require.NoError(t, err)
		assert.InEpsilon(t, 30.1, coords.Latitude, 1e-9)
		assert.InEpsilon(t, 70.2, coords.Longitude, 1e-9)
	})

	t.Run("JSON object with lat and lng keys", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, `{"lat": -1.5, "lng": 36.8}`)

		require.NoError(t, err)
		assert.InEpsilon(t, -1.5, coords.Latitude, 1e-9)
		assert.InEpsilon(t, 36.8, coords.Longitude, 1e-9)
	})

	t.Run("comma-delimited pair", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, "31.5204,74.3587")

		require.NoError(t, err)
		assert.InEpsilon(t, 31.5204, coords.Latitude, 1e-9)
		assert.InEpsilon(t, 74.3587, coords.Longitude, 1e-9)
	})

	t.Run("comma-delimited pair with spaces", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, " 24.8607 , 67.0011 ")

		require.NoError(t, err)
		assert.InEpsilon(t, 24.8607, coords.Latitude, 1e-9)
	})

	t.Run("free text matching keyword table", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, "Lahore Auto Shop")

		require.NoError(t, err)
		assert.InEpsilon(t, 31.5204, coords.Latitude, 1e-9)
		assert.InEpsilon(t, 74.3587, coords.Longitude, 1e-9)
	})

	t.Run("keyword match is case-insensitive", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, "KARACHI truck stop")

		require.NoError(t, err)
		assert.InEpsilon(t, 24.8607, coords.Latitude, 1e-9)
	})

	t.Run("unmatched free text falls back to default", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, "Unknown Roadside Garage")

		require.NoError(t, err)
		assert.Equal(t, location.DefaultCoordinates(), *coords)
	})

	t.Run("empty input is unresolvable", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, "   ")

		require.ErrorIs(t, err, location.ErrUnresolvable)
		assert.Nil(t, coords)
	})

	t.Run("JSON object with missing longitude falls through", func(t *testing.T) {
		coords, err := newResolver(nil).Resolve(ctx, `{"latitude": 30.1}`)

		require.NoError(t, err)
		assert.Equal(t, location.DefaultCoordinates(), *coords)
	})

	t.Run("geocoder resolves free text before keyword table", func(t *testing.T) {
		geocoder := &stubGeocoder{coords: &models.Coordinates{Latitude: 33.6, Longitude: 73.0}}

		coords, err := newResolver(geocoder).Resolve(ctx, "Lahore Auto Shop")

		require.NoError(t, err)
		assert.Equal(t, 1, geocoder.calls)
		assert.InEpsilon(t, 33.6, coords.Latitude, 1e-9)
	})

	t.Run("geocoder failure falls back to keyword table", func(t *testing.T) {
		geocoder := &stubGeocoder{err: assert.AnError}

		coords, err := newResolver(geocoder).Resolve(ctx, "Lahore Auto Shop")

		require.NoError(t, err)
		assert.Equal(t, 1, geocoder.calls)
		assert.InEpsilon(t, 31.5204, coords.Latitude, 1e-9)
	})

	t.Run("geocoder is not consulted for coordinate pairs", func(t *testing.T) {
		geocoder := &stubGeocoder{coords: &models.Coordinates{Latitude: 1, Longitude: 1}}

		_, err := newResolver(geocoder).Resolve(ctx, "31.5204,74.3587")

		require.NoError(t, err)
		assert.Zero(t, geocoder.calls)
	})
}

func TestResolver_CustomFallbacks(t *testing.T) {
	resolver := location.NewResolver(
		nil,
		map[string]models.Coordinates{"Multan": {Latitude: 30.1575, Longitude: 71.5249}},
		location.DefaultCoordinates(),
		slog.Default(),
	)

	coords, err := resolver.Resolve(context.Background(), "multan bypass workshop")

	require.NoError(t, err)
	assert.InEpsilon(t, 30.1575, coords.Latitude, 1e-9)
}

func TestParseStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    *models.Coordinates
		wantErr bool
	}{
		{
			name: "JSON object",
			raw:  `{"latitude": 30.0, "longitude": 70.0}`,
			want: &models.Coordinates{Latitude: 30.0, Longitude: 70.0},
		},
		{
			name: "string holding JSON object",
			raw:  `"{\"latitude\": 30.0, \"longitude\": 70.0}"`,
			want: &models.Coordinates{Latitude: 30.0, Longitude: 70.0},
		},
		{
			name: "string holding pair",
			raw:  `"31.5204,74.3587"`,
			want: &models.Coordinates{Latitude: 31.5204, Longitude: 74.3587},
		},
		{
			name:    "free text is rejected",
			raw:     `"Lahore Auto Shop"`,
			wantErr: true,
		},
		{
			name:    "null is rejected",
			raw:     `null`,
			wantErr: true,
		},
		{
			name:    "empty is rejected",
			raw:     ``,
			wantErr: true,
		},
		{
			name:    "object missing latitude is rejected",
			raw:     `{"longitude": 70.0}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			coords, err := location.ParseStrict(json.RawMessage(tt.raw))

			if tt.wantErr {
				require.ErrorIs(t, err, location.ErrUnresolvable)
				assert.Nil(t, coords)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, coords)
		})
	}
}
