package geocode

import (
	"context"

	"github.com/roadcall/dispatch/internal/models"
)

// Geocoder resolves a free-text place name ("Lahore Auto Shop", "Multan Road
// Truck Stop") into coordinates. It is an optional step of the location
// resolver chain; when no geocoder is configured the chain falls through to
// the keyword table.
type Geocoder interface {
	Resolve(ctx context.Context, place string) (*models.Coordinates, error)
}
