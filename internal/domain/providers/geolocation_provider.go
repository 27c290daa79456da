package providers

import (
	"context"

	"github.com/healthconnect/backend/internal/domain/entities"
)

// Geocoder converts a free-text place name into coordinates.
type Geocoder interface {
	// Geocode returns the single best match for location.
	Geocode(ctx context.Context, location string) (*entities.Coordinates, error)
}

// PositionSource yields the device position for the current request.
type PositionSource interface {
	// CurrentPosition returns a one-shot fix honouring opts.
	CurrentPosition(ctx context.Context, opts entities.PositionOptions) (*entities.Coordinates, error)
}

// FacilitySource queries one public mapping provider for healthcare facilities.
// Implementations return normalized facilities; records without usable
// coordinates never leave the source.
type FacilitySource interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// SearchFacilities returns facilities within query.RadiusMeters of query.Origin.
	SearchFacilities(ctx context.Context, query entities.SearchQuery) ([]*entities.Facility, error)
}
