package geolocation

import (
	"context"
	"strings"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/providers"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

// StaticProvider serves fixed data for local development without network access.
type StaticProvider struct{}

var (
	_ providers.Geocoder       = StaticProvider{}
	_ providers.FacilitySource = StaticProvider{}
)

// NewStaticProvider creates an offline geocoder and facility source.
func NewStaticProvider() StaticProvider {
	return StaticProvider{}
}

var staticCities = []struct {
	name   string
	coords entities.Coordinates
}{
	{"lagos", entities.Coordinates{Latitude: 6.5244, Longitude: 3.3792}},
	{"abuja", entities.Coordinates{Latitude: 9.0765, Longitude: 7.3986}},
	{"ibadan", entities.Coordinates{Latitude: 7.3775, Longitude: 3.9470}},
	{"port harcourt", entities.Coordinates{Latitude: 4.8156, Longitude: 7.0498}},
	{"kano", entities.Coordinates{Latitude: 12.0022, Longitude: 8.5920}},
	{"new york", entities.Coordinates{Latitude: 40.7128, Longitude: -74.0060}},
	{"london", entities.Coordinates{Latitude: 51.5074, Longitude: -0.1278}},
}

// Name implements providers.FacilitySource.
func (StaticProvider) Name() string { return "static" }

// Geocode matches the location against a small set of known cities.
func (StaticProvider) Geocode(ctx context.Context, location string) (*entities.Coordinates, error) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("location is required")
	}
	lower := strings.ToLower(trimmed)
	for _, c := range staticCities {
		if strings.Contains(lower, c.name) {
			coords := c.coords
			return &coords, nil
		}
	}
	return nil, apperrors.NewLocationNotFoundError(trimmed)
}

// SearchFacilities returns two facilities placed just inside a 1 km radius of the origin.
func (StaticProvider) SearchFacilities(ctx context.Context, query entities.SearchQuery) ([]*entities.Facility, error) {
	o := query.Origin
	return []*entities.Facility{
		{
			ID:        "static-1",
			Name:      "Static General Hospital",
			Address:   "1 Healthcare Boulevard",
			Latitude:  o.Latitude + 0.004,
			Longitude: o.Longitude + 0.004,
			PlaceType: "hospital",
			SourceID:  "1",
		},
		{
			ID:        "static-2",
			Name:      "Static Family Clinic",
			Address:   entities.AddressNotAvailable,
			Latitude:  o.Latitude - 0.002,
			Longitude: o.Longitude - 0.002,
			PlaceType: "clinic",
			SourceID:  "2",
		},
	}, nil
}
