package geolocation

import (
	"strconv"
	"strings"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/pkg/geo"
)

// Fallback results must mention one of these in their display name unless their type already matches.
var medicalKeywords = []string{"hospital", "clinic", "medical"}

// firstTag returns the first non-empty tag value among keys.
func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(tags[k]); v != "" {
			return v
		}
	}
	return ""
}

// normalizeOverpassElement maps one Overpass element to a Facility, or nil when it has no usable coordinates.
func normalizeOverpassElement(el overpassElement) *entities.Facility {
	lat, lon, ok := el.coordinates()
	if !ok {
		return nil
	}

	tags := el.Tags
	city := firstTag(tags, "addr:city", "addr:suburb")
	state := firstTag(tags, "addr:state", "addr:province")
	country := firstTag(tags, "addr:country")

	var parts []string
	for _, p := range []string{firstTag(tags, "addr:housenumber"), firstTag(tags, "addr:street"), city, state, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	address := strings.Join(parts, ", ")
	if address == "" {
		address = entities.AddressNotAvailable
	}

	name := firstTag(tags, "name", "name:en")
	if name == "" {
		name = entities.UnnamedFacility
	}
	placeType := firstTag(tags, "amenity", "healthcare")
	if placeType == "" {
		placeType = entities.DefaultPlaceType
	}

	// OSM ids are only unique per element type.
	elementType := el.Type
	if elementType == "" {
		elementType = "node"
	}
	sourceID := strconv.FormatInt(el.ID, 10)
	return &entities.Facility{
		ID:           "osm-" + elementType + "-" + sourceID,
		Name:         name,
		Address:      address,
		City:         city,
		State:        state,
		Country:      country,
		Latitude:     lat,
		Longitude:    lon,
		Phone:        firstTag(tags, "phone", "contact:phone"),
		Website:      firstTag(tags, "website", "contact:website"),
		OpeningHours: firstTag(tags, "opening_hours"),
		PlaceType:    placeType,
		SourceID:     sourceID,
	}
}

// normalizeNominatimPlace maps one Nominatim place to a Facility. It returns nil when the place
// has no usable coordinates, lies outside the query radius, or does not look medical.
func normalizeNominatimPlace(place nominatimPlace, query entities.SearchQuery) *entities.Facility {
	lat, lon, ok := place.coordinates()
	if !ok {
		return nil
	}

	distance := geo.DistanceKm(query.Origin.Latitude, query.Origin.Longitude, lat, lon)
	if distance > query.RadiusKm() || !looksMedical(place) {
		return nil
	}

	name := strings.TrimSpace(place.Name)
	if name == "" {
		name = strings.TrimSpace(strings.SplitN(place.DisplayName, ",", 2)[0])
	}
	if name == "" {
		name = entities.UnnamedFacility
	}
	address := strings.TrimSpace(place.DisplayName)
	if address == "" {
		address = entities.AddressNotAvailable
	}
	placeType := place.Type
	if placeType == "" {
		placeType = entities.DefaultPlaceType
	}

	sourceID := strconv.FormatInt(place.PlaceID, 10)
	return &entities.Facility{
		ID:           "nominatim-" + sourceID,
		Name:         name,
		Address:      address,
		City:         firstTag(place.Address, "city", "town", "village"),
		State:        firstTag(place.Address, "state"),
		Country:      firstTag(place.Address, "country"),
		Latitude:     lat,
		Longitude:    lon,
		Phone:        firstTag(place.ExtraTags, "phone", "contact:phone"),
		Website:      firstTag(place.ExtraTags, "website", "contact:website"),
		OpeningHours: firstTag(place.ExtraTags, "opening_hours"),
		DistanceKm:   &distance,
		PlaceType:    placeType,
		SourceID:     sourceID,
	}
}

func looksMedical(place nominatimPlace) bool {
	if place.Type == "hospital" || place.Type == "clinic" {
		return true
	}
	display := strings.ToLower(place.DisplayName)
	for _, kw := range medicalKeywords {
		if strings.Contains(display, kw) {
			return true
		}
	}
	return false
}
