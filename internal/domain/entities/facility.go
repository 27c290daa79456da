package entities

import (
	"fmt"
	"strings"
)

// Placeholders used when a provider record omits a field.
const (
	UnnamedFacility     = "Unnamed Hospital"
	AddressNotAvailable = "Address not available"
	DefaultPlaceType    = "hospital"
)

// Facility is a normalized healthcare location candidate returned by a hospital search.
type Facility struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	Country      string   `json:"country,omitempty"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Phone        string   `json:"phone,omitempty"`
	Website      string   `json:"website,omitempty"`
	OpeningHours string   `json:"opening_hours,omitempty"`
	DistanceKm   *float64 `json:"distance_km,omitempty"`
	PlaceType    string   `json:"place_type"`
	SourceID     string   `json:"source_id"`
}

// DirectionsURL links to a map application centered on the facility.
func (f *Facility) DirectionsURL() string {
	return fmt.Sprintf("https://maps.google.com?q=%v,%v", f.Latitude, f.Longitude)
}

// DisplayAddress falls back to city, state and country when no street address is known.
func (f *Facility) DisplayAddress() string {
	if f.Address != "" && f.Address != AddressNotAvailable {
		return f.Address
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{f.City, f.State, f.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return AddressNotAvailable
	}
	return strings.Join(parts, ", ")
}
