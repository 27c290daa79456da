package geolocation

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/healthconnect/backend/internal/domain/providers"
	"github.com/healthconnect/backend/pkg/config"
)

// Sources are the providers a hospital finder is built from.
type Sources struct {
	Geocoder providers.Geocoder
	Primary  providers.FacilitySource
	Fallback providers.FacilitySource
}

// NewSources builds the configured providers. "osm" uses Overpass as the
// primary source and Nominatim for geocoding and as the fallback; "static"
// serves offline fixtures. Cache may be nil.
func NewSources(cfg config.GeoConfig, cache providers.CacheProvider) (Sources, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "osm":
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		nominatim := NewNominatimProvider(NominatimOptions{
			BaseURL:    cfg.NominatimURL,
			UserAgent:  cfg.UserAgent,
			HTTPClient: httpClient,
			Cache:      cache,
			CacheTTL:   cfg.GeocodeCacheTTL,
		})
		return Sources{
			Geocoder: nominatim,
			Primary:  NewOverpassProvider(cfg.OverpassURL, cfg.UserAgent, httpClient),
			Fallback: nominatim,
		}, nil
	case "static":
		static := NewStaticProvider()
		return Sources{Geocoder: static, Primary: static, Fallback: static}, nil
	default:
		return Sources{}, fmt.Errorf("unknown geo provider %q", cfg.Provider)
	}
}
