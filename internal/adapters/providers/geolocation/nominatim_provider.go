package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/providers"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/healthconnect/backend/pkg/errors"
	"github.com/healthconnect/backend/pkg/geo"
)

const (
	nominatimBaseURL       = "https://nominatim.openstreetmap.org"
	nominatimResultLimit   = 10
	defaultGeocodeCacheTTL = 24 * time.Hour
)

// fallbackSearchTerms are queried in order, one request each.
var fallbackSearchTerms = []string{"hospital", "clinic", "medical center"}

// NominatimProvider geocodes place names and serves as the fallback facility source.
type NominatimProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      providers.CacheProvider
	cacheTTL   time.Duration
}

var (
	_ providers.FacilitySource = (*NominatimProvider)(nil)
	_ providers.Geocoder       = (*NominatimProvider)(nil)
)

// NominatimOptions configures a NominatimProvider.
type NominatimOptions struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Cache      providers.CacheProvider
	CacheTTL   time.Duration
}

// NewNominatimProvider creates a Nominatim client. Cache may be nil.
func NewNominatimProvider(opts NominatimOptions) *NominatimProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = nominatimBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultGeocodeCacheTTL
	}
	return &NominatimProvider{
		baseURL:    baseURL,
		userAgent:  opts.UserAgent,
		httpClient: httpClient,
		cache:      opts.Cache,
		cacheTTL:   ttl,
	}
}

// Name implements providers.FacilitySource.
func (n *NominatimProvider) Name() string { return "nominatim" }

// Geocode returns the best match for location. Zero matches yield LOCATION_NOT_FOUND,
// transport and HTTP failures GEOCODING_FAILED.
func (n *NominatimProvider) Geocode(ctx context.Context, location string) (*entities.Coordinates, error) {
	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("location is required")
	}

	cacheKey := "geo:v1:nominatim:" + hashKey(strings.ToLower(trimmed))
	if n.cache != nil {
		if cached, err := n.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var coords entities.Coordinates
			if err := json.Unmarshal(cached, &coords); err == nil && geo.ValidCoordinate(coords.Latitude, coords.Longitude) {
				return &coords, nil
			}
		}
	}

	places, err := n.search(ctx, url.Values{
		"q":     []string{trimmed},
		"limit": []string{"1"},
	})
	if err != nil {
		return nil, apperrors.NewGeocodingFailedError(err)
	}

	for _, place := range places {
		lat, lon, ok := place.coordinates()
		if !ok {
			continue
		}
		coords := entities.Coordinates{Latitude: lat, Longitude: lon}
		if n.cache != nil {
			if payload, err := json.Marshal(coords); err == nil {
				_ = n.cache.Set(ctx, cacheKey, payload, n.cacheTTL)
			}
		}
		return &coords, nil
	}

	return nil, apperrors.NewLocationNotFoundError(trimmed)
}

// SearchFacilities issues the hospital, clinic and medical center searches one after another
// and merges the accepted places in query order. Any failed request fails the whole search
// so callers never see a partial list.
func (n *NominatimProvider) SearchFacilities(ctx context.Context, query entities.SearchQuery) ([]*entities.Facility, error) {
	logger := observability.LoggerFromContext(ctx)
	var merged []*entities.Facility

	for _, term := range fallbackSearchTerms {
		q := fmt.Sprintf("%s near %v,%v", term, query.Origin.Latitude, query.Origin.Longitude)
		places, err := n.search(ctx, url.Values{
			"q":              []string{q},
			"limit":          []string{strconv.Itoa(nominatimResultLimit)},
			"addressdetails": []string{"1"},
			"extratags":      []string{"1"},
		})
		if err != nil {
			return nil, fmt.Errorf("nominatim %q search: %w", term, err)
		}

		accepted := 0
		for _, place := range places {
			if f := normalizeNominatimPlace(place, query); f != nil {
				merged = append(merged, f)
				accepted++
			}
		}
		logger.Debug().Str("term", term).Int("places", len(places)).Int("accepted", accepted).Msg("nominatim search complete")
	}

	return merged, nil
}

func (n *NominatimProvider) search(ctx context.Context, params url.Values) ([]nominatimPlace, error) {
	params.Set("format", "json")
	reqURL := fmt.Sprintf("%s/search?%s", n.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build nominatim request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("nominatim request returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	return places, nil
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type nominatimPlace struct {
	PlaceID     int64             `json:"place_id"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Class       string            `json:"class"`
	Type        string            `json:"type"`
	Address     map[string]string `json:"address,omitempty"`
	ExtraTags   map[string]string `json:"extratags,omitempty"`
}

func (p nominatimPlace) coordinates() (float64, float64, bool) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
	if err != nil {
		return 0, 0, false
	}
	if !geo.ValidCoordinate(lat, lon) {
		return 0, 0, false
	}
	return lat, lon, true
}
