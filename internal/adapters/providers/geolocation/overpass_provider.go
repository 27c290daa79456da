package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/providers"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	"github.com/healthconnect/backend/pkg/geo"
)

const (
	overpassInterpreterURL = "https://overpass-api.de/api/interpreter"
	overpassQueryTimeout   = 25
	defaultHTTPTimeout     = 30 * time.Second
)

// facility tag filters queried around the origin, for both nodes and ways.
var overpassFilters = []string{
	`["amenity"="hospital"]`,
	`["amenity"="clinic"]`,
	`["healthcare"="hospital"]`,
}

// OverpassProvider queries the OpenStreetMap Overpass API for healthcare facilities.
type OverpassProvider struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

var _ providers.FacilitySource = (*OverpassProvider)(nil)

// NewOverpassProvider creates an Overpass facility source. Empty endpoint and nil client select defaults.
func NewOverpassProvider(endpoint, userAgent string, httpClient *http.Client) *OverpassProvider {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = overpassInterpreterURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &OverpassProvider{
		endpoint:   endpoint,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Name implements providers.FacilitySource.
func (p *OverpassProvider) Name() string { return "overpass" }

// SearchFacilities runs one spatial query and normalizes the returned elements.
func (p *OverpassProvider) SearchFacilities(ctx context.Context, query entities.SearchQuery) ([]*entities.Facility, error) {
	body := BuildOverpassQuery(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("overpass request returned status %d", resp.StatusCode)
	}

	var payload overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	facilities := make([]*entities.Facility, 0, len(payload.Elements))
	for _, el := range payload.Elements {
		if f := normalizeOverpassElement(el); f != nil {
			facilities = append(facilities, f)
		}
	}

	observability.LoggerFromContext(ctx).Debug().
		Int("elements", len(payload.Elements)).
		Int("facilities", len(facilities)).
		Msg("overpass search complete")

	return facilities, nil
}

// BuildOverpassQuery renders the Overpass QL body for query.
func BuildOverpassQuery(query entities.SearchQuery) string {
	around := fmt.Sprintf("(around:%d,%v,%v)", query.RadiusMeters, query.Origin.Latitude, query.Origin.Longitude)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", overpassQueryTimeout)
	for _, filter := range overpassFilters {
		fmt.Fprintf(&b, "  node%s%s;\n", filter, around)
		fmt.Fprintf(&b, "  way%s%s;\n", filter, around)
	}
	b.WriteString(");\nout center meta;\n")
	return b.String()
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type overpassCenter struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// coordinates prefers the element's own position and falls back to the way center.
func (e overpassElement) coordinates() (float64, float64, bool) {
	if e.Lat != nil && e.Lon != nil && geo.ValidCoordinate(*e.Lat, *e.Lon) {
		return *e.Lat, *e.Lon, true
	}
	if e.Center != nil && e.Center.Lat != nil && e.Center.Lon != nil && geo.ValidCoordinate(*e.Center.Lat, *e.Center.Lon) {
		return *e.Center.Lat, *e.Center.Lon, true
	}
	return 0, 0, false
}
