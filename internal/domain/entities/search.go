package entities

import (
	"fmt"
	"time"
)

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// SearchRadii lists the radii, in meters, a hospital search may use.
var SearchRadii = []int{1000, 2000, 5000, 10000, 25000}

// DefaultSearchRadius is used when a request does not pick a radius.
const DefaultSearchRadius = 5000

// ValidSearchRadius reports whether meters is one of SearchRadii.
func ValidSearchRadius(meters int) bool {
	for _, r := range SearchRadii {
		if r == meters {
			return true
		}
	}
	return false
}

// SearchQuery is the input to one hospital search: an origin and a radius in meters.
type SearchQuery struct {
	Origin       Coordinates
	RadiusMeters int
}

// RadiusKm returns the radius in kilometers.
func (q SearchQuery) RadiusKm() float64 {
	return float64(q.RadiusMeters) / 1000
}

// CacheKey identifies queries that can share a cached result.
func (q SearchQuery) CacheKey() string {
	return fmt.Sprintf("%.4f,%.4f,%d", q.Origin.Latitude, q.Origin.Longitude, q.RadiusMeters)
}

// SearchSource names the provider stage that produced a result.
type SearchSource string

const (
	SearchSourcePrimary  SearchSource = "primary"
	SearchSourceFallback SearchSource = "fallback"
)

// SearchResult is the ranked outcome of one hospital search.
type SearchResult struct {
	Origin       Coordinates  `json:"origin"`
	RadiusMeters int          `json:"radius_meters"`
	Source       SearchSource `json:"source"`
	Facilities   []*Facility  `json:"facilities"`
	Generation   uint64       `json:"generation,omitempty"`
	CompletedAt  time.Time    `json:"completed_at"`
}

// SearchState is a step of a single search invocation.
type SearchState string

const (
	SearchStateIdle             SearchState = "idle"
	SearchStateResolving        SearchState = "resolving"
	SearchStateQueryingPrimary  SearchState = "querying_primary"
	SearchStateQueryingFallback SearchState = "querying_fallback"
	SearchStateNormalizing      SearchState = "normalizing"
	SearchStateRanking          SearchState = "ranking"
	SearchStateDeduplicating    SearchState = "deduplicating"
	SearchStateDone             SearchState = "done"
	SearchStateFailed           SearchState = "failed"
)
