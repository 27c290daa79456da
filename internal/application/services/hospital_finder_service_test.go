package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthconnect/backend/internal/adapters/providers/geolocation"
	"github.com/healthconnect/backend/internal/application/services"
	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/providers"
	apperrors "github.com/healthconnect/backend/pkg/errors"
	"github.com/healthconnect/backend/pkg/geo"
)

// Mocks

type MockFacilitySource struct {
	mock.Mock
	name string
}

func (m *MockFacilitySource) Name() string { return m.name }

func (m *MockFacilitySource) SearchFacilities(ctx context.Context, query entities.SearchQuery) ([]*entities.Facility, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Facility), args.Error(1)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, location string) (*entities.Coordinates, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Coordinates), args.Error(1)
}

type MockPositionSource struct {
	mock.Mock
}

func (m *MockPositionSource) CurrentPosition(ctx context.Context, opts entities.PositionOptions) (*entities.Coordinates, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Coordinates), args.Error(1)
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, providers.ErrCacheMiss
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Helpers

var lagosOrigin = entities.Coordinates{Latitude: 6.5244, Longitude: 3.3792}

func lagosQuery() entities.SearchQuery {
	return entities.SearchQuery{Origin: lagosOrigin, RadiusMeters: 5000}
}

func facility(id, name string, lat, lng float64) *entities.Facility {
	return &entities.Facility{ID: id, Name: name, Latitude: lat, Longitude: lng, PlaceType: "hospital"}
}

func newFinder(geocoder providers.Geocoder, primary, fallback providers.FacilitySource) *services.HospitalFinderService {
	return services.NewHospitalFinderService(services.HospitalFinderOptions{
		Geocoder: geocoder,
		Primary:  primary,
		Fallback: fallback,
	})
}

// Tests

func TestHospitalFinderService_PrimaryResultsAreRanked(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	fallback := &MockFacilitySource{name: "fallback"}
	finder := newFinder(nil, primary, fallback)

	primary.On("SearchFacilities", mock.Anything, lagosQuery()).Return([]*entities.Facility{
		facility("osm-1", "Far General", 6.5600, 3.3792),
		facility("osm-2", "Near Clinic", 6.5250, 3.3792),
		facility("osm-3", "Middle Hospital", 6.5400, 3.3792),
	}, nil)

	result, err := finder.Search(context.Background(), lagosQuery())
	require.NoError(t, err)

	assert.Equal(t, entities.SearchSourcePrimary, result.Source)
	require.Len(t, result.Facilities, 3)
	assert.Equal(t, "osm-2", result.Facilities[0].ID)
	assert.Equal(t, "osm-3", result.Facilities[1].ID)
	assert.Equal(t, "osm-1", result.Facilities[2].ID)
	for i := 1; i < len(result.Facilities); i++ {
		assert.LessOrEqual(t, *result.Facilities[i-1].DistanceKm, *result.Facilities[i].DistanceKm)
	}
	fallback.AssertNotCalled(t, "SearchFacilities", mock.Anything, mock.Anything)
}

func TestHospitalFinderService_PrimaryResultsAreNotDeduplicated(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	finder := newFinder(nil, primary, &MockFacilitySource{name: "fallback"})

	primary.On("SearchFacilities", mock.Anything, lagosQuery()).Return([]*entities.Facility{
		facility("osm-1", "Twin Hospital", 6.5300, 3.3792),
		facility("osm-2", "Twin Hospital", 6.5302, 3.3792),
	}, nil)

	result, err := finder.Search(context.Background(), lagosQuery())
	require.NoError(t, err)
	assert.Len(t, result.Facilities, 2)
}

func TestHospitalFinderService_FallbackOnPrimaryError(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	fallback := &MockFacilitySource{name: "fallback"}
	finder := newFinder(nil, primary, fallback)

	primary.On("SearchFacilities", mock.Anything, lagosQuery()).Return(nil, errors.New("overpass request returned status 504"))
	fallback.On("SearchFacilities", mock.Anything, lagosQuery()).Return([]*entities.Facility{
		facility("nominatim-1", "Island Hospital", 6.5300, 3.3800),
	}, nil).Once()

	result, err := finder.Search(context.Background(), lagosQuery())
	require.NoError(t, err)
	assert.Equal(t, entities.SearchSourceFallback, result.Source)
	assert.Len(t, result.Facilities, 1)
	fallback.AssertExpectations(t)
}

func TestHospitalFinderService_BothProvidersFail(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	fallback := &MockFacilitySource{name: "fallback"}
	finder := newFinder(nil, primary, fallback)

	primary.On("SearchFacilities", mock.Anything, lagosQuery()).Return(nil, errors.New("connection refused"))
	fallback.On("SearchFacilities", mock.Anything, lagosQuery()).Return(nil, errors.New("status 429"))

	result, err := finder.Search(context.Background(), lagosQuery())
	assert.Nil(t, result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSearchFailed))
}

func TestHospitalFinderService_EmptyFallbackIsNotAnError(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	fallback := &MockFacilitySource{name: "fallback"}
	finder := newFinder(nil, primary, fallback)

	primary.On("SearchFacilities", mock.Anything, lagosQuery()).Return([]*entities.Facility{}, nil)
	fallback.On("SearchFacilities", mock.Anything, lagosQuery()).Return([]*entities.Facility{}, nil)

	result, err := finder.Search(context.Background(), lagosQuery())
	require.NoError(t, err)
	assert.Empty(t, result.Facilities)
	assert.Equal(t, entities.SearchSourceFallback, result.Source)
}

func TestHospitalFinderService_CancelledSearchSkipsFallback(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	fallback := &MockFacilitySource{name: "fallback"}
	finder := newFinder(nil, primary, fallback)

	ctx, cancel := context.WithCancel(context.Background())
	primary.On("SearchFacilities", mock.Anything, lagosQuery()).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	_, err := finder.Search(ctx, lagosQuery())
	assert.ErrorIs(t, err, context.Canceled)
	fallback.AssertNotCalled(t, "SearchFacilities", mock.Anything, mock.Anything)
}

func TestHospitalFinderService_SearchNearby_DeniedSkipsSearch(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	fallback := &MockFacilitySource{name: "fallback"}
	position := new(MockPositionSource)
	finder := newFinder(nil, primary, fallback)

	position.On("CurrentPosition", mock.Anything, entities.DefaultPositionOptions()).Return(nil, apperrors.NewLocationDeniedError())

	_, err := finder.SearchNearby(context.Background(), position, 5000)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeLocationDenied))
	primary.AssertNotCalled(t, "SearchFacilities", mock.Anything, mock.Anything)
	fallback.AssertNotCalled(t, "SearchFacilities", mock.Anything, mock.Anything)
}

func TestHospitalFinderService_SearchByLocation(t *testing.T) {
	geocoder := new(MockGeocoder)
	primary := &MockFacilitySource{name: "primary"}
	finder := newFinder(geocoder, primary, &MockFacilitySource{name: "fallback"})

	geocoder.On("Geocode", mock.Anything, "Lagos").Return(&lagosOrigin, nil)
	primary.On("SearchFacilities", mock.Anything, entities.SearchQuery{Origin: lagosOrigin, RadiusMeters: entities.DefaultSearchRadius}).
		Return([]*entities.Facility{facility("osm-1", "General", 6.53, 3.38)}, nil)

	result, err := finder.SearchByLocation(context.Background(), "Lagos", 0)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultSearchRadius, result.RadiusMeters)
	assert.Equal(t, lagosOrigin, result.Origin)
}

func TestHospitalFinderService_SearchByLocation_NotFound(t *testing.T) {
	geocoder := new(MockGeocoder)
	primary := &MockFacilitySource{name: "primary"}
	finder := newFinder(geocoder, primary, &MockFacilitySource{name: "fallback"})

	geocoder.On("Geocode", mock.Anything, "Atlantis").Return(nil, apperrors.NewLocationNotFoundError("Atlantis"))

	_, err := finder.SearchByLocation(context.Background(), "Atlantis", 5000)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeLocationNotFound))
	primary.AssertNotCalled(t, "SearchFacilities", mock.Anything, mock.Anything)
}

func TestHospitalFinderService_RejectsUnknownRadius(t *testing.T) {
	finder := newFinder(new(MockGeocoder), &MockFacilitySource{}, &MockFacilitySource{})

	_, err := finder.SearchByLocation(context.Background(), "Lagos", 3000)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestHospitalFinderService_CachesResults(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	finder := services.NewHospitalFinderService(services.HospitalFinderOptions{
		Primary:  primary,
		Fallback: &MockFacilitySource{name: "fallback"},
		Cache:    &memoryCache{data: map[string][]byte{}},
		CacheTTL: time.Minute,
	})

	primary.On("SearchFacilities", mock.Anything, lagosQuery()).
		Return([]*entities.Facility{facility("osm-1", "General", 6.53, 3.38)}, nil).Once()

	first, err := finder.Search(context.Background(), lagosQuery())
	require.NoError(t, err)
	second, err := finder.Search(context.Background(), lagosQuery())
	require.NoError(t, err)

	assert.Equal(t, first.Facilities[0].ID, second.Facilities[0].ID)
	primary.AssertNumberOfCalls(t, "SearchFacilities", 1)
}

func TestHospitalFinderService_CacheHitUsesCallerOrigin(t *testing.T) {
	primary := &MockFacilitySource{name: "primary"}
	finder := services.NewHospitalFinderService(services.HospitalFinderOptions{
		Primary:  primary,
		Fallback: &MockFacilitySource{name: "fallback"},
		Cache:    &memoryCache{data: map[string][]byte{}},
		CacheTTL: time.Minute,
	})

	// East is nearer to lagosOrigin, west is nearer to a point 4 m to its west.
	primary.On("SearchFacilities", mock.Anything, mock.Anything).Return([]*entities.Facility{
		facility("osm-node-1", "East Clinic", 6.5244, 3.37995),
		facility("osm-node-2", "West Clinic", 6.5244, 3.37843),
	}, nil).Once()

	first, err := finder.Search(context.Background(), lagosQuery())
	require.NoError(t, err)
	require.Len(t, first.Facilities, 2)
	assert.Equal(t, "osm-node-1", first.Facilities[0].ID)

	nearby := entities.SearchQuery{Origin: entities.Coordinates{Latitude: 6.5244, Longitude: 3.37916}, RadiusMeters: 5000}
	require.Equal(t, lagosQuery().CacheKey(), nearby.CacheKey())

	second, err := finder.Search(context.Background(), nearby)
	require.NoError(t, err)
	primary.AssertNumberOfCalls(t, "SearchFacilities", 1)

	assert.Equal(t, nearby.Origin, second.Origin)
	require.Len(t, second.Facilities, 2)
	assert.Equal(t, "osm-node-2", second.Facilities[0].ID)
	for _, f := range second.Facilities {
		require.NotNil(t, f.DistanceKm)
		assert.InDelta(t, geo.DistanceKm(nearby.Origin.Latitude, nearby.Origin.Longitude, f.Latitude, f.Longitude), *f.DistanceKm, 1e-9)
	}
}

// Lagos, 5 km: the primary source finds nothing, so the three fallback queries
// run one after another and their merged results are filtered, ranked and deduplicated.
func TestHospitalFinderService_LagosFallbackScenario(t *testing.T) {
	var (
		mu      sync.Mutex
		queries []string
	)
	responses := map[string]string{
		"hospital": `[
  {"place_id": 1, "lat": "6.5300", "lon": "3.3800", "type": "hospital", "display_name": "Island Hospital, Lagos"},
  {"place_id": 2, "lat": "6.5400", "lon": "3.3792", "type": "clinic", "display_name": "Harbour Clinic, Lagos"},
  {"place_id": 3, "lat": "9.0765", "lon": "7.3986", "type": "hospital", "display_name": "National Hospital, Abuja"}
]`,
		"clinic": `[
  {"place_id": 4, "lat": "6.5403", "lon": "3.3792", "type": "clinic", "display_name": "Harbour Clinic, Lagos"},
  {"place_id": 5, "lat": "6.5250", "lon": "3.3790", "type": "pharmacy", "display_name": "Corner Pharmacy, Lagos"}
]`,
		"medical center": `[
  {"place_id": 6, "lat": "6.5250", "lon": "3.3792", "type": "building", "display_name": "Ikoyi Medical Centre, Lagos"}
]`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		term := strings.TrimSuffix(q, " near 6.5244,3.3792")
		_, _ = w.Write([]byte(responses[term]))
	}))
	defer server.Close()

	primary := &MockFacilitySource{name: "overpass"}
	primary.On("SearchFacilities", mock.Anything, lagosQuery()).Return([]*entities.Facility{}, nil)
	fallback := geolocation.NewNominatimProvider(geolocation.NominatimOptions{BaseURL: server.URL, HTTPClient: server.Client()})

	finder := newFinder(nil, primary, fallback)
	result, err := finder.Search(context.Background(), lagosQuery())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"hospital near 6.5244,3.3792",
		"clinic near 6.5244,3.3792",
		"medical center near 6.5244,3.3792",
	}, queries)
	assert.Equal(t, entities.SearchSourceFallback, result.Source)

	ids := make([]string, 0, len(result.Facilities))
	for _, f := range result.Facilities {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []string{"nominatim-6", "nominatim-1", "nominatim-2"}, ids)
	for i := 1; i < len(result.Facilities); i++ {
		assert.LessOrEqual(t, *result.Facilities[i-1].DistanceKm, *result.Facilities[i].DistanceKm)
	}
}
