package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/providers"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/healthconnect/backend/pkg/errors"
	"github.com/healthconnect/backend/pkg/geo"
)

const searchCachePrefix = "search:v1:"

// HospitalFinderService resolves a location and searches nearby facilities,
// querying the primary source first and the fallback source only when the
// primary fails or finds nothing.
type HospitalFinderService struct {
	geocoder providers.Geocoder
	primary  providers.FacilitySource
	fallback providers.FacilitySource
	cache    providers.CacheProvider
	cacheTTL time.Duration
	metrics  *observability.Metrics
}

// HospitalFinderOptions wires a HospitalFinderService. Cache and Metrics may be nil.
type HospitalFinderOptions struct {
	Geocoder providers.Geocoder
	Primary  providers.FacilitySource
	Fallback providers.FacilitySource
	Cache    providers.CacheProvider
	CacheTTL time.Duration
	Metrics  *observability.Metrics
}

// NewHospitalFinderService creates a new hospital finder
func NewHospitalFinderService(opts HospitalFinderOptions) *HospitalFinderService {
	return &HospitalFinderService{
		geocoder: opts.Geocoder,
		primary:  opts.Primary,
		fallback: opts.Fallback,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		metrics:  opts.Metrics,
	}
}

// ResolveText geocodes a free-text location.
func (s *HospitalFinderService) ResolveText(ctx context.Context, location string) (*entities.Coordinates, error) {
	return s.geocoder.Geocode(ctx, location)
}

// ResolveDevice asks the position source for a one-shot high accuracy fix.
func (s *HospitalFinderService) ResolveDevice(ctx context.Context, source providers.PositionSource) (*entities.Coordinates, error) {
	return source.CurrentPosition(ctx, entities.DefaultPositionOptions())
}

// SearchByLocation geocodes location and searches around it.
func (s *HospitalFinderService) SearchByLocation(ctx context.Context, location string, radiusMeters int) (*entities.SearchResult, error) {
	radius, err := normalizeRadius(radiusMeters)
	if err != nil {
		return nil, err
	}

	logState(ctx, entities.SearchStateResolving)
	origin, err := s.ResolveText(ctx, location)
	if err != nil {
		logState(ctx, entities.SearchStateFailed)
		return nil, err
	}
	return s.Search(ctx, entities.SearchQuery{Origin: *origin, RadiusMeters: radius})
}

// SearchNearby resolves the device position and searches around it. No
// provider is queried when the position cannot be resolved.
func (s *HospitalFinderService) SearchNearby(ctx context.Context, source providers.PositionSource, radiusMeters int) (*entities.SearchResult, error) {
	radius, err := normalizeRadius(radiusMeters)
	if err != nil {
		return nil, err
	}

	logState(ctx, entities.SearchStateResolving)
	origin, err := s.ResolveDevice(ctx, source)
	if err != nil {
		logState(ctx, entities.SearchStateFailed)
		return nil, err
	}
	return s.Search(ctx, entities.SearchQuery{Origin: *origin, RadiusMeters: radius})
}

// Search runs the provider stages for an already resolved origin and returns
// the ranked facilities. The result is either complete or an error, never partial.
func (s *HospitalFinderService) Search(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, error) {
	ctx, span := observability.StartSpan(ctx, "HospitalFinderService.Search")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.Float64("search.origin.lat", query.Origin.Latitude),
		attribute.Float64("search.origin.lng", query.Origin.Longitude),
		attribute.Int("search.radius_m", query.RadiusMeters),
	)

	if !geo.ValidCoordinate(query.Origin.Latitude, query.Origin.Longitude) {
		return nil, apperrors.NewValidationError("origin coordinates are out of range")
	}
	if !entities.ValidSearchRadius(query.RadiusMeters) {
		return nil, apperrors.NewValidationError("radius must be one of 1000, 2000, 5000, 10000 or 25000 meters")
	}

	if cached := s.cachedResult(ctx, query); cached != nil {
		return reanchor(cached, query), nil
	}

	started := time.Now()
	result, fellBack, err := s.runStages(ctx, query)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordSearch(ctx, s.metrics, string(entities.SearchStateFailed), "", fellBack, time.Since(started))
		logState(ctx, entities.SearchStateFailed)
		return nil, err
	}

	observability.SetSpanAttributes(span,
		attribute.String("search.source", string(result.Source)),
		attribute.Int("search.results", len(result.Facilities)),
	)
	observability.RecordSearch(ctx, s.metrics, string(entities.SearchStateDone), string(result.Source), fellBack, time.Since(started))
	observability.LoggerFromContext(ctx).Info().
		Str("source", string(result.Source)).
		Int("results", len(result.Facilities)).
		Int("radius_m", query.RadiusMeters).
		Dur("took", time.Since(started)).
		Msg("hospital search complete")

	s.storeResult(ctx, query, result)
	return result, nil
}

func (s *HospitalFinderService) runStages(ctx context.Context, query entities.SearchQuery) (*entities.SearchResult, bool, error) {
	logger := observability.LoggerFromContext(ctx)

	logState(ctx, entities.SearchStateQueryingPrimary)
	facilities, primaryErr := s.primary.SearchFacilities(ctx, query)
	source := entities.SearchSourcePrimary

	if primaryErr == nil && len(facilities) > 0 {
		return s.finish(ctx, query, facilities, source), false, nil
	}

	// A superseded or abandoned search must not spend a fallback round trip.
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if primaryErr != nil {
		logger.Warn().Err(primaryErr).Str("provider", s.primary.Name()).Msg("primary facility search failed, using fallback")
	} else {
		logger.Info().Str("provider", s.primary.Name()).Msg("primary facility search returned no results, using fallback")
	}

	logState(ctx, entities.SearchStateQueryingFallback)
	facilities, fallbackErr := s.fallback.SearchFacilities(ctx, query)
	if fallbackErr != nil {
		if err := ctx.Err(); err != nil {
			return nil, true, err
		}
		return nil, true, apperrors.NewSearchFailedError(errors.Join(primaryErr, fallbackErr))
	}

	return s.finish(ctx, query, facilities, entities.SearchSourceFallback), true, nil
}

func (s *HospitalFinderService) finish(ctx context.Context, query entities.SearchQuery, facilities []*entities.Facility, source entities.SearchSource) *entities.SearchResult {
	logState(ctx, entities.SearchStateNormalizing)
	usable := facilities[:0]
	for _, f := range facilities {
		if f != nil && geo.ValidCoordinate(f.Latitude, f.Longitude) {
			usable = append(usable, f)
		}
	}

	logState(ctx, entities.SearchStateRanking)
	AssignDistances(query.Origin, usable)
	ranked := RankByDistance(usable)

	if source == entities.SearchSourceFallback {
		logState(ctx, entities.SearchStateDeduplicating)
		ranked = DedupeNearby(ranked)
	}

	logState(ctx, entities.SearchStateDone)
	return &entities.SearchResult{
		Origin:       query.Origin,
		RadiusMeters: query.RadiusMeters,
		Source:       source,
		Facilities:   ranked,
		CompletedAt:  time.Now().UTC(),
	}
}

func (s *HospitalFinderService) cachedResult(ctx context.Context, query entities.SearchQuery) *entities.SearchResult {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	key := searchCachePrefix + query.CacheKey()
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, "search")
		return nil
	}

	var result entities.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		_ = s.cache.Delete(ctx, key)
		return nil
	}
	observability.RecordCacheHit(ctx, s.metrics, "search")
	return &result
}

// reanchor rewrites a cached result for the caller's exact origin. Cache keys
// round the origin, so the stored distances belong to another query.
func reanchor(result *entities.SearchResult, query entities.SearchQuery) *entities.SearchResult {
	result.Origin = query.Origin
	for _, f := range result.Facilities {
		f.DistanceKm = nil
	}
	AssignDistances(query.Origin, result.Facilities)
	result.Facilities = RankByDistance(result.Facilities)
	return result
}

func (s *HospitalFinderService) storeResult(ctx context.Context, query entities.SearchQuery, result *entities.SearchResult) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, searchCachePrefix+query.CacheKey(), data, s.cacheTTL); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search cache write failed")
	}
}

func normalizeRadius(radiusMeters int) (int, error) {
	if radiusMeters == 0 {
		return entities.DefaultSearchRadius, nil
	}
	if !entities.ValidSearchRadius(radiusMeters) {
		return 0, apperrors.NewValidationError("radius must be one of 1000, 2000, 5000, 10000 or 25000 meters")
	}
	return radiusMeters, nil
}

func logState(ctx context.Context, state entities.SearchState) {
	observability.LoggerFromContext(ctx).Debug().Str("state", string(state)).Msg("hospital search state")
}
