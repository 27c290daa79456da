package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/healthconnect/backend/internal/adapters/providers/geolocation"
	"github.com/healthconnect/backend/internal/application/services"
	"github.com/healthconnect/backend/internal/domain/entities"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

// SearchSessionHeader carries the client's search session id. Overlapping
// searches of one session supersede each other. Requests without it run
// untracked and publish nothing for /api/hospitals/results.
const SearchSessionHeader = "X-Search-Session"

// HospitalHandler handles hospital finder endpoints
type HospitalHandler struct {
	finder        *services.HospitalFinderService
	tracker       *services.SearchTracker
	searchTimeout time.Duration
}

// NewHospitalHandler creates a new hospital handler. A positive searchTimeout
// bounds every search, which then fails with SEARCH_FAILED instead of
// outliving the server's write deadline.
func NewHospitalHandler(finder *services.HospitalFinderService, tracker *services.SearchTracker, searchTimeout time.Duration) *HospitalHandler {
	return &HospitalHandler{finder: finder, tracker: tracker, searchTimeout: searchTimeout}
}

type facilityView struct {
	*entities.Facility
	DisplayAddress string `json:"display_address"`
	DirectionsURL  string `json:"directions_url"`
}

type searchResponse struct {
	Origin       entities.Coordinates  `json:"origin"`
	RadiusMeters int                   `json:"radius_meters"`
	Source       entities.SearchSource `json:"source"`
	Generation   uint64                `json:"generation"`
	CompletedAt  time.Time             `json:"completed_at"`
	Count        int                   `json:"count"`
	Facilities   []facilityView        `json:"facilities"`
}

func newSearchResponse(result *entities.SearchResult) searchResponse {
	views := make([]facilityView, 0, len(result.Facilities))
	for _, f := range result.Facilities {
		views = append(views, facilityView{
			Facility:       f,
			DisplayAddress: f.DisplayAddress(),
			DirectionsURL:  f.DirectionsURL(),
		})
	}
	return searchResponse{
		Origin:       result.Origin,
		RadiusMeters: result.RadiusMeters,
		Source:       result.Source,
		Generation:   result.Generation,
		CompletedAt:  result.CompletedAt,
		Count:        len(views),
		Facilities:   views,
	}
}

// Search handles GET /api/hospitals/search?location=...&radius=...
func (h *HospitalHandler) Search(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		respondWithError(w, http.StatusBadRequest, "location parameter is required")
		return
	}

	radius, err := parseRadius(r.URL.Query().Get("radius"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	h.run(w, r, func(ctx context.Context) (*entities.SearchResult, error) {
		return h.finder.SearchByLocation(ctx, location, radius)
	})
}

type nearbyRequest struct {
	Device entities.DeviceFix `json:"device"`
	Radius int                `json:"radius"`
}

// Nearby handles POST /api/hospitals/nearby with the position fix reported by the device.
func (h *HospitalHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	var req nearbyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	source := geolocation.NewReportedPosition(req.Device)
	h.run(w, r, func(ctx context.Context) (*entities.SearchResult, error) {
		return h.finder.SearchNearby(ctx, source, req.Radius)
	})
}

// Results handles GET /api/hospitals/results, the last published search of the session.
func (h *HospitalHandler) Results(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.Header.Get(SearchSessionHeader))
	if sessionID == "" {
		respondWithError(w, http.StatusBadRequest, SearchSessionHeader+" header is required")
		return
	}

	result, ok := h.tracker.Latest(sessionID)
	if !ok {
		respondWithError(w, http.StatusNotFound, "no results for this session")
		return
	}
	respondWithJSON(w, http.StatusOK, newSearchResponse(result))
}

// Geocode handles GET /api/geocode?location=...
func (h *HospitalHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		respondWithError(w, http.StatusBadRequest, "location parameter is required")
		return
	}

	coords, err := h.finder.ResolveText(r.Context(), location)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"location": location,
		"lat":      coords.Latitude,
		"lng":      coords.Longitude,
	})
}

func (h *HospitalHandler) run(w http.ResponseWriter, r *http.Request, search func(ctx context.Context) (*entities.SearchResult, error)) {
	ctx := r.Context()
	if h.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.searchTimeout)
		defer cancel()
	}

	var (
		result *entities.SearchResult
		err    error
	)
	if sessionID := strings.TrimSpace(r.Header.Get(SearchSessionHeader)); sessionID != "" {
		w.Header().Set(SearchSessionHeader, sessionID)
		result, err = h.tracker.Run(ctx, sessionID, search)
	} else {
		result, err = search(ctx)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
			// Client went away; nobody reads the response.
			return
		}
		if _, ok := apperrors.As(err); !ok && errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.NewSearchFailedError(err)
		}
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, newSearchResponse(result))
}

func parseRadius(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	radius, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("radius must be an integer number of meters")
	}
	return radius, nil
}
