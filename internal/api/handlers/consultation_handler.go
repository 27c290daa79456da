package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/healthconnect/backend/internal/api/middleware"
	"github.com/healthconnect/backend/internal/application/services"
	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/repositories"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

// ConsultationHandler handles consultation booking endpoints
type ConsultationHandler struct {
	service *services.ConsultationService
}

// NewConsultationHandler creates a new consultation handler
func NewConsultationHandler(service *services.ConsultationService) *ConsultationHandler {
	return &ConsultationHandler{service: service}
}

// ListTypes handles GET /api/consultation-types
func (h *ConsultationHandler) ListTypes(w http.ResponseWriter, r *http.Request) {
	types := h.service.ListTypes()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"types": types,
		"count": len(types),
	})
}

// ListTimeSlots handles GET /api/consultation-slots
func (h *ConsultationHandler) ListTimeSlots(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"slots": h.service.ListTimeSlots(),
	})
}

// Validate handles POST /api/consultations/validate?step=n
func (h *ConsultationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(r.URL.Query().Get("step"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "step must be a number between 1 and 4")
		return
	}

	var req entities.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if err := h.service.ValidateStep(step, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"step":  step,
		"valid": true,
	})
}

// Book handles POST /api/consultations
func (h *ConsultationHandler) Book(w http.ResponseWriter, r *http.Request) {
	principal, _ := middleware.PrincipalFromContext(r.Context())

	var req entities.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	consultation, err := h.service.Book(r.Context(), principal, &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, consultation)
}

// ListMine handles GET /api/consultations/mine
func (h *ConsultationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter, err := parseConsultationFilter(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	consultations, err := h.service.ListMine(r.Context(), principal, filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"consultations": consultations,
		"count":         len(consultations),
	})
}

// Cancel handles POST /api/consultations/{id}/cancel
func (h *ConsultationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	consultation, err := h.service.Cancel(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, consultation)
}

func parseConsultationFilter(r *http.Request) (repositories.ConsultationFilter, error) {
	q := r.URL.Query()
	filter := repositories.ConsultationFilter{
		Status: entities.ConsultationStatus(strings.ToLower(strings.TrimSpace(q.Get("status")))),
		Limit:  50,
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 || limit > 200 {
			return filter, apperrors.NewValidationError("limit must be between 1 and 200")
		}
		filter.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return filter, apperrors.NewValidationError("offset must be a non-negative integer")
		}
		filter.Offset = offset
	}
	return filter, nil
}
