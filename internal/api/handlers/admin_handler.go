package handlers

import (
	"context"
	"net/http"

	"github.com/healthconnect/backend/internal/application/services"
	"github.com/healthconnect/backend/internal/domain/entities"
)

// AdminHandler handles consultation review endpoints. Routes are admin only.
type AdminHandler struct {
	service *services.ConsultationService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(service *services.ConsultationService) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListConsultations handles GET /api/admin/consultations?status=...
func (h *AdminHandler) ListConsultations(w http.ResponseWriter, r *http.Request) {
	filter, err := parseConsultationFilter(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	consultations, err := h.service.ListAll(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"consultations": consultations,
		"count":         len(consultations),
	})
}

// Approve handles POST /api/admin/consultations/{id}/approve
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Approve)
}

// Reject handles POST /api/admin/consultations/{id}/reject
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reject)
}

// Complete handles POST /api/admin/consultations/{id}/complete
func (h *AdminHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

func (h *AdminHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, string) (*entities.Consultation, error)) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "consultation id is required")
		return
	}

	consultation, err := apply(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, consultation)
}
