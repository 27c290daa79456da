package handlers

import (
	"net/http"

	"github.com/healthconnect/backend/internal/api/middleware"
)

// Me handles GET /api/me and returns the caller with the role the server resolved.
func Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":       principal.UserID,
		"email":    principal.Email,
		"role":     principal.Role,
		"is_admin": principal.IsAdmin(),
	})
}
