package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/healthconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps an error to its HTTP status. Errors that are not
// AppErrors are logged and reported as 500 without their details.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := statusFor(appErr.Type)
	if status >= http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Str("error_type", string(appErr.Type)).Msg("request failed")
	}

	message := appErr.Message
	if appErr.Type == apperrors.ErrorTypeInternal {
		message = "internal server error"
	}
	respondWithJSON(w, status, map[string]string{
		"error": message,
		"code":  string(appErr.Type),
	})
}

func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound, apperrors.ErrorTypeLocationNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeForbidden, apperrors.ErrorTypeLocationDenied:
		return http.StatusForbidden
	case apperrors.ErrorTypeLocationTimeout:
		return http.StatusRequestTimeout
	case apperrors.ErrorTypeLocationUnavailable:
		return http.StatusUnprocessableEntity
	case apperrors.ErrorTypeGeocodingFailed, apperrors.ErrorTypeSearchFailed, apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v); err != nil {
		return apperrors.NewValidationError("invalid request body")
	}
	return nil
}
