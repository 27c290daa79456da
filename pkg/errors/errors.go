package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data or state
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates a missing or invalid credential
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeForbidden indicates an authenticated caller without the required role
	ErrorTypeForbidden ErrorType = "FORBIDDEN"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// Hospital search failures.
	ErrorTypeLocationDenied      ErrorType = "LOCATION_DENIED"
	ErrorTypeLocationTimeout     ErrorType = "LOCATION_TIMEOUT"
	ErrorTypeLocationUnavailable ErrorType = "LOCATION_UNAVAILABLE"
	ErrorTypeLocationNotFound    ErrorType = "LOCATION_NOT_FOUND"
	ErrorTypeGeocodingFailed     ErrorType = "GEOCODING_FAILED"
	ErrorTypeSearchFailed        ErrorType = "SEARCH_FAILED"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an error of the given type.
func New(t ErrorType, message string, err error) *AppError {
	return &AppError{Type: t, Message: message, Err: err}
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of type t.
func IsType(err error, t ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return New(ErrorTypeNotFound, message, nil)
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return New(ErrorTypeValidation, message, nil)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return New(ErrorTypeConflict, message, nil)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return New(ErrorTypeUnauthorized, message, nil)
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *AppError {
	return New(ErrorTypeForbidden, message, nil)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return New(ErrorTypeInternal, message, err)
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return New(ErrorTypeExternal, message, err)
}

// NewLocationDeniedError is returned when the user refused the position request.
func NewLocationDeniedError() *AppError {
	return New(ErrorTypeLocationDenied, "location permission was denied; please enter your location manually", nil)
}

// NewLocationTimeoutError is returned when no usable position fix was obtained in time.
func NewLocationTimeoutError(message string) *AppError {
	return New(ErrorTypeLocationTimeout, message, nil)
}

// NewLocationUnavailableError is returned when the device has no geolocation capability.
func NewLocationUnavailableError() *AppError {
	return New(ErrorTypeLocationUnavailable, "geolocation is not supported by this device", nil)
}

// NewLocationNotFoundError is returned when geocoding produced no match.
func NewLocationNotFoundError(location string) *AppError {
	return New(ErrorTypeLocationNotFound, fmt.Sprintf("unable to find the location %q", location), nil)
}

// NewGeocodingFailedError wraps a geocoding transport failure.
func NewGeocodingFailedError(err error) *AppError {
	return New(ErrorTypeGeocodingFailed, "unable to find the specified location", err)
}

// NewSearchFailedError is returned when every facility provider failed.
func NewSearchFailedError(err error) *AppError {
	return New(ErrorTypeSearchFailed, "unable to fetch hospital data; please try again or check your connection", err)
}
