package entities

import "time"

// PositionOptions mirrors the options of a one-shot device position request.
type PositionOptions struct {
	EnableHighAccuracy bool          `json:"enable_high_accuracy"`
	Timeout            time.Duration `json:"timeout"`
	MaximumAge         time.Duration `json:"maximum_age"`
}

// DefaultPositionOptions asks for a high accuracy fix within 15s, accepting one cached for up to 5 minutes.
func DefaultPositionOptions() PositionOptions {
	return PositionOptions{
		EnableHighAccuracy: true,
		Timeout:            15 * time.Second,
		MaximumAge:         5 * time.Minute,
	}
}

// Position error codes reported by a device geolocation capability.
const (
	PositionErrorPermissionDenied    = "PERMISSION_DENIED"
	PositionErrorPositionUnavailable = "POSITION_UNAVAILABLE"
	PositionErrorTimeout             = "TIMEOUT"
)

// DeviceFix is what a client reports about its own geolocation attempt.
type DeviceFix struct {
	// Supported is false when the client has no geolocation capability at all.
	Supported bool       `json:"supported"`
	Latitude  *float64   `json:"lat,omitempty"`
	Longitude *float64   `json:"lng,omitempty"`
	Accuracy  float64    `json:"accuracy,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	ErrorCode string     `json:"error_code,omitempty"`
}
