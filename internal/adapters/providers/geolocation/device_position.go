package geolocation

import (
	"context"
	"fmt"
	"time"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/providers"
	apperrors "github.com/healthconnect/backend/pkg/errors"
	"github.com/healthconnect/backend/pkg/geo"
)

// ReportedPosition is a PositionSource backed by the fix a client reported with its request.
type ReportedPosition struct {
	fix entities.DeviceFix
	now func() time.Time
}

var _ providers.PositionSource = (*ReportedPosition)(nil)

// NewReportedPosition wraps a client-reported fix.
func NewReportedPosition(fix entities.DeviceFix) *ReportedPosition {
	return &ReportedPosition{fix: fix, now: time.Now}
}

// CurrentPosition translates the reported fix into coordinates or a location error.
func (p *ReportedPosition) CurrentPosition(ctx context.Context, opts entities.PositionOptions) (*entities.Coordinates, error) {
	if !p.fix.Supported {
		return nil, apperrors.NewLocationUnavailableError()
	}

	switch p.fix.ErrorCode {
	case "":
	case entities.PositionErrorPermissionDenied:
		return nil, apperrors.NewLocationDeniedError()
	case entities.PositionErrorTimeout:
		return nil, apperrors.NewLocationTimeoutError(fmt.Sprintf("no position fix within %s", opts.Timeout))
	default:
		return nil, apperrors.NewLocationTimeoutError("unable to get your location; please enter your location manually")
	}

	if p.fix.Latitude == nil || p.fix.Longitude == nil || !geo.ValidCoordinate(*p.fix.Latitude, *p.fix.Longitude) {
		return nil, apperrors.NewLocationTimeoutError("the device did not report a usable position")
	}

	if p.fix.Timestamp != nil && opts.MaximumAge > 0 {
		if age := p.now().Sub(*p.fix.Timestamp); age > opts.MaximumAge {
			return nil, apperrors.NewLocationTimeoutError(fmt.Sprintf("position fix is %s old, older than the accepted %s", age.Round(time.Second), opts.MaximumAge))
		}
	}

	return &entities.Coordinates{Latitude: *p.fix.Latitude, Longitude: *p.fix.Longitude}, nil
}
