package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/repositories"
	"github.com/healthconnect/backend/internal/infrastructure/observability"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

// ConsultationService handles booking and review of consultations
type ConsultationService struct {
	repo repositories.ConsultationRepository
	now  func() time.Time
}

// NewConsultationService creates a new consultation service
func NewConsultationService(repo repositories.ConsultationRepository) *ConsultationService {
	return &ConsultationService{
		repo: repo,
		now:  time.Now,
	}
}

// WithClock replaces the time source used for date checks and timestamps.
func (s *ConsultationService) WithClock(now func() time.Time) *ConsultationService {
	s.now = now
	return s
}

// ListTypes returns the consultation catalog.
func (s *ConsultationService) ListTypes() []entities.ConsultationType {
	return entities.ConsultationTypes
}

// ListTimeSlots returns the bookable start times.
func (s *ConsultationService) ListTimeSlots() []string {
	return entities.ConsultationTimeSlots
}

// ValidateStep checks the fields collected by one step of the booking wizard.
// Step 4 is the confirmation and checks everything.
func (s *ConsultationService) ValidateStep(step int, req *entities.BookingRequest) error {
	switch step {
	case entities.BookingStepService:
		if strings.TrimSpace(req.ConsultationType) == "" {
			return apperrors.NewValidationError("please select a consultation type to continue")
		}
		if _, ok := entities.FindConsultationType(req.ConsultationType); !ok {
			return apperrors.NewValidationError(fmt.Sprintf("unknown consultation type %q", req.ConsultationType))
		}
	case entities.BookingStepPersonalInfo:
		if strings.TrimSpace(req.PatientName) == "" || strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Phone) == "" {
			return apperrors.NewValidationError("please fill in all required personal information")
		}
		if !strings.Contains(req.Email, "@") {
			return apperrors.NewValidationError("email address is not valid")
		}
	case entities.BookingStepSchedule:
		if strings.TrimSpace(req.PreferredDate) == "" || strings.TrimSpace(req.PreferredTime) == "" {
			return apperrors.NewValidationError("please select your preferred date and time")
		}
		date, err := time.Parse(entities.PreferredDateLayout, req.PreferredDate)
		if err != nil {
			return apperrors.NewValidationError("preferred date must be formatted as YYYY-MM-DD")
		}
		now := s.now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if date.Before(today) {
			return apperrors.NewValidationError("preferred date cannot be in the past")
		}
		if !entities.ValidTimeSlot(req.PreferredTime) {
			return apperrors.NewValidationError(fmt.Sprintf("%q is not an available time slot", req.PreferredTime))
		}
	case entities.BookingStepConfirmation:
		for st := entities.BookingStepService; st < entities.BookingStepConfirmation; st++ {
			if err := s.ValidateStep(st, req); err != nil {
				return err
			}
		}
		if !entities.ValidPaymentMethod(req.PaymentMethod) {
			return apperrors.NewValidationError("please choose card or insurance as the payment method")
		}
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown booking step %d", step))
	}
	return nil
}

// Book validates the full request and stores a pending consultation for the caller.
func (s *ConsultationService) Book(ctx context.Context, principal *entities.Principal, req *entities.BookingRequest) (*entities.Consultation, error) {
	if principal == nil || principal.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to book a consultation")
	}
	if err := s.ValidateStep(entities.BookingStepConfirmation, req); err != nil {
		return nil, err
	}

	ct, _ := entities.FindConsultationType(req.ConsultationType)
	now := s.now().UTC()
	c := &entities.Consultation{
		ID:                   uuid.New().String(),
		UserID:               principal.UserID,
		PatientName:          strings.TrimSpace(req.PatientName),
		Email:                strings.TrimSpace(req.Email),
		Phone:                strings.TrimSpace(req.Phone),
		DateOfBirth:          req.DateOfBirth,
		ConsultationType:     ct.ID,
		PreferredDate:        req.PreferredDate,
		PreferredTime:        req.PreferredTime,
		Symptoms:             req.Symptoms,
		MedicalHistory:       req.MedicalHistory,
		EmergencyContact:     req.EmergencyContact,
		PaymentMethod:        req.PaymentMethod,
		ConsultationFee:      ct.FeeNaira,
		ConsultationDuration: ct.Duration,
		Status:               entities.ConsultationStatusPending,
		BookingReference:     uuid.New().String(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("consultation_id", c.ID).
		Str("user_id", c.UserID).
		Str("type", c.ConsultationType).
		Msg("consultation booked")
	return c, nil
}

// ListMine returns the caller's consultations, newest first.
func (s *ConsultationService) ListMine(ctx context.Context, principal *entities.Principal, filter repositories.ConsultationFilter) ([]*entities.Consultation, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, principal.UserID, filter)
}

// Cancel lets the owner withdraw a pending or confirmed consultation.
func (s *ConsultationService) Cancel(ctx context.Context, principal *entities.Principal, id string) (*entities.Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != principal.UserID {
		// Other users' bookings are reported as missing.
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consultation with id %s not found", id))
	}
	return s.transition(ctx, id, entities.ConsultationStatusCancelled,
		entities.ConsultationStatusPending, entities.ConsultationStatusConfirmed)
}

// ListAll returns consultations of every user for review.
func (s *ConsultationService) ListAll(ctx context.Context, filter repositories.ConsultationFilter) ([]*entities.Consultation, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// Approve confirms a pending consultation.
func (s *ConsultationService) Approve(ctx context.Context, id string) (*entities.Consultation, error) {
	return s.transition(ctx, id, entities.ConsultationStatusConfirmed, entities.ConsultationStatusPending)
}

// Reject declines a pending consultation.
func (s *ConsultationService) Reject(ctx context.Context, id string) (*entities.Consultation, error) {
	return s.transition(ctx, id, entities.ConsultationStatusRejected, entities.ConsultationStatusPending)
}

// Complete marks a confirmed consultation as held.
func (s *ConsultationService) Complete(ctx context.Context, id string) (*entities.Consultation, error) {
	return s.transition(ctx, id, entities.ConsultationStatusCompleted, entities.ConsultationStatusConfirmed)
}

func (s *ConsultationService) transition(ctx context.Context, id string, to entities.ConsultationStatus, from ...entities.ConsultationStatus) (*entities.Consultation, error) {
	if err := s.repo.UpdateStatus(ctx, id, to, from...); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("consultation_id", id).
		Str("status", string(to)).
		Msg("consultation status changed")
	return s.repo.GetByID(ctx, id)
}

func validateFilter(filter repositories.ConsultationFilter) error {
	if filter.Status != "" && !filter.Status.Valid() {
		return apperrors.NewValidationError(fmt.Sprintf("unknown status %q", filter.Status))
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return apperrors.NewValidationError("limit and offset must not be negative")
	}
	return nil
}
