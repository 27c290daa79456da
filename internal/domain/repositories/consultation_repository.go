package repositories

import (
	"context"

	"github.com/healthconnect/backend/internal/domain/entities"
)

// ConsultationRepository defines the interface for consultation data operations
type ConsultationRepository interface {
	// Create stores a new consultation
	Create(ctx context.Context, consultation *entities.Consultation) error

	// GetByID retrieves a consultation by ID
	GetByID(ctx context.Context, id string) (*entities.Consultation, error)

	// UpdateStatus moves a consultation to status if it is currently in one of from
	UpdateStatus(ctx context.Context, id string, status entities.ConsultationStatus, from ...entities.ConsultationStatus) error

	// ListByUser retrieves consultations booked by a user
	ListByUser(ctx context.Context, userID string, filter ConsultationFilter) ([]*entities.Consultation, error)

	// List retrieves consultations across all users
	List(ctx context.Context, filter ConsultationFilter) ([]*entities.Consultation, error)
}

// ConsultationFilter defines filters for listing consultations
type ConsultationFilter struct {
	Status entities.ConsultationStatus
	Limit  int
	Offset int
}
