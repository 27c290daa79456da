package repositories

import (
	"context"

	"github.com/healthconnect/backend/internal/domain/entities"
)

// ProfileRepository stores user profiles and their roles
type ProfileRepository interface {
	// GetByID returns the profile or a NOT_FOUND AppError
	GetByID(ctx context.Context, id string) (*entities.Profile, error)

	// Upsert inserts the profile, leaving an existing role untouched
	Upsert(ctx context.Context, profile *entities.Profile) error
}
