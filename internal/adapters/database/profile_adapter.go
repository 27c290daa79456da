package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/repositories"
	"github.com/healthconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

const profilesTable = "profiles"

// ProfileAdapter implements the ProfileRepository interface
type ProfileAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProfileAdapter creates a new profile adapter
func NewProfileAdapter(client *postgres.Client) repositories.ProfileRepository {
	return &ProfileAdapter{
		client: client,
		db:     client.Goqu(),
	}
}

// GetByID retrieves a profile by user ID
func (a *ProfileAdapter) GetByID(ctx context.Context, id string) (*entities.Profile, error) {
	query, args, err := a.db.Select("id", "email", "role", "created_at", "updated_at").
		From(profilesTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	p := &entities.Profile{}
	var role sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Email, &role, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("profile with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get profile", err)
	}
	p.Role = role.String
	return p, nil
}

// Upsert inserts the profile or refreshes its email, never overwriting an assigned role
func (a *ProfileAdapter) Upsert(ctx context.Context, p *entities.Profile) error {
	query, args, err := a.db.Insert(profilesTable).
		Rows(goqu.Record{
			"id":         p.ID,
			"email":      p.Email,
			"role":       p.Role,
			"created_at": p.CreatedAt,
			"updated_at": p.UpdatedAt,
		}).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"email":      goqu.L("EXCLUDED.email"),
			"updated_at": goqu.L("EXCLUDED.updated_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert profile", err)
	}
	return nil
}
