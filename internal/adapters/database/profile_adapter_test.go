package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthconnect/backend/internal/domain/entities"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

func TestProfileAdapter_GetByID(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewProfileAdapter(client)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT "id", "email", "role", "created_at", "updated_at" FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "created_at", "updated_at"}).
			AddRow("u-1", "admin@example.com", "admin", now, now))

	p, err := adapter.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAdmin, p.Role)
}

func TestProfileAdapter_GetByID_NotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewProfileAdapter(client)

	mock.ExpectQuery(`FROM "profiles"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "role", "created_at", "updated_at"}))

	_, err := adapter.GetByID(context.Background(), "u-404")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestProfileAdapter_UpsertKeepsRole(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewProfileAdapter(client)
	now := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO "profiles" (.+) ON CONFLICT \(id\) DO UPDATE SET "email"=EXCLUDED.email,"updated_at"=EXCLUDED.updated_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Upsert(context.Background(), &entities.Profile{ID: "u-1", Email: "a@example.com", Role: entities.RoleUser, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
