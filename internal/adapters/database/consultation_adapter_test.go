package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/repositories"
	"github.com/healthconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewFromDB(db), mock
}

func consultationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "patient_name", "email", "phone", "date_of_birth",
		"consultation_type", "preferred_date", "preferred_time", "symptoms",
		"medical_history", "emergency_contact", "payment_method",
		"consultation_fee", "consultation_duration", "status", "booking_reference",
		"created_at", "updated_at",
	})
}

func TestConsultationAdapter_Create(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewConsultationAdapter(client)

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO "consultations"`).WillReturnResult(sqlmock.NewResult(1, 1))

	err := adapter.Create(context.Background(), &entities.Consultation{
		ID:                   "c-1",
		UserID:               "u-1",
		PatientName:          "Ada Obi",
		Email:                "ada@example.com",
		Phone:                "+2348000000000",
		ConsultationType:     "general",
		PreferredDate:        "2026-11-02",
		PreferredTime:        "09:00 AM",
		ConsultationFee:      60000,
		ConsultationDuration: "30 minutes",
		Status:               entities.ConsultationStatusPending,
		BookingReference:     "HC-ABC123",
		CreatedAt:            now,
		UpdatedAt:            now,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultationAdapter_GetByID(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewConsultationAdapter(client)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM "consultations" WHERE \("id" = 'c-1'\)`).
		WillReturnRows(consultationRows().AddRow(
			"c-1", "u-1", "Ada Obi", "ada@example.com", "+2348000000000", nil,
			"specialist", "2026-11-02", "02:00 PM", "headache",
			nil, nil, "card",
			int64(150000), "45 minutes", "confirmed", "HC-ABC123",
			now, now,
		))

	c, err := adapter.GetByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, entities.ConsultationStatusConfirmed, c.Status)
	assert.Equal(t, "headache", c.Symptoms)
	assert.Empty(t, c.DateOfBirth)
	assert.Equal(t, int64(150000), c.ConsultationFee)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultationAdapter_GetByID_NotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewConsultationAdapter(client)

	mock.ExpectQuery(`SELECT (.+) FROM "consultations"`).WillReturnRows(consultationRows())

	_, err := adapter.GetByID(context.Background(), "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}

func TestConsultationAdapter_UpdateStatus(t *testing.T) {
	t.Run("allowed transition", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewConsultationAdapter(client)

		mock.ExpectExec(`UPDATE "consultations" SET (.+) WHERE \(\("id" = 'c-1'\) AND \("status" IN \('pending'\)\)\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.UpdateStatus(context.Background(), "c-1", entities.ConsultationStatusConfirmed, entities.ConsultationStatusPending)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wrong current status", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewConsultationAdapter(client)
		now := time.Now().UTC()

		mock.ExpectExec(`UPDATE "consultations"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM "consultations"`).
			WillReturnRows(consultationRows().AddRow(
				"c-1", "u-1", "Ada Obi", "ada@example.com", "+2348000000000", nil,
				"general", "2026-11-02", "09:00 AM", nil,
				nil, nil, nil,
				int64(60000), "30 minutes", "completed", "HC-ABC123",
				now, now,
			))

		err := adapter.UpdateStatus(context.Background(), "c-1", entities.ConsultationStatusConfirmed, entities.ConsultationStatusPending)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing consultation", func(t *testing.T) {
		client, mock := setupMockDB(t)
		adapter := NewConsultationAdapter(client)

		mock.ExpectExec(`UPDATE "consultations"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM "consultations"`).WillReturnRows(consultationRows())

		err := adapter.UpdateStatus(context.Background(), "nope", entities.ConsultationStatusCancelled)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestConsultationAdapter_ListByUser(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := NewConsultationAdapter(client)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM "consultations" WHERE (.+)"user_id" = 'u-1'(.+) ORDER BY "created_at" DESC LIMIT 20`).
		WillReturnRows(consultationRows().
			AddRow("c-2", "u-1", "Ada Obi", "ada@example.com", "1", nil, "general", "2026-11-03", "09:30 AM", nil, nil, nil, nil, int64(60000), "30 minutes", "pending", "HC-2", now, now).
			AddRow("c-1", "u-1", "Ada Obi", "ada@example.com", "1", nil, "general", "2026-11-02", "09:00 AM", nil, nil, nil, nil, int64(60000), "30 minutes", "cancelled", "HC-1", now, now))

	list, err := adapter.ListByUser(context.Background(), "u-1", repositories.ConsultationFilter{Limit: 20})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c-2", list[0].ID)
	assert.Equal(t, entities.ConsultationStatusCancelled, list[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
