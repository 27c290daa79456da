package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/healthconnect/backend/internal/domain/entities"
	"github.com/healthconnect/backend/internal/domain/repositories"
	"github.com/healthconnect/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/healthconnect/backend/pkg/errors"
)

const consultationsTable = "consultations"

var consultationColumns = []interface{}{
	"id", "user_id", "patient_name", "email", "phone", "date_of_birth",
	"consultation_type", "preferred_date", "preferred_time", "symptoms",
	"medical_history", "emergency_contact", "payment_method",
	"consultation_fee", "consultation_duration", "status", "booking_reference",
	"created_at", "updated_at",
}

// ConsultationAdapter implements the ConsultationRepository interface
type ConsultationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewConsultationAdapter creates a new consultation adapter
func NewConsultationAdapter(client *postgres.Client) repositories.ConsultationRepository {
	return &ConsultationAdapter{
		client: client,
		db:     client.Goqu(),
	}
}

// Create inserts a new consultation
func (a *ConsultationAdapter) Create(ctx context.Context, c *entities.Consultation) error {
	record := goqu.Record{
		"id":                    c.ID,
		"user_id":               c.UserID,
		"patient_name":          c.PatientName,
		"email":                 c.Email,
		"phone":                 c.Phone,
		"date_of_birth":         nullable(c.DateOfBirth),
		"consultation_type":     c.ConsultationType,
		"preferred_date":        c.PreferredDate,
		"preferred_time":        c.PreferredTime,
		"symptoms":              nullable(c.Symptoms),
		"medical_history":       nullable(c.MedicalHistory),
		"emergency_contact":     nullable(c.EmergencyContact),
		"payment_method":        nullable(c.PaymentMethod),
		"consultation_fee":      c.ConsultationFee,
		"consultation_duration": c.ConsultationDuration,
		"status":                string(c.Status),
		"booking_reference":     c.BookingReference,
		"created_at":            c.CreatedAt,
		"updated_at":            c.UpdatedAt,
	}

	query, args, err := a.db.Insert(consultationsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create consultation", err)
	}
	return nil
}

// GetByID retrieves a consultation by ID
func (a *ConsultationAdapter) GetByID(ctx context.Context, id string) (*entities.Consultation, error) {
	query, args, err := a.db.Select(consultationColumns...).
		From(consultationsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	c, err := scanConsultation(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consultation with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get consultation", err)
	}
	return c, nil
}

// UpdateStatus sets status when the consultation currently has one of the from statuses.
// A consultation in any other status yields a CONFLICT error.
func (a *ConsultationAdapter) UpdateStatus(ctx context.Context, id string, status entities.ConsultationStatus, from ...entities.ConsultationStatus) error {
	where := goqu.Ex{"id": id}
	if len(from) > 0 {
		allowed := make([]string, len(from))
		for i, s := range from {
			allowed[i] = string(s)
		}
		where["status"] = allowed
	}

	query, args, err := a.db.Update(consultationsTable).
		Set(goqu.Record{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).
		Where(where).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update consultation status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	current, err := a.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.NewConflictError(fmt.Sprintf("consultation is %s and cannot become %s", current.Status, status))
}

// ListByUser retrieves consultations booked by a user, newest first
func (a *ConsultationAdapter) ListByUser(ctx context.Context, userID string, filter repositories.ConsultationFilter) ([]*entities.Consultation, error) {
	return a.list(ctx, goqu.Ex{"user_id": userID}, filter)
}

// List retrieves consultations across all users, newest first
func (a *ConsultationAdapter) List(ctx context.Context, filter repositories.ConsultationFilter) ([]*entities.Consultation, error) {
	return a.list(ctx, goqu.Ex{}, filter)
}

func (a *ConsultationAdapter) list(ctx context.Context, where goqu.Ex, filter repositories.ConsultationFilter) ([]*entities.Consultation, error) {
	if filter.Status != "" {
		where["status"] = string(filter.Status)
	}

	ds := a.db.Select(consultationColumns...).From(consultationsTable).Order(goqu.I("created_at").Desc())
	if len(where) > 0 {
		ds = ds.Where(where)
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list consultations", err)
	}
	defer rows.Close()

	consultations := make([]*entities.Consultation, 0)
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan consultation", err)
		}
		consultations = append(consultations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate consultations", err)
	}
	return consultations, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultation(row rowScanner) (*entities.Consultation, error) {
	c := &entities.Consultation{}
	var status string
	var dateOfBirth, symptoms, medicalHistory, emergencyContact, paymentMethod sql.NullString

	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.PatientName,
		&c.Email,
		&c.Phone,
		&dateOfBirth,
		&c.ConsultationType,
		&c.PreferredDate,
		&c.PreferredTime,
		&symptoms,
		&medicalHistory,
		&emergencyContact,
		&paymentMethod,
		&c.ConsultationFee,
		&c.ConsultationDuration,
		&status,
		&c.BookingReference,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = entities.ConsultationStatus(status)
	c.DateOfBirth = dateOfBirth.String
	c.Symptoms = symptoms.String
	c.MedicalHistory = medicalHistory.String
	c.EmergencyContact = emergencyContact.String
	c.PaymentMethod = paymentMethod.String
	return c, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
