package entities

import (
	"time"
)

// ConsultationStatus represents the review state of a consultation booking
type ConsultationStatus string

const (
	ConsultationStatusPending   ConsultationStatus = "pending"
	ConsultationStatusConfirmed ConsultationStatus = "confirmed"
	ConsultationStatusRejected  ConsultationStatus = "rejected"
	ConsultationStatusCompleted ConsultationStatus = "completed"
	ConsultationStatusCancelled ConsultationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s ConsultationStatus) Valid() bool {
	switch s {
	case ConsultationStatusPending, ConsultationStatusConfirmed, ConsultationStatusRejected,
		ConsultationStatusCompleted, ConsultationStatusCancelled:
		return true
	}
	return false
}

// Consultation is a booked healthcare consultation
type Consultation struct {
	ID                   string             `json:"id" db:"id"`
	UserID               string             `json:"user_id" db:"user_id"`
	PatientName          string             `json:"patient_name" db:"patient_name"`
	Email                string             `json:"email" db:"email"`
	Phone                string             `json:"phone" db:"phone"`
	DateOfBirth          string             `json:"date_of_birth,omitempty" db:"date_of_birth"`
	ConsultationType     string             `json:"consultation_type" db:"consultation_type"`
	PreferredDate        string             `json:"preferred_date" db:"preferred_date"`
	PreferredTime        string             `json:"preferred_time" db:"preferred_time"`
	Symptoms             string             `json:"symptoms,omitempty" db:"symptoms"`
	MedicalHistory       string             `json:"medical_history,omitempty" db:"medical_history"`
	EmergencyContact     string             `json:"emergency_contact,omitempty" db:"emergency_contact"`
	PaymentMethod        string             `json:"payment_method,omitempty" db:"payment_method"`
	ConsultationFee      int64              `json:"consultation_fee" db:"consultation_fee"`
	ConsultationDuration string             `json:"consultation_duration" db:"consultation_duration"`
	Status               ConsultationStatus `json:"status" db:"status"`
	BookingReference     string             `json:"booking_reference" db:"booking_reference"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}

// ConsultationType is one entry of the bookable consultation catalog
type ConsultationType struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"duration_minutes"`
	Duration        string `json:"duration"`
	FeeNaira        int64  `json:"fee"`
	Currency        string `json:"currency"`
}

// ConsultationTypes is the catalog offered to patients.
var ConsultationTypes = []ConsultationType{
	{ID: "general", Name: "General Consultation", Description: "General health checkup and consultation", DurationMinutes: 30, Duration: "30 minutes", FeeNaira: 60000, Currency: "NGN"},
	{ID: "specialist", Name: "Specialist Consultation", Description: "Consultation with medical specialists", DurationMinutes: 45, Duration: "45 minutes", FeeNaira: 150000, Currency: "NGN"},
	{ID: "mental-health", Name: "Mental Health Counseling", Description: "Psychology and mental health support", DurationMinutes: 60, Duration: "60 minutes", FeeNaira: 80000, Currency: "NGN"},
	{ID: "emergency", Name: "Emergency Consultation", Description: "Urgent medical consultation", DurationMinutes: 20, Duration: "20 minutes", FeeNaira: 50000, Currency: "NGN"},
}

// FindConsultationType looks up a catalog entry by id.
func FindConsultationType(id string) (ConsultationType, bool) {
	for _, t := range ConsultationTypes {
		if t.ID == id {
			return t, true
		}
	}
	return ConsultationType{}, false
}

// ConsultationTimeSlots are the bookable start times.
var ConsultationTimeSlots = []string{
	"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM", "11:00 AM", "11:30 AM",
	"12:00 PM", "12:30 PM", "02:00 PM", "02:30 PM", "03:00 PM", "03:30 PM",
	"04:00 PM", "04:30 PM", "05:00 PM", "05:30 PM",
}

// ValidTimeSlot reports whether slot is one of ConsultationTimeSlots.
func ValidTimeSlot(slot string) bool {
	for _, s := range ConsultationTimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Accepted payment methods.
const (
	PaymentMethodCard      = "card"
	PaymentMethodInsurance = "insurance"
)

// ValidPaymentMethod reports whether m is an accepted payment method.
func ValidPaymentMethod(m string) bool {
	return m == PaymentMethodCard || m == PaymentMethodInsurance
}

// BookingRequest is the data collected by the four step booking wizard.
type BookingRequest struct {
	PatientName      string `json:"patient_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	DateOfBirth      string `json:"date_of_birth"`
	ConsultationType string `json:"consultation_type"`
	PreferredDate    string `json:"preferred_date"`
	PreferredTime    string `json:"preferred_time"`
	Symptoms         string `json:"symptoms"`
	MedicalHistory   string `json:"medical_history"`
	EmergencyContact string `json:"emergency_contact"`
	PaymentMethod    string `json:"payment_method"`
}

// Wizard steps.
const (
	BookingStepService      = 1
	BookingStepPersonalInfo = 2
	BookingStepSchedule     = 3
	BookingStepConfirmation = 4
)

// PreferredDateLayout is the accepted format of PreferredDate.
const PreferredDateLayout = "2006-01-02"
