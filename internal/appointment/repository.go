package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Create inserts a pending appointment and its service selections. It
	// returns ErrSlotTaken when another non-cancelled appointment already holds
	// the doctor+datetime pair; the store enforces this, not the caller.
	Create(ctx context.Context, appt *Appointment) error

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// For availability
	ListActiveForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	// UpdateStatus moves id to status `to` only if it is currently in one of
	// `from`. ErrAppointmentNotFound means no row matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus, reason *string) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error)

	// Sweeper
	FindStalePending(ctx context.Context, before time.Time) ([]Appointment, error)
}
