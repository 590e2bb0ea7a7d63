package appointment

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID                 uuid.UUID
	DoctorID           uuid.UUID
	PatientID          uuid.UUID
	Datetime           time.Time
	Status             AppointmentStatus
	CancellationReason *string
	ServiceIDs         []uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SlotAvailability is one generated slot of a doctor's day and whether it is taken.
type SlotAvailability struct {
	Time     string `json:"time"`
	Shift    string `json:"shift"`
	IsBooked bool   `json:"is_booked"`
}

type BookingRequest struct {
	DoctorID   uuid.UUID
	PatientID  uuid.UUID
	Datetime   time.Time
	ServiceIDs []uuid.UUID
}

