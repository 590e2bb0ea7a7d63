package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/schedule"
	"github.com/hackgods/clinic-booking/internal/validation"
)

// CreateBooking reserves a slot for a patient. The doctor+datetime uniqueness
// is enforced by the store's unique index at insert time, so two concurrent
// requests for the same slot resolve to one success and one ErrSlotTaken.
func (s *Service) CreateBooking(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if req.DoctorID == uuid.Nil {
		return nil, validation.New("doctor_profile_id", "is required")
	}
	if req.PatientID == uuid.Nil {
		return nil, validation.New("patient_id", "is required")
	}
	if req.Datetime.IsZero() {
		return nil, validation.New("datetime", "is required")
	}
	for i, id := range req.ServiceIDs {
		if id == uuid.Nil {
			return nil, validation.New(fmt.Sprintf("service_ids[%d]", i), "must be a valid id")
		}
	}

	// 1. not in the past
	if req.Datetime.Before(s.now()) {
		return nil, ErrDatetimeInPast
	}

	// 2. an offered slot of that weekday
	local := req.Datetime.In(s.loc)
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return nil, ErrScheduleMismatch
	}
	slots, err := s.offeredSlots(ctx, req.DoctorID, s.startOfDay(local))
	if err != nil {
		return nil, err
	}
	if !containsSlot(slots, schedule.ClockOf(local)) {
		return nil, ErrScheduleMismatch
	}

	// 3. atomic check-and-insert
	appt := &Appointment{
		ID:         uuid.New(),
		DoctorID:   req.DoctorID,
		PatientID:  req.PatientID,
		Datetime:   local,
		Status:     StatusPending,
		ServiceIDs: req.ServiceIDs,
	}
	if err := s.repo.Create(ctx, appt); err != nil {
		if errors.Is(err, ErrSlotTaken) || errors.Is(err, ErrPatientNotFound) || errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.invalidate(ctx, appt.DoctorID, appt.Datetime)

	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("doctor_id", appt.DoctorID.String()).
		Str("patient_id", appt.PatientID.String()).
		Time("datetime", appt.Datetime).
		Msg("appointment booked")

	return appt, nil
}

func containsSlot(slots []schedule.Slot, at schedule.Clock) bool {
	for _, slot := range slots {
		if slot.Start == at {
			return true
		}
	}
	return false
}
