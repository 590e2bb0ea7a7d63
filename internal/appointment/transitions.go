package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/validation"
)

// CancelBooking cancels a patient's own appointment, subject to the
// cancellation window. Someone else's appointment reads as not found.
func (s *Service) CancelBooking(ctx context.Context, appointmentID, patientID uuid.UUID, reason string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.PatientID != patientID {
		// patients never learn about appointments that are not theirs
		return nil, ErrAppointmentNotFound
	}

	if err := CheckPatientCancellation(appt, s.now(), reason, s.window); err != nil {
		return nil, err
	}

	return s.cancel(ctx, appt, reason, "patient")
}

// CancelByDoctor lets the treating doctor cancel without the patient's time window.
func (s *Service) CancelByDoctor(ctx context.Context, appointmentID, doctorID uuid.UUID, reason string) (*Appointment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validation.New("reason", "cancellation reason is required")
	}

	appt, err := s.loadForDoctor(ctx, appointmentID, doctorID)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, ErrAlreadyTerminal
	}

	return s.cancel(ctx, appt, reason, "doctor")
}

func (s *Service) cancel(ctx context.Context, appt *Appointment, reason, by string) (*Appointment, error) {
	reason = strings.TrimSpace(reason)
	updated, err := s.repo.UpdateStatus(ctx, appt.ID, sourcesOf(StatusCancelled), StatusCancelled, &reason)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// moved to a terminal state after we loaded it
			return nil, ErrAlreadyTerminal
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.invalidate(ctx, updated.DoctorID, updated.Datetime)

	s.logger.Info().
		Str("appointment_id", updated.ID.String()).
		Str("cancelled_by", by).
		Msg("appointment cancelled")

	return updated, nil
}

// ConfirmAppointment moves a pending appointment to confirmed
func (s *Service) ConfirmAppointment(ctx context.Context, appointmentID, doctorID uuid.UUID) (*Appointment, error) {
	return s.advance(ctx, appointmentID, doctorID, StatusConfirmed)
}

// CompleteAppointment moves a confirmed appointment to completed
func (s *Service) CompleteAppointment(ctx context.Context, appointmentID, doctorID uuid.UUID) (*Appointment, error) {
	return s.advance(ctx, appointmentID, doctorID, StatusCompleted)
}

func (s *Service) advance(ctx context.Context, appointmentID, doctorID uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	appt, err := s.loadForDoctor(ctx, appointmentID, doctorID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(appt.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, []AppointmentStatus{appt.Status}, to, nil)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.invalidate(ctx, updated.DoctorID, updated.Datetime)

	s.logger.Info().
		Str("appointment_id", updated.ID.String()).
		Str("from", string(appt.Status)).
		Str("to", string(to)).
		Msg("appointment status changed")

	return updated, nil
}

func (s *Service) loadForDoctor(ctx context.Context, appointmentID, doctorID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.DoctorID != doctorID {
		return nil, ErrForbidden
	}
	return appt, nil
}
