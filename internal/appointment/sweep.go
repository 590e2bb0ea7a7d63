package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const staleReason = "not confirmed before appointment time"

// CancelStalePending cancels pending appointments whose time passed more than
// grace ago without the doctor confirming them. It is meant for the sweeper.
func (s *Service) CancelStalePending(ctx context.Context, grace time.Duration) (int, error) {
	stale, err := s.repo.FindStalePending(ctx, s.now().Add(-grace))
	if err != nil {
		return 0, fmt.Errorf("find stale pending appointments: %w", err)
	}

	reason := staleReason
	cancelled := 0
	for _, appt := range stale {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, []AppointmentStatus{StatusPending}, StatusCancelled, &reason)
		if err != nil {
			if !errors.Is(err, ErrAppointmentNotFound) {
				s.logger.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to cancel stale appointment")
			}
			continue
		}
		s.invalidate(ctx, appt.DoctorID, appt.Datetime)
		cancelled++
	}

	return cancelled, nil
}
