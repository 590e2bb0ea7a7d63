package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/schedule"
	"github.com/hackgods/clinic-booking/internal/validation"
)

// GetAvailability lists every slot the doctor offers on date's calendar day,
// marking the ones held by a non-cancelled appointment. A day without
// schedule entries yields an empty list, not an error.
func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]SlotAvailability, error) {
	if doctorID == uuid.Nil {
		return nil, validation.New("doctor_id", "is required")
	}
	if date.IsZero() {
		return nil, validation.New("date", "is required")
	}

	day := s.startOfDay(date)

	// version is read before the store so a write landing mid-fill is detected
	var version string
	if s.cache != nil {
		cached, v, ok := s.cache.Get(ctx, doctorID, day)
		if ok {
			return cached, nil
		}
		version = v
	}

	slots, err := s.offeredSlots(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}

	result := make([]SlotAvailability, 0, len(slots))
	if len(slots) > 0 {
		booked, err := s.bookedClocks(ctx, doctorID, day)
		if err != nil {
			return nil, err
		}
		for _, slot := range slots {
			result = append(result, SlotAvailability{
				Time:     slot.Start.String(),
				Shift:    slot.ShiftID,
				IsBooked: booked[slot.Start],
			})
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, doctorID, day, version, result)
	}

	return result, nil
}

// bookedClocks returns the times of day held on day by non-cancelled appointments.
func (s *Service) bookedClocks(ctx context.Context, doctorID uuid.UUID, day time.Time) (map[schedule.Clock]bool, error) {
	appts, err := s.repo.ListActiveForDoctorBetween(ctx, doctorID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	booked := make(map[schedule.Clock]bool, len(appts))
	for _, a := range appts {
		booked[schedule.ClockOf(a.Datetime.In(s.loc))] = true
	}
	return booked, nil
}
