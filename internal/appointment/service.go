package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/schedule"
)

// AvailabilityCache keeps resolved availability for a doctor's day. Misses and
// failures are both reported as a miss; the store stays the source of truth.
//
// A miss hands back the day's current version. Set stores the fill only if
// no Invalidate has changed that version since, so a fill computed from
// reads that raced with a write is dropped instead of cached.
type AvailabilityCache interface {
	Get(ctx context.Context, doctorID uuid.UUID, day time.Time) (slots []SlotAvailability, version string, ok bool)
	Set(ctx context.Context, doctorID uuid.UUID, day time.Time, version string, slots []SlotAvailability)
	Invalidate(ctx context.Context, doctorID uuid.UUID, day time.Time)
}

type Options struct {
	Location           *time.Location
	CancellationWindow time.Duration
	Now                func() time.Time
}

type Service struct {
	repo      Repository
	schedules schedule.Repository
	cache     AvailabilityCache
	loc       *time.Location
	window    time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

func NewService(repo Repository, schedules schedule.Repository, cache AvailabilityCache, opts Options, logger zerolog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:      repo,
		schedules: schedules,
		cache:     cache,
		loc:       opts.Location,
		window:    opts.CancellationWindow,
		now:       opts.Now,
		logger:    logger,
	}
}

// Location is the clinic timezone every date and slot is interpreted in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// startOfDay returns midnight of t's calendar date in the clinic timezone.
func (s *Service) startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

// offeredSlots loads the doctor's schedule for the week containing day and
// generates that weekday's slots.
func (s *Service) offeredSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]schedule.Slot, error) {
	entries, err := s.schedules.GetWeek(ctx, doctorID, schedule.WeekStart(day))
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return schedule.OfferedSlots(entries, day.Weekday()), nil
}

func (s *Service) invalidate(ctx context.Context, doctorID uuid.UUID, at time.Time) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, doctorID, s.startOfDay(at.In(s.loc)))
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appointments, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appointments, err := s.repo.ListByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return appointments, nil
}
