package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WeekChangeHook is told after a doctor's week has been replaced, so derived
// data (cached availability) can be dropped.
type WeekChangeHook interface {
	WeekChanged(ctx context.Context, doctorID uuid.UUID, weekStart time.Time)
}

type Service struct {
	repo   Repository
	policy Policy
	hook   WeekChangeHook
	logger zerolog.Logger
}

func NewService(repo Repository, policy Policy, hook WeekChangeHook, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		hook:   hook,
		logger: logger,
	}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// SaveWeek validates a full week and, if it meets policy, replaces whatever
// the doctor had saved for that week.
func (s *Service) SaveWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time, entries []WorkScheduleEntry) ([]WorkScheduleEntry, error) {
	if !IsWeekStart(weekStart) {
		return nil, ErrWeekNotNormalized
	}

	normalized := make([]WorkScheduleEntry, len(entries))
	for i, e := range entries {
		e.DoctorID = doctorID
		e.WeekStart = weekStart
		if !e.IsAvailable && e.SlotDurationMinutes == 0 {
			e.SlotDurationMinutes = DefaultSlotDuration
		}
		normalized[i] = e
	}

	if err := ValidateEntries(normalized); err != nil {
		return nil, err
	}
	if err := s.policy.Validate(normalized); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceWeek(ctx, doctorID, weekStart, normalized); err != nil {
		return nil, fmt.Errorf("replace week: %w", err)
	}

	if s.hook != nil {
		s.hook.WeekChanged(ctx, doctorID, weekStart)
	}

	s.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("week_start", weekStart.Format(time.DateOnly)).
		Int("entries", len(normalized)).
		Msg("week schedule saved")

	return normalized, nil
}

func (s *Service) GetWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time) ([]WorkScheduleEntry, error) {
	if !IsWeekStart(weekStart) {
		return nil, ErrWeekNotNormalized
	}
	entries, err := s.repo.GetWeek(ctx, doctorID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("get week: %w", err)
	}
	return entries, nil
}
