package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/validation"
)

var ErrDoctorNotFound = errors.New("doctor not found")

// ErrWeekNotNormalized is returned when a week key is not a canonical Monday.
var ErrWeekNotNormalized = validation.New("week_start", "must be the Monday that starts the week")

// Repository is the persistence boundary for weekly schedules. It performs no
// business validation beyond the week key.
type Repository interface {
	GetWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time) ([]WorkScheduleEntry, error)

	// ReplaceWeek swaps every entry of doctor/week for entries as one atomic unit.
	ReplaceWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time, entries []WorkScheduleEntry) error
}
