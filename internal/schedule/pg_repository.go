package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanEntry(row pgx.Row, weekStart time.Time) (WorkScheduleEntry, error) {
	var e WorkScheduleEntry
	var day, duration int16

	err := row.Scan(
		&e.DoctorID,
		&day,
		&e.Shift,
		&e.IsAvailable,
		&duration,
	)
	if err != nil {
		return WorkScheduleEntry{}, err
	}

	e.WeekStart = weekStart
	e.DayOfWeek = time.Weekday(day)
	e.SlotDurationMinutes = int(duration)
	return e, nil
}

func (r *PgRepository) GetWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time) ([]WorkScheduleEntry, error) {
	if !IsWeekStart(weekStart) {
		return nil, ErrWeekNotNormalized
	}

	rows, err := r.pool.Query(ctx, `
		SELECT doctor_profile_id, day_of_week, shift, is_available, slot_duration_minutes
		FROM work_schedule_entries
		WHERE doctor_profile_id = $1 AND week_start = $2
		ORDER BY day_of_week, shift
	`, doctorID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("query week: %w", err)
	}
	defer rows.Close()

	entries := []WorkScheduleEntry{}
	for rows.Next() {
		e, err := scanEntry(rows, weekStart)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *PgRepository) ReplaceWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time, entries []WorkScheduleEntry) error {
	if !IsWeekStart(weekStart) {
		return ErrWeekNotNormalized
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Serializes concurrent saves of the same doctor/week so neither sees a half-written set.
		lockKey := fmt.Sprintf("schedule:%s:%s", doctorID, weekStart.Format(time.DateOnly))
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
			return fmt.Errorf("lock week: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM work_schedule_entries
			WHERE doctor_profile_id = $1 AND week_start = $2
		`, doctorID, weekStart); err != nil {
			return fmt.Errorf("delete week: %w", err)
		}

		if len(entries) == 0 {
			return nil
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"work_schedule_entries"},
			[]string{"doctor_profile_id", "week_start", "day_of_week", "shift", "is_available", "slot_duration_minutes"},
			pgx.CopyFromSlice(len(entries), func(i int) ([]any, error) {
				e := entries[i]
				return []any{doctorID, weekStart, int16(e.DayOfWeek), e.Shift, e.IsAvailable, int16(e.SlotDurationMinutes)}, nil
			}),
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrDoctorNotFound
			}
			return fmt.Errorf("insert week: %w", err)
		}
		return nil
	})
}
