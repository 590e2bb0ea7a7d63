package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-booking/internal/logging"
	"github.com/hackgods/clinic-booking/internal/schedule"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var serviceNames = []string{
	"General consultation",
	"Follow-up visit",
	"Blood panel",
	"ECG",
	"Vaccination",
}

func seedCmd() *cobra.Command {
	var (
		doctors  int
		patients int
		weeks    int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake doctors, patients, services and weekly schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, cfg, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := logging.New(cfg.Env, "seed")

			doctorIDs, err := seedDoctors(ctx, pool, doctors)
			if err != nil {
				return fmt.Errorf("seed doctors: %w", err)
			}
			logger.Info().Int("count", len(doctorIDs)).Msg("doctors seeded")

			if err := seedPatients(ctx, pool, patients); err != nil {
				return fmt.Errorf("seed patients: %w", err)
			}
			logger.Info().Int("count", patients).Msg("patients seeded")

			if err := seedServices(ctx, pool); err != nil {
				return fmt.Errorf("seed services: %w", err)
			}

			svc := schedule.NewService(schedule.NewPgRepository(pool), schedule.Policy{
				MinShiftsRequired: cfg.MinShiftsRequired,
				MinEveningShifts:  cfg.MinEveningShifts,
			}, nil, logger)

			first := schedule.WeekStart(time.Now().In(cfg.Location))
			for _, doctorID := range doctorIDs {
				for w := 0; w < weeks; w++ {
					weekStart := first.AddDate(0, 0, 7*w)
					if _, err := svc.SaveWeek(ctx, doctorID, weekStart, defaultWeek()); err != nil {
						return fmt.Errorf("seed schedule for %s: %w", doctorID, err)
					}
				}
			}
			logger.Info().Int("weeks", weeks).Msg("schedules seeded")

			return nil
		},
	}

	cmd.Flags().IntVar(&doctors, "doctors", 20, "number of doctor profiles")
	cmd.Flags().IntVar(&patients, "patients", 500, "number of patients")
	cmd.Flags().IntVar(&weeks, "weeks", 2, "weeks of schedule per doctor, starting this week")

	return cmd
}

// defaultWeek is weekday mornings with evenings on Tuesday and Thursday,
// enough to pass the default coverage policy.
func defaultWeek() []schedule.WorkScheduleEntry {
	var entries []schedule.WorkScheduleEntry
	durations := schedule.AllowedSlotDurations
	for day := time.Monday; day <= time.Friday; day++ {
		entries = append(entries, schedule.WorkScheduleEntry{
			DayOfWeek:           day,
			Shift:               schedule.ShiftMorning,
			IsAvailable:         true,
			SlotDurationMinutes: durations[gofakeit.Number(0, len(durations)-1)],
		})
	}
	for _, day := range []time.Weekday{time.Tuesday, time.Thursday} {
		entries = append(entries, schedule.WorkScheduleEntry{
			DayOfWeek:           day,
			Shift:               schedule.ShiftEvening,
			IsAvailable:         true,
			SlotDurationMinutes: schedule.DefaultSlotDuration,
		})
	}
	return entries
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, count)
	rows := make([][]any, count)
	for i := range rows {
		ids[i] = uuid.New()
		rows[i] = []any{ids[i], "Dr. " + gofakeit.Name(), specialties[gofakeit.Number(0, len(specialties)-1)]}
	}

	_, err := pool.CopyFrom(ctx,
		pgx.Identifier{"doctor_profiles"},
		[]string{"id", "full_name", "specialty"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		rows := make([][]any, 0, end-offset)
		for i := offset; i < end; i++ {
			// suffix keeps emails unique across runs
			email := fmt.Sprintf("%s.%s@%s", gofakeit.Username(), uuid.NewString()[:8], gofakeit.DomainName())
			rows = append(rows, []any{uuid.New(), gofakeit.Name(), email, gofakeit.Phone()})
		}

		_, err := pool.CopyFrom(ctx,
			pgx.Identifier{"patients"},
			[]string{"id", "full_name", "email", "phone"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	batch := &pgx.Batch{}
	for _, name := range serviceNames {
		batch.Queue(`
			INSERT INTO services (id, name)
			SELECT $1, $2
			WHERE NOT EXISTS (SELECT 1 FROM services WHERE name = $2)
		`, uuid.New(), name)
	}
	return pool.SendBatch(ctx, batch).Close()
}
