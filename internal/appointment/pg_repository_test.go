package appointment

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-booking/internal/db"
)

// Runs against a real database only when TEST_POSTGRES_DSN is set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.ConnectPostgres(ctx, dsn, db.PoolOptions{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := db.NewMigrator(pool).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return pool
}

func seedPeople(t *testing.T, pool *pgxpool.Pool) (doctor, patient uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	doctor, patient = uuid.New(), uuid.New()

	if _, err := pool.Exec(ctx, `INSERT INTO doctor_profiles (id, full_name) VALUES ($1, 'Dr. Test')`, doctor); err != nil {
		t.Fatalf("insert doctor: %v", err)
	}
	if _, err := pool.Exec(ctx, `INSERT INTO patients (id, full_name, email) VALUES ($1, 'Patient', $2)`,
		patient, patient.String()+"@example.test"); err != nil {
		t.Fatalf("insert patient: %v", err)
	}
	return doctor, patient
}

func TestPgRepository_UniqueActiveSlot(t *testing.T) {
	pool := testPool(t)
	repo := NewPgRepository(pool)
	doctor, patient := seedPeople(t, pool)
	ctx := context.Background()
	at := time.Now().Add(48 * time.Hour).Truncate(time.Hour)

	const racers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		taken   int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, &Appointment{DoctorID: doctor, PatientID: patient, Datetime: at, Status: StatusPending})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrSlotTaken):
				taken++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || taken != racers-1 {
		t.Fatalf("expected 1 created and %d taken, got %d/%d", racers-1, created, taken)
	}

	active, err := repo.ListActiveForDoctorBetween(ctx, doctor, at, at.Add(time.Minute))
	if err != nil || len(active) != 1 {
		t.Fatalf("expected one active appointment, got %d (%v)", len(active), err)
	}

	reason := "test"
	if _, err := repo.UpdateStatus(ctx, active[0].ID, sourcesOf(StatusCancelled), StatusCancelled, &reason); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := repo.Create(ctx, &Appointment{DoctorID: doctor, PatientID: patient, Datetime: at, Status: StatusPending}); err != nil {
		t.Fatalf("rebooking a cancelled slot should succeed: %v", err)
	}
}

func TestPgRepository_ForeignKeys(t *testing.T) {
	pool := testPool(t)
	repo := NewPgRepository(pool)
	doctor, patient := seedPeople(t, pool)
	ctx := context.Background()
	at := time.Now().Add(72 * time.Hour).Truncate(time.Hour)

	err := repo.Create(ctx, &Appointment{DoctorID: doctor, PatientID: uuid.New(), Datetime: at, Status: StatusPending})
	if !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected ErrPatientNotFound, got %v", err)
	}

	err = repo.Create(ctx, &Appointment{DoctorID: uuid.New(), PatientID: patient, Datetime: at, Status: StatusPending})
	if !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("expected ErrAppointmentNotFound, got %v", err)
	}
}
