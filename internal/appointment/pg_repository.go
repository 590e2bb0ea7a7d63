package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-booking/internal/validation"
)

const (
	// Partial unique index over (doctor_profile_id, appointment_datetime) WHERE status <> 'cancelled'.
	uniqueActiveSlotIndex = "appointments_doctor_datetime_active_key"

	patientForeignKey = "appointments_patient_id_fkey"
	doctorForeignKey  = "appointments_doctor_profile_id_fkey"
	serviceForeignKey = "appointment_services_service_id_fkey"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const appointmentColumns = `id, doctor_profile_id, patient_id, appointment_datetime, status, cancellation_reason, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var reason *string

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.Datetime,
		&a.Status,
		&reason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.CancellationReason = reason
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	defer rows.Close()

	result := []Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch {
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == uniqueActiveSlotIndex:
		return ErrSlotTaken
	case pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == patientForeignKey:
		return ErrPatientNotFound
	case pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == doctorForeignKey:
		return ErrDoctorNotFound
	case pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == serviceForeignKey:
		return validation.New("service_ids", "references an unknown service")
	}
	return err
}

// Interface methods

func (r *PgRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO appointments (id, doctor_profile_id, patient_id, appointment_datetime, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			RETURNING `+appointmentColumns,
			appt.ID, appt.DoctorID, appt.PatientID, appt.Datetime, appt.Status)

		created, err := scanAppointment(row)
		if err != nil {
			return mapInsertError(err)
		}

		if len(appt.ServiceIDs) > 0 {
			_, err = tx.CopyFrom(ctx,
				pgx.Identifier{"appointment_services"},
				[]string{"appointment_id", "service_id"},
				pgx.CopyFromSlice(len(appt.ServiceIDs), func(i int) ([]any, error) {
					return []any{created.ID, appt.ServiceIDs[i]}, nil
				}),
			)
			if err != nil {
				return fmt.Errorf("insert appointment services: %w", mapInsertError(err))
			}
		}

		created.ServiceIDs = appt.ServiceIDs
		*appt = *created
		return nil
	})
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT service_id FROM appointment_services WHERE appointment_id = $1 ORDER BY service_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sid uuid.UUID
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		appt.ServiceIDs = append(appt.ServiceIDs, sid)
	}

	return appt, rows.Err()
}

func (r *PgRepository) ListActiveForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_profile_id = $1
		  AND appointment_datetime >= $2
		  AND appointment_datetime < $3
		  AND status <> 'cancelled'
		ORDER BY appointment_datetime
	`, doctorID, from, to)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus, reason *string) (*Appointment, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    cancellation_reason = COALESCE($4, cancellation_reason),
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
		RETURNING `+appointmentColumns,
		id, to, allowed, reason)

	return scanAppointment(row)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_datetime DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_profile_id = $1
		ORDER BY appointment_datetime DESC
		LIMIT $2 OFFSET $3
	`, doctorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *PgRepository) FindStalePending(ctx context.Context, before time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'pending'
		  AND appointment_datetime < $1
	`, before)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}
