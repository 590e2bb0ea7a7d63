package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/schedule"
)

type ScheduleService interface {
	SaveWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time, entries []schedule.WorkScheduleEntry) ([]schedule.WorkScheduleEntry, error)
	GetWeek(ctx context.Context, doctorID uuid.UUID, weekStart time.Time) ([]schedule.WorkScheduleEntry, error)
}

type AppointmentService interface {
	Location() *time.Location
	GetAvailability(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]appointment.SlotAvailability, error)
	CreateBooking(ctx context.Context, req appointment.BookingRequest) (*appointment.Appointment, error)
	CancelBooking(ctx context.Context, appointmentID, patientID uuid.UUID, reason string) (*appointment.Appointment, error)
	CancelByDoctor(ctx context.Context, appointmentID, doctorID uuid.UUID, reason string) (*appointment.Appointment, error)
	ConfirmAppointment(ctx context.Context, appointmentID, doctorID uuid.UUID) (*appointment.Appointment, error)
	CompleteAppointment(ctx context.Context, appointmentID, doctorID uuid.UUID) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]appointment.Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]appointment.Appointment, error)
}

type RouterConfig struct {
	Schedules    ScheduleService
	Appointments AppointmentService
	Tokens       TokenParser
	Checks       []Check
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	loc := cfg.Appointments.Location()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// A bearer token is optional everywhere but must be valid when sent.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Tokens))

		// public: the shift catalog and open slots
		r.Get("/shifts", listShiftsHandler)
		r.Get("/doctors/{doctorID}/availability", availabilityHandler(cfg.Appointments))

		// everything else needs an identity
		r.Group(func(r chi.Router) {
			r.Use(RequireIdentityMiddleware)

			r.Get("/doctors/{doctorID}/schedule/{weekStart}", getScheduleHandler(cfg.Schedules, loc))
			r.Put("/doctors/{doctorID}/schedule/{weekStart}", saveScheduleHandler(cfg.Schedules, loc))

			r.Route("/appointments", func(r chi.Router) {
				r.Post("/", createAppointmentHandler(cfg.Appointments))
				r.Get("/", listAppointmentsHandler(cfg.Appointments))
				r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
				r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))
				r.Post("/{id}/confirm", statusHandler(cfg.Appointments, confirmAppointment))
				r.Post("/{id}/complete", statusHandler(cfg.Appointments, completeAppointment))
			})
		})
	})

	return r
}
