package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/schedule"
)

type ScheduleEntryRequest struct {
	DayOfWeek           int    `json:"day_of_week"`
	Shift               string `json:"shift"`
	IsAvailable         *bool  `json:"is_available,omitempty"` // defaults to true
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

type SaveScheduleRequest struct {
	Entries []ScheduleEntryRequest `json:"entries"`
}

type ScheduleEntryResponse struct {
	DayOfWeek           int    `json:"day_of_week"`
	Shift               string `json:"shift"`
	IsAvailable         bool   `json:"is_available"`
	SlotDurationMinutes int    `json:"slot_duration_minutes"`
}

type ScheduleResponse struct {
	DoctorProfileID uuid.UUID               `json:"doctor_profile_id"`
	WeekStart       string                  `json:"week_start"`
	Entries         []ScheduleEntryResponse `json:"entries"`
}

type AvailabilityResponse struct {
	DoctorProfileID uuid.UUID                      `json:"doctor_profile_id"`
	Date            string                         `json:"date"`
	Slots           []appointment.SlotAvailability `json:"slots"`
}

type ShiftResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type CreateAppointmentRequest struct {
	DoctorProfileID     string   `json:"doctor_profile_id"`
	PatientID           string   `json:"patient_id,omitempty"` // admins only; patients book for themselves
	AppointmentDatetime string   `json:"appointment_datetime"`
	ServiceIDs          []string `json:"service_ids,omitempty"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type AppointmentResponse struct {
	ID                  uuid.UUID   `json:"id"`
	DoctorProfileID     uuid.UUID   `json:"doctor_profile_id"`
	PatientID           uuid.UUID   `json:"patient_id"`
	AppointmentDatetime time.Time   `json:"appointment_datetime"`
	Status              string      `json:"status"`
	CancellationReason  *string     `json:"cancellation_reason,omitempty"`
	ServiceIDs          []uuid.UUID `json:"service_ids"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

type ErrorResponse struct {
	Error            string `json:"error"`
	Details          string `json:"details,omitempty"`
	Field            string `json:"field,omitempty"`
	ShortfallTotal   *int   `json:"shortfall_total,omitempty"`
	ShortfallEvening *int   `json:"shortfall_evening,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment, loc *time.Location) AppointmentResponse {
	serviceIDs := a.ServiceIDs
	if serviceIDs == nil {
		serviceIDs = []uuid.UUID{}
	}
	return AppointmentResponse{
		ID:                  a.ID,
		DoctorProfileID:     a.DoctorID,
		PatientID:           a.PatientID,
		AppointmentDatetime: a.Datetime.In(loc),
		Status:              string(a.Status),
		CancellationReason:  a.CancellationReason,
		ServiceIDs:          serviceIDs,
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func toScheduleResponse(doctorID uuid.UUID, weekStart time.Time, entries []schedule.WorkScheduleEntry) ScheduleResponse {
	resp := ScheduleResponse{
		DoctorProfileID: doctorID,
		WeekStart:       weekStart.Format(time.DateOnly),
		Entries:         make([]ScheduleEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, ScheduleEntryResponse{
			DayOfWeek:           int(e.DayOfWeek),
			Shift:               e.Shift,
			IsAvailable:         e.IsAvailable,
			SlotDurationMinutes: e.SlotDurationMinutes,
		})
	}
	return resp
}
