package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
)

func availabilityHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := uuidParam(w, r, "doctorID")
		if !ok {
			return
		}

		date, err := parseDate(r.URL.Query().Get("date"), svc.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		slots, err := svc.GetAvailability(r.Context(), doctorID, date)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			DoctorProfileID: doctorID,
			Date:            date.Format(time.DateOnly),
			Slots:           slots,
		})
	}
}

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		var req CreateAppointmentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		doctorID, err := uuid.Parse(req.DoctorProfileID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_profile_id", "doctor_profile_id must be a valid UUID")
			return
		}

		var patientID uuid.UUID
		switch caller.Role {
		case auth.RolePatient:
			patientID = caller.Subject
			if req.PatientID != "" && req.PatientID != caller.Subject.String() {
				forbidden(w)
				return
			}
		case auth.RoleAdmin:
			patientID, err = uuid.Parse(req.PatientID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
		default:
			forbidden(w)
			return
		}

		datetime, err := parseDatetime(req.AppointmentDatetime, svc.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_datetime", err.Error())
			return
		}

		serviceIDs := make([]uuid.UUID, 0, len(req.ServiceIDs))
		for _, raw := range req.ServiceIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_service_ids", fmt.Sprintf("service id %q is not a valid UUID", raw))
				return
			}
			serviceIDs = append(serviceIDs, id)
		}

		appt, err := svc.CreateBooking(r.Context(), appointment.BookingRequest{
			DoctorID:   doctorID,
			PatientID:  patientID,
			Datetime:   datetime,
			ServiceIDs: serviceIDs,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt, svc.Location()))
	}
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}

		limit, err := queryInt(r, "limit", 20)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
			return
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_offset", err.Error())
			return
		}

		var appts []appointment.Appointment
		switch caller.Role {
		case auth.RolePatient:
			appts, err = svc.ListAppointmentsByPatient(r.Context(), caller.Subject, limit, offset)
		case auth.RoleDoctor:
			appts, err = svc.ListAppointmentsByDoctor(r.Context(), caller.Subject, limit, offset)
		default:
			q := r.URL.Query()
			if id, perr := uuid.Parse(q.Get("patient_id")); perr == nil {
				appts, err = svc.ListAppointmentsByPatient(r.Context(), id, limit, offset)
			} else if id, perr := uuid.Parse(q.Get("doctor_id")); perr == nil {
				appts, err = svc.ListAppointmentsByDoctor(r.Context(), id, limit, offset)
			} else {
				writeError(w, http.StatusBadRequest, "missing_filter", "patient_id or doctor_id is required")
				return
			}
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i], svc.Location()))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if !canView(caller, appt) {
			writeServiceError(w, r, appointment.ErrAppointmentNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt, svc.Location()))
	}
}

// cancelAppointmentHandler applies the patient rules to patients. Doctors and
// admins cancel on the doctor's behalf, outside the patient time window.
func cancelAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		var req CancelAppointmentRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var (
			appt *appointment.Appointment
			err  error
		)
		switch caller.Role {
		case auth.RolePatient:
			appt, err = svc.CancelBooking(r.Context(), id, caller.Subject, req.Reason)
		case auth.RoleDoctor:
			appt, err = svc.CancelByDoctor(r.Context(), id, caller.Subject, req.Reason)
		case auth.RoleAdmin:
			var current *appointment.Appointment
			current, err = svc.GetAppointment(r.Context(), id)
			if err == nil {
				appt, err = svc.CancelByDoctor(r.Context(), id, current.DoctorID, req.Reason)
			}
		default:
			forbidden(w)
			return
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt, svc.Location()))
	}
}

type advanceFunc func(svc AppointmentService, r *http.Request, id, doctorID uuid.UUID) (*appointment.Appointment, error)

func confirmAppointment(svc AppointmentService, r *http.Request, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return svc.ConfirmAppointment(r.Context(), id, doctorID)
}

func completeAppointment(svc AppointmentService, r *http.Request, id, doctorID uuid.UUID) (*appointment.Appointment, error) {
	return svc.CompleteAppointment(r.Context(), id, doctorID)
}

// statusHandler serves the doctor driven transitions (confirm, complete).
func statusHandler(svc AppointmentService, advance advanceFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		id, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}

		var doctorID uuid.UUID
		switch caller.Role {
		case auth.RoleDoctor:
			doctorID = caller.Subject
		case auth.RoleAdmin:
			current, err := svc.GetAppointment(r.Context(), id)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			doctorID = current.DoctorID
		default:
			forbidden(w)
			return
		}

		appt, err := advance(svc, r, id, doctorID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt, svc.Location()))
	}
}

func canView(caller auth.Identity, appt *appointment.Appointment) bool {
	switch caller.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleDoctor:
		return appt.DoctorID == caller.Subject
	case auth.RolePatient:
		return appt.PatientID == caller.Subject
	}
	return false
}
