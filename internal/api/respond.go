package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/schedule"
	"github.com/hackgods/clinic-booking/internal/validation"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// writeServiceError maps domain errors to status codes. Anything unknown is
// logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var violation *schedule.PolicyViolation
	if errors.As(err, &violation) {
		total, evening := violation.ShortfallTotal, violation.ShortfallEvening
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:            "policy_violation",
			Details:          violation.Error(),
			ShortfallTotal:   &total,
			ShortfallEvening: &evening,
		})
		return
	}
	if ve, ok := validation.As(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_error",
			Details: ve.Message,
			Field:   ve.Field,
		})
		return
	}

	switch {
	case errors.Is(err, appointment.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, appointment.ErrScheduleMismatch):
		writeError(w, http.StatusConflict, "schedule_mismatch", err.Error())
	case errors.Is(err, appointment.ErrDatetimeInPast):
		writeError(w, http.StatusUnprocessableEntity, "datetime_in_past", err.Error())
	case errors.Is(err, appointment.ErrTooLate):
		writeError(w, http.StatusConflict, "too_late", err.Error())
	case errors.Is(err, appointment.ErrAlreadyTerminal):
		writeError(w, http.StatusConflict, "already_terminal", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "appointment not found")
	case errors.Is(err, appointment.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrDoctorNotFound), errors.Is(err, schedule.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", "doctor not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// requireIdentity writes a 401 when the request carries no identity.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "a bearer token is required")
		return auth.Identity{}, false
	}
	return id, true
}

func forbidden(w http.ResponseWriter) {
	writeError(w, http.StatusForbidden, "forbidden", "not allowed for this caller")
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, s, loc)
}

var localDatetimeLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02T15:04:05"}

// parseDatetime accepts RFC 3339, or a wall clock time read in loc.
func parseDatetime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range localDatetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", s)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
