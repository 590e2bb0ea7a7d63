package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/auth"
	"github.com/hackgods/clinic-booking/internal/schedule"
)

func weekStartParam(w http.ResponseWriter, r *http.Request, loc *time.Location) (time.Time, bool) {
	weekStart, err := parseDate(chi.URLParam(r, "weekStart"), loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_week_start", "weekStart must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return weekStart, true
}

func saveScheduleHandler(svc ScheduleService, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := requireIdentity(w, r)
		if !ok {
			return
		}
		doctorID, ok := uuidParam(w, r, "doctorID")
		if !ok {
			return
		}
		if !canActAsDoctor(caller, doctorID) {
			forbidden(w)
			return
		}
		weekStart, ok := weekStartParam(w, r, loc)
		if !ok {
			return
		}

		var req SaveScheduleRequest
		if !decodeBody(w, r, &req) {
			return
		}

		entries := make([]schedule.WorkScheduleEntry, 0, len(req.Entries))
		for _, e := range req.Entries {
			available := true
			if e.IsAvailable != nil {
				available = *e.IsAvailable
			}
			entries = append(entries, schedule.WorkScheduleEntry{
				DayOfWeek:           time.Weekday(e.DayOfWeek),
				Shift:               e.Shift,
				IsAvailable:         available,
				SlotDurationMinutes: e.SlotDurationMinutes,
			})
		}

		saved, err := svc.SaveWeek(r.Context(), doctorID, weekStart, entries)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponse(doctorID, weekStart, saved))
	}
}

func getScheduleHandler(svc ScheduleService, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, ok := uuidParam(w, r, "doctorID")
		if !ok {
			return
		}
		weekStart, ok := weekStartParam(w, r, loc)
		if !ok {
			return
		}

		entries, err := svc.GetWeek(r.Context(), doctorID, weekStart)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toScheduleResponse(doctorID, weekStart, entries))
	}
}

func listShiftsHandler(w http.ResponseWriter, r *http.Request) {
	shifts := schedule.Shifts()
	resp := make([]ShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		resp = append(resp, ShiftResponse{
			ID:    s.ID,
			Label: s.Label,
			Start: s.Start.String(),
			End:   s.End.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// canActAsDoctor allows the doctor themself and admins.
func canActAsDoctor(caller auth.Identity, doctorID uuid.UUID) bool {
	switch caller.Role {
	case auth.RoleAdmin:
		return true
	case auth.RoleDoctor:
		return caller.Subject == doctorID
	}
	return false
}
