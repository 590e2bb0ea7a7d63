package schedule

import (
	"fmt"
	"strings"

	"github.com/hackgods/clinic-booking/internal/validation"
)

// Policy holds the weekly coverage minimums a schedule must meet before it is saved.
type Policy struct {
	MinShiftsRequired int
	MinEveningShifts  int
}

func DefaultPolicy() Policy {
	return Policy{MinShiftsRequired: 5, MinEveningShifts: 2}
}

// PolicyViolation says how many more shifts the doctor has to declare.
type PolicyViolation struct {
	ShortfallTotal   int
	ShortfallEvening int
}

func (v *PolicyViolation) Error() string {
	var parts []string
	if v.ShortfallTotal > 0 {
		parts = append(parts, fmt.Sprintf("%d more shift(s)", v.ShortfallTotal))
	}
	if v.ShortfallEvening > 0 {
		parts = append(parts, fmt.Sprintf("%d more evening shift(s)", v.ShortfallEvening))
	}
	return "schedule below minimum coverage: needs " + strings.Join(parts, " and ")
}

// Validate counts available entries only. It returns nil or a *PolicyViolation.
func (p Policy) Validate(entries []WorkScheduleEntry) error {
	total, evening := 0, 0
	for _, e := range entries {
		if !e.IsAvailable {
			continue
		}
		total++
		if e.Shift == EveningShift {
			evening++
		}
	}

	v := &PolicyViolation{}
	if total < p.MinShiftsRequired {
		v.ShortfallTotal = p.MinShiftsRequired - total
	}
	if evening < p.MinEveningShifts {
		v.ShortfallEvening = p.MinEveningShifts - evening
	}
	if v.ShortfallTotal == 0 && v.ShortfallEvening == 0 {
		return nil
	}
	return v
}

// ValidateEntries checks the shape of a candidate week: known shifts, valid
// weekdays, enumerated durations and at most one entry per day+shift.
func ValidateEntries(entries []WorkScheduleEntry) error {
	type key struct {
		day   int
		shift string
	}
	seen := make(map[key]bool, len(entries))

	for i, e := range entries {
		field := fmt.Sprintf("entries[%d]", i)
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			return validation.New(field+".day_of_week", "must be between 0 and 6, got %d", int(e.DayOfWeek))
		}
		if _, ok := LookupShift(e.Shift); !ok {
			return validation.New(field+".shift", "unknown shift %q", e.Shift)
		}
		if !IsAllowedSlotDuration(e.SlotDurationMinutes) {
			return validation.New(field+".slot_duration_minutes", "must be one of %v, got %d",
				AllowedSlotDurations, e.SlotDurationMinutes)
		}
		k := key{day: int(e.DayOfWeek), shift: e.Shift}
		if seen[k] {
			return validation.New(field, "duplicate entry for %s %s", e.DayOfWeek, e.Shift)
		}
		seen[k] = true
	}
	return nil
}
