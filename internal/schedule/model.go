package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Clock is a wall clock time of day, in minutes since midnight.
type Clock int

func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ClockOf returns the time of day of t in t's own location.
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return ClockOf(t), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant at which day (any time on that date) reaches c, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, day.Location())
}

// ShiftDefinition is a named, fixed window of the clinic day.
type ShiftDefinition struct {
	ID    string
	Label string
	Start Clock
	End   Clock
}

const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftEvening   = "evening"
)

// EveningShift is the shift counted by the minimum-evening-shifts rule.
const EveningShift = ShiftEvening

var catalog = []ShiftDefinition{
	{ID: ShiftMorning, Label: "Morning", Start: NewClock(8, 0), End: NewClock(12, 0)},
	{ID: ShiftAfternoon, Label: "Afternoon", Start: NewClock(13, 0), End: NewClock(17, 0)},
	{ID: ShiftEvening, Label: "Evening", Start: NewClock(18, 0), End: NewClock(21, 0)},
}

// Shifts returns the catalog ordered by start time.
func Shifts() []ShiftDefinition {
	out := make([]ShiftDefinition, len(catalog))
	copy(out, catalog)
	return out
}

func LookupShift(id string) (ShiftDefinition, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return ShiftDefinition{}, false
}

// Slot durations a doctor may pick for a shift.
var AllowedSlotDurations = []int{15, 20, 30, 45, 60}

const DefaultSlotDuration = 30

func IsAllowedSlotDuration(minutes int) bool {
	for _, d := range AllowedSlotDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// WorkScheduleEntry is one doctor's declaration for one day+shift of one week.
type WorkScheduleEntry struct {
	DoctorID            uuid.UUID
	WeekStart           time.Time
	DayOfWeek           time.Weekday
	Shift               string
	IsAvailable         bool
	SlotDurationMinutes int
}

// WeekStart returns midnight of the Monday starting the ISO week containing t,
// in t's location.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// IsWeekStart reports whether t is already a canonical week start.
func IsWeekStart(t time.Time) bool {
	return !t.IsZero() && t.Equal(WeekStart(t))
}

// Slot is a bookable start time derived from a schedule entry.
type Slot struct {
	Start   Clock
	ShiftID string
}

// OfferedSlots returns the time ordered slots a doctor offers on weekday,
// given that week's entries. Unavailable entries and unknown shifts offer nothing.
func OfferedSlots(entries []WorkScheduleEntry, weekday time.Weekday) []Slot {
	var slots []Slot
	for _, e := range entries {
		if e.DayOfWeek != weekday || !e.IsAvailable {
			continue
		}
		def, ok := LookupShift(e.Shift)
		if !ok {
			continue
		}
		for _, start := range GenerateSlots(def.Start, def.End, e.SlotDurationMinutes) {
			slots = append(slots, Slot{Start: start, ShiftID: def.ID})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Start < slots[j].Start
	})
	return slots
}
