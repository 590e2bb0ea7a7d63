package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/validation"
)

// -- Mock Repository --

type weekKey struct {
	doctor uuid.UUID
	week   string
}

type mockRepo struct {
	mu       sync.Mutex
	weeks    map[weekKey][]WorkScheduleEntry
	failNext error
}

func newMockRepo() *mockRepo {
	return &mockRepo{weeks: make(map[weekKey][]WorkScheduleEntry)}
}

func (m *mockRepo) key(doctorID uuid.UUID, weekStart time.Time) weekKey {
	return weekKey{doctor: doctorID, week: weekStart.Format(time.DateOnly)}
}

func (m *mockRepo) GetWeek(_ context.Context, doctorID uuid.UUID, weekStart time.Time) ([]WorkScheduleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]WorkScheduleEntry{}, m.weeks[m.key(doctorID, weekStart)]...)
	return out, nil
}

func (m *mockRepo) ReplaceWeek(_ context.Context, doctorID uuid.UUID, weekStart time.Time, entries []WorkScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.weeks[m.key(doctorID, weekStart)] = append([]WorkScheduleEntry{}, entries...)
	return nil
}

type recordingHook struct {
	calls []weekKey
}

func (h *recordingHook) WeekChanged(_ context.Context, doctorID uuid.UUID, weekStart time.Time) {
	h.calls = append(h.calls, weekKey{doctor: doctorID, week: weekStart.Format(time.DateOnly)})
}

func newTestService() (*Service, *mockRepo, *recordingHook) {
	repo := newMockRepo()
	hook := &recordingHook{}
	return NewService(repo, DefaultPolicy(), hook, zerolog.Nop()), repo, hook
}

var testMonday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

// -- Tests --

func TestSaveWeek_PolicyViolation(t *testing.T) {
	svc, repo, hook := newTestService()
	doctor := uuid.New()

	_, err := svc.SaveWeek(context.Background(), doctor, testMonday, weekEntries(4, 1))

	var pv *PolicyViolation
	if !errors.As(err, &pv) {
		t.Fatalf("expected PolicyViolation, got %v", err)
	}
	if pv.ShortfallTotal != 1 || pv.ShortfallEvening != 1 {
		t.Errorf("expected shortfall 1/1, got %d/%d", pv.ShortfallTotal, pv.ShortfallEvening)
	}
	if len(repo.weeks) != 0 {
		t.Error("rejected week must not be persisted")
	}
	if len(hook.calls) != 0 {
		t.Error("hook must not fire for a rejected week")
	}
}

func TestSaveWeek_ReplacesPriorEntries(t *testing.T) {
	svc, _, hook := newTestService()
	ctx := context.Background()
	doctor := uuid.New()

	first := weekEntries(5, 2)
	first = append(first, WorkScheduleEntry{DayOfWeek: time.Saturday, Shift: ShiftAfternoon, IsAvailable: true, SlotDurationMinutes: 60})
	if _, err := svc.SaveWeek(ctx, doctor, testMonday, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second := []WorkScheduleEntry{
		{DayOfWeek: time.Monday, Shift: ShiftEvening, IsAvailable: true, SlotDurationMinutes: 20},
		{DayOfWeek: time.Tuesday, Shift: ShiftEvening, IsAvailable: true, SlotDurationMinutes: 20},
		{DayOfWeek: time.Wednesday, Shift: ShiftAfternoon, IsAvailable: true, SlotDurationMinutes: 20},
		{DayOfWeek: time.Thursday, Shift: ShiftAfternoon, IsAvailable: true, SlotDurationMinutes: 20},
		{DayOfWeek: time.Friday, Shift: ShiftAfternoon, IsAvailable: true, SlotDurationMinutes: 20},
	}
	if _, err := svc.SaveWeek(ctx, doctor, testMonday, second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := svc.GetWeek(ctx, doctor, testMonday)
	if err != nil {
		t.Fatalf("get week: %v", err)
	}
	if len(got) != len(second) {
		t.Fatalf("expected %d entries, got %d", len(second), len(got))
	}
	for _, e := range got {
		if e.Shift == ShiftMorning || e.DayOfWeek == time.Saturday {
			t.Errorf("stale entry survived replacement: %+v", e)
		}
		if e.DoctorID != doctor || !e.WeekStart.Equal(testMonday) {
			t.Errorf("entry not stamped with doctor/week: %+v", e)
		}
	}
	if len(hook.calls) != 2 {
		t.Errorf("expected hook per save, got %d", len(hook.calls))
	}
}

func TestSaveWeek_RejectsNonMonday(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.SaveWeek(context.Background(), uuid.New(), testMonday.AddDate(0, 0, 2), weekEntries(5, 2))
	if !errors.Is(err, ErrWeekNotNormalized) {
		t.Fatalf("expected ErrWeekNotNormalized, got %v", err)
	}

	_, err = svc.GetWeek(context.Background(), uuid.New(), testMonday.Add(time.Hour))
	if !errors.Is(err, ErrWeekNotNormalized) {
		t.Fatalf("expected ErrWeekNotNormalized, got %v", err)
	}
}

func TestSaveWeek_DefaultsDurationForUnavailable(t *testing.T) {
	svc, _, _ := newTestService()

	entries := weekEntries(5, 2)
	entries = append(entries, WorkScheduleEntry{DayOfWeek: time.Sunday, Shift: ShiftMorning, IsAvailable: false})

	saved, err := svc.SaveWeek(context.Background(), uuid.New(), testMonday, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last := saved[len(saved)-1]; last.SlotDurationMinutes != DefaultSlotDuration {
		t.Errorf("expected default duration, got %d", last.SlotDurationMinutes)
	}
}

func TestSaveWeek_InvalidEntry(t *testing.T) {
	svc, _, _ := newTestService()

	entries := weekEntries(5, 2)
	entries[2].SlotDurationMinutes = 50

	_, err := svc.SaveWeek(context.Background(), uuid.New(), testMonday, entries)
	if _, ok := validation.As(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSaveWeek_StoreFailureLeavesPriorWeek(t *testing.T) {
	svc, repo, hook := newTestService()
	ctx := context.Background()
	doctor := uuid.New()

	if _, err := svc.SaveWeek(ctx, doctor, testMonday, weekEntries(5, 2)); err != nil {
		t.Fatalf("first save: %v", err)
	}

	repo.failNext = fmt.Errorf("connection reset")
	if _, err := svc.SaveWeek(ctx, doctor, testMonday, weekEntries(6, 3)); err == nil {
		t.Fatal("expected store error")
	}

	got, _ := svc.GetWeek(ctx, doctor, testMonday)
	if len(got) != 5 {
		t.Errorf("expected the prior 5 entries to remain, got %d", len(got))
	}
	if len(hook.calls) != 1 {
		t.Errorf("hook must not fire for a failed save, got %d calls", len(hook.calls))
	}
}

func TestGetWeek_Empty(t *testing.T) {
	svc, _, _ := newTestService()

	got, err := svc.GetWeek(context.Background(), uuid.New(), testMonday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty week, got %d entries", len(got))
	}
}
