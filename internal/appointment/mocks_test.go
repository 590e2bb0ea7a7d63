package appointment

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/schedule"
)

// -- Mock Repositories --

// mockRepo mirrors the store's partial unique index: a non-cancelled
// appointment owns its doctor+datetime pair.
type mockRepo struct {
	mu    sync.Mutex
	appts map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, appt *Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.appts {
		if a.DoctorID == appt.DoctorID && a.Datetime.Equal(appt.Datetime) && a.Status != StatusCancelled {
			return ErrSlotTaken
		}
	}

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	appt.CreatedAt = time.Now()
	appt.UpdatedAt = appt.CreatedAt
	cp := *appt
	m.appts[appt.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListActiveForDoctorBetween(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if a.DoctorID != doctorID || a.Status == StatusCancelled {
			continue
		}
		if a.Datetime.Before(from) || !a.Datetime.Before(to) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, from []AppointmentStatus, to AppointmentStatus, reason *string) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	matched := false
	for _, s := range from {
		if a.Status == s {
			matched = true
		}
	}
	if !matched {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	if reason != nil {
		r := *reason
		a.CancellationReason = &r
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) list(match func(a *Appointment) bool, limit, offset int) []Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Datetime.After(out[j].Datetime) })
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	return m.list(func(a *Appointment) bool { return a.PatientID == patientID }, limit, offset), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	return m.list(func(a *Appointment) bool { return a.DoctorID == doctorID }, limit, offset), nil
}

func (m *mockRepo) FindStalePending(_ context.Context, before time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.appts {
		if a.Status == StatusPending && a.Datetime.Before(before) {
			out = append(out, *a)
		}
	}
	return out, nil
}

// put stores an appointment as-is, bypassing booking checks.
func (m *mockRepo) put(a Appointment) *Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	m.appts[a.ID] = &a
	return &a
}

type mockScheduleRepo struct {
	mu    sync.Mutex
	weeks map[string][]schedule.WorkScheduleEntry
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{weeks: make(map[string][]schedule.WorkScheduleEntry)}
}

func scheduleKey(doctorID uuid.UUID, weekStart time.Time) string {
	return doctorID.String() + "/" + weekStart.Format(time.DateOnly)
}

func (m *mockScheduleRepo) GetWeek(_ context.Context, doctorID uuid.UUID, weekStart time.Time) ([]schedule.WorkScheduleEntry, error) {
	if !schedule.IsWeekStart(weekStart) {
		return nil, schedule.ErrWeekNotNormalized
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]schedule.WorkScheduleEntry{}, m.weeks[scheduleKey(doctorID, weekStart)]...), nil
}

func (m *mockScheduleRepo) ReplaceWeek(_ context.Context, doctorID uuid.UUID, weekStart time.Time, entries []schedule.WorkScheduleEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weeks[scheduleKey(doctorID, weekStart)] = append([]schedule.WorkScheduleEntry{}, entries...)
	return nil
}

type cacheKey struct {
	doctor uuid.UUID
	day    string
}

// mockCache versions each day the way the Redis cache does: Invalidate bumps
// the version and Set is dropped when it carries an older one.
type mockCache struct {
	mu          sync.Mutex
	data        map[cacheKey][]SlotAvailability
	versions    map[cacheKey]int
	hits        int
	stale       int
	invalidated []cacheKey
}

func newMockCache() *mockCache {
	return &mockCache{
		data:     make(map[cacheKey][]SlotAvailability),
		versions: make(map[cacheKey]int),
	}
}

func (c *mockCache) Get(_ context.Context, doctorID uuid.UUID, day time.Time) ([]SlotAvailability, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey{doctorID, day.Format(time.DateOnly)}
	v, ok := c.data[k]
	if ok {
		c.hits++
	}
	return v, strconv.Itoa(c.versions[k]), ok
}

func (c *mockCache) Set(_ context.Context, doctorID uuid.UUID, day time.Time, version string, slots []SlotAvailability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey{doctorID, day.Format(time.DateOnly)}
	if version != strconv.Itoa(c.versions[k]) {
		c.stale++
		return
	}
	c.data[k] = slots
}

func (c *mockCache) Invalidate(_ context.Context, doctorID uuid.UUID, day time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey{doctorID, day.Format(time.DateOnly)}
	delete(c.data, k)
	c.versions[k]++
	c.invalidated = append(c.invalidated, k)
}

// interleavingRepo runs during once, after the active appointments were read
// but before they are handed back, to land a write inside an availability fill.
type interleavingRepo struct {
	*mockRepo
	once   sync.Once
	during func()
}

func (r *interleavingRepo) ListActiveForDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	out, err := r.mockRepo.ListActiveForDoctorBetween(ctx, doctorID, from, to)
	if r.during != nil {
		r.once.Do(r.during)
	}
	return out, err
}
