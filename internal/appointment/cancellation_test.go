package appointment

import (
	"errors"
	"testing"
	"time"
)

func TestCheckPatientCancellation(t *testing.T) {
	now := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status AppointmentStatus
		in     time.Duration
		reason string
		want   error
	}{
		{"three hours out", StatusPending, 3 * time.Hour, "travel", nil},
		{"exactly at window", StatusConfirmed, 2 * time.Hour, "travel", nil},
		{"one hour out", StatusConfirmed, time.Hour, "travel", ErrTooLate},
		{"already passed", StatusPending, -time.Hour, "travel", ErrTooLate},
		{"completed far out", StatusCompleted, 48 * time.Hour, "travel", ErrAlreadyTerminal},
		{"cancelled far out", StatusCancelled, 48 * time.Hour, "travel", ErrAlreadyTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := &Appointment{Status: tt.status, Datetime: now.Add(tt.in)}
			err := CheckPatientCancellation(appt, now, tt.reason, DefaultCancellationWindow)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]AppointmentStatus{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusCompleted},
		{StatusConfirmed, StatusCancelled},
	}
	for _, p := range allowed {
		if !CanTransition(p[0], p[1]) {
			t.Errorf("%s -> %s should be allowed", p[0], p[1])
		}
	}

	denied := [][2]AppointmentStatus{
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusPending},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusConfirmed},
	}
	for _, p := range denied {
		if CanTransition(p[0], p[1]) {
			t.Errorf("%s -> %s should be denied", p[0], p[1])
		}
	}
}
