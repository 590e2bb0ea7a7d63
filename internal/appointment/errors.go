package appointment

import "errors"

var (
	// ErrSlotTaken is the booking conflict: the caller should refresh
	// availability and pick another slot rather than retry the same one.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrScheduleMismatch means the requested datetime is not a slot the doctor offers.
	ErrScheduleMismatch = errors.New("requested time is not an offered slot")

	ErrDatetimeInPast = errors.New("appointment time is in the past")

	ErrTooLate         = errors.New("too close to appointment time to cancel")
	ErrAlreadyTerminal = errors.New("appointment is already completed or cancelled")

	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrForbidden                = errors.New("appointment belongs to another doctor")
)
