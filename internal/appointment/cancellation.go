package appointment

import (
	"strings"
	"time"

	"github.com/hackgods/clinic-booking/internal/validation"
)

const DefaultCancellationWindow = 2 * time.Hour

// CheckPatientCancellation decides whether a patient may cancel appt at now.
// Terminal appointments are rejected before the time window is considered.
func CheckPatientCancellation(appt *Appointment, now time.Time, reason string, window time.Duration) error {
	if strings.TrimSpace(reason) == "" {
		return validation.New("reason", "cancellation reason is required")
	}
	if appt.Status.Terminal() {
		return ErrAlreadyTerminal
	}
	if appt.Datetime.Sub(now) < window {
		return ErrTooLate
	}
	return nil
}
