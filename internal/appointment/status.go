package appointment

// pending -> confirmed -> completed is driven by the doctor and only moves forward.
// pending|confirmed -> cancelled can be driven by either side.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// sourcesOf lists the states from which to is reachable.
func sourcesOf(to AppointmentStatus) []AppointmentStatus {
	var from []AppointmentStatus
	for _, s := range []AppointmentStatus{StatusPending, StatusConfirmed} {
		if CanTransition(s, to) {
			from = append(from, s)
		}
	}
	return from
}
