package schedule

// GenerateSlots tiles [start, end) with slots of durationMinutes and returns
// their start times in order. A trailing remainder shorter than one slot is
// dropped, so the last slot never runs past end.
func GenerateSlots(start, end Clock, durationMinutes int) []Clock {
	if durationMinutes <= 0 || end <= start {
		return nil
	}

	step := Clock(durationMinutes)
	slots := make([]Clock, 0, int(end-start)/durationMinutes)
	for current := start; current+step <= end; current += step {
		slots = append(slots, current)
	}
	return slots
}
