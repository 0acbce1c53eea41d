package scan

// debounce advances the anti-jitter state machine by one sample.
//
// A raw sample agreeing with the confirmed state rearms the latch. A
// disagreeing sample burns the latch down one step; only when the latch is
// already spent does the change confirm. With threshold T a flip therefore
// needs T+1 consecutive disagreeing samples, and any intervening agreement
// starts the count over.
func debounce(raw, active bool, latch, threshold uint8) (newActive bool, newLatch uint8, transitioned bool) {
	switch {
	case raw == active:
		return active, threshold, false
	case latch > 0:
		return active, latch - 1, false
	default:
		return raw, threshold, true
	}
}
