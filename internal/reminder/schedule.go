package reminder

import "time"

// Waking window for the interval reminder, local hours [start, end).
const (
	wakingStartHour = 8
	wakingEndHour   = 22
)

// NextFixedFire computes the next occurrence of hour:minute strictly after
// now. A moment that has already passed today rolls forward exactly one day,
// never more, and never fires immediately.
func NextFixedFire(now time.Time, hour, minute int) time.Time {
	fireAt := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !fireAt.After(now) {
		fireAt = fireAt.Add(24 * time.Hour)
	}
	return fireAt
}

// InWakingWindow reports whether t falls inside the waking-hours window.
// Interval ticks outside it are dropped, not deferred.
func InWakingWindow(t time.Time) bool {
	h := t.Hour()
	return h >= wakingStartHour && h < wakingEndHour
}

// DateKey formats t as the ISO calendar date used to key suppression markers.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
