package connector

import "time"

// NextRun returns the next scheduled export after now, or false when the
// schedule is disabled.
//
//   - hourly: the next occurrence of the configured minute
//   - daily: today at the configured time, or tomorrow if already passed
//   - weekly: the next Monday at the configured time (today if it is Monday
//     and the time has not passed)
func NextRun(freq Frequency, at TimeOfDay, now time.Time) (time.Time, bool) {
	switch freq {
	case FrequencyHourly:
		next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), at.Minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(time.Hour)
		}
		return next, true

	case FrequencyDaily:
		next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour, at.Minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
		return next, true

	case FrequencyWeekly:
		daysUntilMonday := (int(time.Monday) - int(now.Weekday()) + 7) % 7
		next := time.Date(now.Year(), now.Month(), now.Day()+daysUntilMonday, at.Hour, at.Minute, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
		return next, true
	}
	return time.Time{}, false
}
