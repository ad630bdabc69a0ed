// internal/app/system/tasks/schedule.go
package tasks

import "time"

// NextWeeklyRun returns the next Monday 00:00 UTC strictly after now.
func NextWeeklyRun(now time.Time) time.Time {
	now = now.UTC()
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// NextMonthlyRun returns the next first-of-month 00:00 UTC strictly after now.
func NextMonthlyRun(now time.Time) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}
