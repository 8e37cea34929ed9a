// Package aggregate holds derived scheduling figures: driving time budgets,
// maintenance due-soon windows and trip occupancy. Everything here is a pure
// function of its arguments; callers pass the current time explicitly.
package aggregate

import "time"

const day = 24 * time.Hour

// DaysUntil returns the ceiling of (target - now) in days.
// Past targets give zero or negative values. All day-granular figures in this
// package go through it.
func DaysUntil(target, now time.Time) int {
	d := target.Sub(now)
	days := d / day
	if d%day > 0 {
		days++
	}
	return int(days)
}

// dateOnly maps t to midnight UTC of its calendar date.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// weekStart returns the Monday of t's ISO week, as a date.
func weekStart(t time.Time) time.Time {
	date := dateOnly(t)
	offset := (int(date.Weekday()) + 6) % 7
	return date.AddDate(0, 0, -offset)
}
