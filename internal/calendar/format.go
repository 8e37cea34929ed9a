package calendar

import (
	"fmt"
	"time"
)

var deWeekdays = map[time.Weekday]string{
	time.Monday:    "Montag",
	time.Tuesday:   "Dienstag",
	time.Wednesday: "Mittwoch",
	time.Thursday:  "Donnerstag",
	time.Friday:    "Freitag",
	time.Saturday:  "Samstag",
	time.Sunday:    "Sonntag",
}

// FormatRangeForUser renders a range in German, e.g. "Dienstag, 03.06.2025, 10:00–12:00".
// Ranges spanning several days print both dates. If loc != nil the bounds are converted first.
func FormatRangeForUser(tr TimeRange, loc *time.Location) string {
	start := tr.Start
	end := tr.End

	if loc != nil {
		start = start.In(loc)
		end = end.In(loc)
	}

	if sameDay(start, end) {
		return fmt.Sprintf("%s, %s, %s–%s",
			deWeekdays[start.Weekday()],
			start.Format("02.01.2006"),
			start.Format("15:04"),
			end.Format("15:04"),
		)
	}

	return fmt.Sprintf("%s, %s – %s, %s",
		deWeekdays[start.Weekday()],
		start.Format("02.01.2006 15:04"),
		deWeekdays[end.Weekday()],
		end.Format("02.01.2006 15:04"),
	)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
