package schedule

import (
	"time"

	"tutorcal/internal/model"
)

// Covers reports whether [start, end) lies inside a single rule once both instants are
// expressed in loc. Spans crossing midnight are never covered.
func Covers(rules []model.WeeklyAvailabilityRule, start, end time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	start, end = start.In(loc), end.In(loc)
	if !end.After(start) {
		return false
	}

	from := start.Format("15:04")
	to := end.Format("15:04")
	if !sameDay(start, end) {
		// Ending exactly at midnight still counts as the same day.
		if !sameDay(start, end.Add(-time.Nanosecond)) || to != "00:00" {
			return false
		}
		to = "24:00"
	}

	for _, r := range rules {
		if r.DayOfWeek != int(start.Weekday()) {
			continue
		}
		if TrimSeconds(r.StartTime) <= from && to <= TrimSeconds(r.EndTime) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
