// Package calendar computes the visible day range of the tutor calendar and keeps its
// navigation state.
package calendar

import (
	"fmt"
	"time"
)

// Granularity is the calendar zoom level.
type Granularity int

const (
	Week Granularity = iota
	Day
)

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// ParseGranularity accepts "day" or "week".
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "day", "Day":
		return Day, nil
	case "week", "Week":
		return Week, nil
	}
	return Week, fmt.Errorf("unknown granularity %q", s)
}

// VisibleDay is one column of the calendar grid.
type VisibleDay struct {
	Name       string       // "Mon"
	DayOfMonth int          // 1-31
	Weekday    time.Weekday // numeric day of week, Sunday=0
	Date       time.Time    // start of the day in the anchor's location
	IsToday    bool
}

// SameDate reports whether t falls on the day's calendar date in the day's location.
func (d VisibleDay) SameDate(t time.Time) bool {
	return sameDate(d.Date, t.In(d.Date.Location()))
}

// StartOfWeek returns the start of the Monday on or before t, in t's location.
func StartOfWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	offset := weekday - 1
	if weekday == 0 {
		offset = 6
	}
	y, m, d := t.Date()
	return StartOfDay(y, m, d-offset, t.Location())
}

// WeekWindow returns the half-open Monday-to-Monday window containing t.
func WeekWindow(t time.Time) (start, end time.Time) {
	start = StartOfWeek(t)
	return start, addDays(start, 7)
}

// StartOfDay returns the first instant of the civil date y-m-d in loc. Out of range
// days normalize like time.Date. When a DST gap skips midnight the day starts at the
// first wall clock hour that exists.
func StartOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	y, m, d = time.Date(y, m, d, 12, 0, 0, 0, time.UTC).Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	for h := 1; h < 24 && t.Day() != d; h++ {
		t = time.Date(y, m, d, h, 0, 0, 0, loc)
	}
	return t
}

// VisibleDays lists the days rendered for anchor at the given granularity.
// The result depends only on its arguments.
func VisibleDays(anchor time.Time, g Granularity, now time.Time) []VisibleDay {
	if g == Day {
		return []VisibleDay{newVisibleDay(midnight(anchor), now)}
	}

	start := StartOfWeek(anchor)
	days := make([]VisibleDay, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, newVisibleDay(addDays(start, i), now))
	}
	return days
}

// RangeLabel renders the visible range, e.g. "Jun 17 – 23, 2024".
func RangeLabel(anchor time.Time, g Granularity) string {
	if g == Day {
		return anchor.Format("Monday, January 2, 2006")
	}

	start := StartOfWeek(anchor)
	end := addDays(start, 6)
	switch {
	case start.Year() == end.Year() && start.Month() == end.Month():
		return fmt.Sprintf("%s – %d, %d", start.Format("Jan 2"), end.Day(), end.Year())
	case start.Year() == end.Year():
		return fmt.Sprintf("%s – %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	default:
		return fmt.Sprintf("%s – %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	}
}

func newVisibleDay(date, now time.Time) VisibleDay {
	return VisibleDay{
		Name:       date.Weekday().String()[:3],
		DayOfMonth: date.Day(),
		Weekday:    date.Weekday(),
		Date:       date,
		IsToday:    sameDate(date, now.In(date.Location())),
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return StartOfDay(y, m, d, t.Location())
}

// addDays moves a day start n civil days, staying on day starts.
func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return StartOfDay(y, m, d+n, t.Location())
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
