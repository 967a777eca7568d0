// Package grid positions calendar events on the hour rows of the visible days.
package grid

import (
	"sort"
	"time"

	"tutorcal/internal/calendar"
	"tutorcal/internal/model"
)

// MinHeightPercent keeps events shorter than 20 minutes legible.
const MinHeightPercent = 20.0 / 60.0 * 100.0

// Options bounds the hour rows that are rendered. LastHour is inclusive.
type Options struct {
	FirstHour int
	LastHour  int
}

// DefaultOptions renders the whole day.
func DefaultOptions() Options {
	return Options{FirstHour: 0, LastHour: 23}
}

func (o Options) normalized() Options {
	if o.FirstHour < 0 || o.FirstHour > 23 {
		o.FirstHour = 0
	}
	if o.LastHour < o.FirstHour || o.LastHour > 23 {
		o.LastHour = 23
	}
	return o
}

// Placement is an event positioned inside a grid cell. Percentages are relative to the
// height of one hour row.
type Placement struct {
	Event                model.CalendarEvent
	DayIndex             int
	Hour                 int
	OffsetPercent        float64
	HeightPercent        float64
	DisplayHeightPercent float64
	Style                Style
}

// Cell is one (day, hour) slot of the grid.
type Cell struct {
	Day    calendar.VisibleDay
	Hour   int
	Events []Placement
}

// Grid is the rendered week or day: Rows[h][d] is hour FirstHour+h of Days[d].
type Grid struct {
	Days      []calendar.VisibleDay
	FirstHour int
	Rows      [][]Cell
}

// Cell returns the cell for a day index and an absolute hour, or nil if out of range.
func (g *Grid) Cell(dayIndex, hour int) *Cell {
	h := hour - g.FirstHour
	if h < 0 || h >= len(g.Rows) || dayIndex < 0 || dayIndex >= len(g.Days) {
		return nil
	}
	return &g.Rows[h][dayIndex]
}

// Placements flattens the grid in day, hour, start order.
func (g *Grid) Placements() []Placement {
	var out []Placement
	for d := range g.Days {
		for h := range g.Rows {
			out = append(out, g.Rows[h][d].Events...)
		}
	}
	return out
}

// FilterWeek keeps the events starting inside the Monday-Sunday week of anchor, with the
// week boundaries taken in loc.
func FilterWeek(events []model.CalendarEvent, anchor time.Time, loc *time.Location) []model.CalendarEvent {
	if loc == nil {
		loc = time.UTC
	}
	start, end := calendar.WeekWindow(anchor.In(loc))
	out := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Start.Before(start) && ev.Start.Before(end) {
			out = append(out, ev)
		}
	}
	return out
}

// Build places events into the cells of days. An event lands in the cell whose date
// equals the event's local start date and whose hour equals its local start hour.
// Events outside the visible days or hour rows are not placed.
func Build(days []calendar.VisibleDay, events []model.CalendarEvent, loc *time.Location, opts Options) *Grid {
	if loc == nil {
		loc = time.UTC
	}
	opts = opts.normalized()

	g := &Grid{Days: days, FirstHour: opts.FirstHour}
	for h := opts.FirstHour; h <= opts.LastHour; h++ {
		row := make([]Cell, len(days))
		for d := range days {
			row[d] = Cell{Day: days[d], Hour: h}
		}
		g.Rows = append(g.Rows, row)
	}

	sorted := append([]model.CalendarEvent(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	for _, ev := range sorted {
		start := ev.Start.In(loc)
		for d, day := range days {
			if !sameDate(day.Date, start) {
				continue
			}
			if cell := g.Cell(d, start.Hour()); cell != nil {
				cell.Events = append(cell.Events, Place(ev, d, loc))
			}
			break
		}
	}
	return g
}

// Place computes the vertical geometry of one event.
func Place(ev model.CalendarEvent, dayIndex int, loc *time.Location) Placement {
	if loc == nil {
		loc = time.UTC
	}
	start := ev.Start.In(loc)
	offset := float64(start.Minute()) / 60 * 100
	height := ev.Duration().Minutes() / 60 * 100
	if height < 0 {
		height = 0
	}
	display := height
	if display < MinHeightPercent {
		display = MinHeightPercent
	}
	return Placement{
		Event:                ev,
		DayIndex:             dayIndex,
		Hour:                 start.Hour(),
		OffsetPercent:        offset,
		HeightPercent:        height,
		DisplayHeightPercent: display,
		Style:                StyleFor(ev.Type, ev.Status),
	}
}

// sameDate compares calendar dates as written; t is already in the tutor's location.
func sameDate(cell, t time.Time) bool {
	cy, cm, cd := cell.Date()
	ty, tm, td := t.Date()
	return cy == ty && cm == tm && cd == td
}
