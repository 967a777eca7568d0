package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"tutorcal/internal/grid"
	"tutorcal/internal/schedule"
)

// renderGrid prints the grid day by day, listing the events in start order.
func renderGrid(out io.Writer, label string, g *grid.Grid, loc *time.Location) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, label)

	for d, day := range g.Days {
		marker := ""
		if day.IsToday {
			marker = " (today)"
		}
		fmt.Fprintf(tw, "\n%s %d%s\n", day.Name, day.DayOfMonth, marker)

		empty := true
		for h := range g.Rows {
			for _, p := range g.Rows[h][d].Events {
				empty = false
				ev := p.Event
				id := ""
				if ev.BookingID != 0 {
					id = fmt.Sprintf("#%d", ev.BookingID)
				}
				fmt.Fprintf(tw, "  %s-%s\t%s\t%s\t%s\t%s\n",
					ev.Start.In(loc).Format("15:04"), ev.End.In(loc).Format("15:04"),
					ev.Title, ev.Subject, p.Style, id)
			}
		}
		if empty {
			fmt.Fprintln(tw, "  -")
		}
	}
	return tw.Flush()
}

// renderSchedule prints the weekly availability Monday first.
func renderSchedule(out io.Writer, timezone string, version int64, week schedule.Week) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Timezone: %s (version %d)\n", timezone, version)
	for i := 1; i <= 7; i++ {
		day := week[i%7]
		name := time.Weekday(day.Day).String()
		if !day.Enabled || len(day.Slots) == 0 {
			fmt.Fprintf(tw, "%s\tunavailable\n", name)
			continue
		}
		for j, s := range day.Slots {
			if j > 0 {
				name = ""
			}
			fmt.Fprintf(tw, "%s\t%s-%s\n", name, s.Start, s.End)
		}
	}
	return tw.Flush()
}
