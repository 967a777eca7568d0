// Package export writes the calendar grid and the weekly availability to a spreadsheet.
package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tutorcal/internal/grid"
	"tutorcal/internal/model"
	"tutorcal/internal/schedule"
)

const (
	CalendarSheet     = "Calendar"
	AvailabilitySheet = "Availability"
)

// Workbook is the data rendered into one export.
type Workbook struct {
	Label    string
	Grid     *grid.Grid
	Schedule schedule.Week
	Timezone string
	// Location formats event times; nil means UTC.
	Location *time.Location
}

// Write renders the workbook as xlsx. The calendar sheet has one row per hour and one
// column per visible day; each cell lists the events starting in that hour.
func Write(out io.Writer, wb Workbook) error {
	w := newSheetWriter()
	defer w.close()

	if err := writeCalendar(w, wb); err != nil {
		return err
	}
	if err := writeAvailability(w, wb); err != nil {
		return err
	}
	return w.save(out)
}

// WriteFile is Write to a path.
func WriteFile(path string, wb Workbook) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, wb); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeCalendar(w *sheetWriter, wb Workbook) error {
	if err := w.addSheet(CalendarSheet); err != nil {
		return err
	}
	if err := w.writeRow(wb.Label); err != nil {
		return err
	}
	if wb.Grid == nil {
		return nil
	}

	header := []string{"Time"}
	for _, d := range wb.Grid.Days {
		header = append(header, fmt.Sprintf("%s %d", d.Name, d.DayOfMonth))
	}
	if err := w.writeHeader(header...); err != nil {
		return err
	}

	for h, row := range wb.Grid.Rows {
		values := []any{fmt.Sprintf("%02d:00", wb.Grid.FirstHour+h)}
		for _, cell := range row {
			values = append(values, cellText(cell, wb.Location))
		}
		if err := w.writeRow(values...); err != nil {
			return err
		}
	}
	if last, err := excelize.ColumnNumberToName(len(wb.Grid.Days) + 1); err == nil {
		w.setColumnWidth("B", last, 24)
	}
	return nil
}

func writeAvailability(w *sheetWriter, wb Workbook) error {
	if err := w.addSheet(AvailabilitySheet); err != nil {
		return err
	}
	if err := w.writeRow("Timezone", wb.Timezone); err != nil {
		return err
	}
	if err := w.writeHeader("Day", "Start", "End"); err != nil {
		return err
	}
	// Monday first, like the calendar.
	for i := 1; i <= 7; i++ {
		day := wb.Schedule[i%7]
		if !day.Enabled {
			continue
		}
		for _, s := range day.Slots {
			if err := w.writeRow(time.Weekday(day.Day).String(), s.Start, s.End); err != nil {
				return err
			}
		}
	}
	return nil
}

func cellText(c grid.Cell, loc *time.Location) string {
	lines := make([]string, 0, len(c.Events))
	for _, p := range c.Events {
		lines = append(lines, eventLine(p.Event, loc))
	}
	return strings.Join(lines, "\n")
}

func eventLine(ev model.CalendarEvent, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	line := fmt.Sprintf("%s-%s %s", ev.Start.In(loc).Format("15:04"), ev.End.In(loc).Format("15:04"), ev.Title)
	if ev.Subject != "" {
		line += " (" + ev.Subject + ")"
	}
	if ev.IsPending() {
		line += " [pending]"
	}
	return line
}
