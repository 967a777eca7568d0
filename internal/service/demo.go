package service

import (
	"time"

	"tutorcal/internal/model"
)

type demoSlot struct {
	day, hour, minute, minutes int
	title, subject             string
	typ                        model.EventType
	status                     string
}

var demoSlots = []demoSlot{
	{0, 10, 0, 60, "Anna K.", "Mathematics", model.EventWeekly, model.StatusConfirmed},
	{1, 14, 30, 30, "Ben L.", "Physics", model.EventTrial, model.StatusPending},
	{2, 9, 0, 90, "Chloe M.", "English", model.EventSingle, model.StatusConfirmed},
	{3, 16, 0, 60, "Anna K.", "Mathematics", model.EventWeekly, model.StatusConfirmed},
	{4, 12, 0, 120, "Time off", "", model.EventTimeOff, ""},
	{5, 11, 15, 45, "Open lesson", "Chemistry", model.EventPlatform, model.StatusConfirmed},
}

// DemoEvents returns sample events for the week starting at monday. Their IDs are
// negative so they can never reach the booking endpoints.
func DemoEvents(monday time.Time) []model.CalendarEvent {
	y, m, d := monday.Date()
	out := make([]model.CalendarEvent, 0, len(demoSlots))
	for i, s := range demoSlots {
		start := time.Date(y, m, d+s.day, s.hour, s.minute, 0, 0, monday.Location())
		out = append(out, model.CalendarEvent{
			ID:      -int64(i + 1),
			Title:   s.title,
			Start:   start,
			End:     start.Add(time.Duration(s.minutes) * time.Minute),
			Type:    s.typ,
			Status:  s.status,
			Subject: s.subject,
		})
	}
	return out
}

// IsDemoID reports whether id belongs to a demo event.
func IsDemoID(id int64) bool {
	return id < 0
}
