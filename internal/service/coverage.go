package service

import (
	"time"

	"tutorcal/internal/model"
	"tutorcal/internal/schedule"
)

// OutsideAvailability lists lesson events that no weekly rule covers. Time off and
// platform events are not lessons and are skipped. The result is informational only.
func OutsideAvailability(evs []model.CalendarEvent, rules []model.WeeklyAvailabilityRule, loc *time.Location) []model.CalendarEvent {
	var out []model.CalendarEvent
	for _, ev := range evs {
		if ev.Type == model.EventTimeOff || ev.Type == model.EventPlatform {
			continue
		}
		if !schedule.Covers(rules, ev.Start, ev.End, loc) {
			out = append(out, ev)
		}
	}
	return out
}
