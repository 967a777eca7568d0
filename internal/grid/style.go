package grid

import "tutorcal/internal/model"

// Style is a presentation token consumed by the renderer.
type Style string

const (
	StylePending Style = "pending"
	StyleTrial   Style = "trial"
	StyleWeekly  Style = "weekly"
	StyleSingle  Style = "single"
	StyleTimeOff Style = "timeoff"
	StyleEvent   Style = "event"
	StyleDefault Style = "default"
)

// StyleFor maps an event to its style. A pending status wins over the event type.
func StyleFor(t model.EventType, status string) Style {
	ev := model.CalendarEvent{Status: status}
	if ev.IsPending() {
		return StylePending
	}
	switch t {
	case model.EventTrial:
		return StyleTrial
	case model.EventWeekly:
		return StyleWeekly
	case model.EventSingle:
		return StyleSingle
	case model.EventTimeOff:
		return StyleTimeOff
	case model.EventPlatform:
		return StyleEvent
	default:
		return StyleDefault
	}
}
