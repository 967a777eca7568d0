package model

import (
	"strings"
	"time"
)

// EventType categorizes a calendar event.
type EventType string

const (
	EventTrial    EventType = "trial"
	EventWeekly   EventType = "weekly"
	EventSingle   EventType = "single"
	EventTimeOff  EventType = "timeoff"
	EventPlatform EventType = "event"
)

// DefaultEventTitle is used when a booking carries no student name.
const DefaultEventTitle = "Student"

// CalendarEvent is a dated commitment rendered on the grid. It is read-only on the client.
type CalendarEvent struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Type      EventType `json:"type"`
	Status    string    `json:"status"`
	Subject   string    `json:"subject,omitempty"`
	BookingID int64     `json:"booking_id,omitempty"`
}

// IsPending reports whether the event awaits a tutor decision.
func (e *CalendarEvent) IsPending() bool {
	return strings.EqualFold(e.Status, StatusPending)
}

// Duration returns the event length.
func (e *CalendarEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// EventFromBooking derives the grid event for a booking.
func EventFromBooking(b Booking) CalendarEvent {
	title := b.Student.DisplayName()
	if title == "" {
		title = DefaultEventTitle
	}
	return CalendarEvent{
		ID:        b.ID,
		Title:     title,
		Start:     b.StartAt,
		End:       b.EndAt,
		Type:      eventTypeForLesson(b.LessonType),
		Status:    strings.ToLower(b.Status),
		Subject:   b.SubjectName,
		BookingID: b.ID,
	}
}

// EventsFromBookings converts a booking page, preserving order.
func EventsFromBookings(bookings []Booking) []CalendarEvent {
	events := make([]CalendarEvent, 0, len(bookings))
	for _, b := range bookings {
		events = append(events, EventFromBooking(b))
	}
	return events
}

func eventTypeForLesson(lessonType string) EventType {
	switch strings.ToUpper(lessonType) {
	case LessonTrial:
		return EventTrial
	case LessonPackage:
		return EventWeekly
	default:
		return EventSingle
	}
}
