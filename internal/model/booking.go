package model

import (
	"strings"
	"time"
)

const (
	LessonTrial   = "TRIAL"
	LessonPackage = "PACKAGE"
	LessonSingle  = "SINGLE"

	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDeclined  = "declined"
	StatusCancelled = "cancelled"
)

// Person is the counterparty embedded in a booking.
type Person struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName joins first and last name, skipping empty parts.
func (p *Person) DisplayName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// Booking is a lesson booked with the tutor, as returned by the bookings API.
type Booking struct {
	ID          int64     `json:"id"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	LessonType  string    `json:"lesson_type"`
	Status      string    `json:"status"`
	Student     *Person   `json:"student,omitempty"`
	SubjectName string    `json:"subject_name,omitempty"`
}

// Duration returns the booking length.
func (b *Booking) Duration() time.Duration {
	return b.EndAt.Sub(b.StartAt)
}
