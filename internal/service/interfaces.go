package service

import (
	"context"
	"errors"

	"tutorcal/internal/model"
	"tutorcal/internal/tutorapi"
)

var (
	// ErrNotLoaded is returned when an action needs the profile before Load succeeded.
	ErrNotLoaded = errors.New("availability profile is not loaded")

	// ErrVersionConflict means another session saved first; local edits were dropped and
	// the server copy reloaded.
	ErrVersionConflict = errors.New("availability changed in another session")

	// ErrStaleResponse means a response arrived after a newer request or after Close and
	// was ignored.
	ErrStaleResponse = errors.New("response superseded")

	ErrClosed    = errors.New("component closed")
	ErrDemoEvent = errors.New("demo events cannot be confirmed or declined")
)

// ProfileAPI is the part of the backend the availability editor needs.
type ProfileAPI interface {
	GetTutorProfile(ctx context.Context) (*model.TutorProfile, error)
	ReplaceAvailability(ctx context.Context, req tutorapi.ReplaceAvailabilityRequest) (*model.TutorProfile, error)
}

// BookingAPI is the part of the backend the calendar board needs.
type BookingAPI interface {
	ListBookings(ctx context.Context, q tutorapi.BookingQuery) ([]model.Booking, error)
	ConfirmBooking(ctx context.Context, id int64) error
	DeclineBooking(ctx context.Context, id int64) error
}
