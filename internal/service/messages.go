package service

import (
	"errors"

	"tutorcal/internal/schedule"
	"tutorcal/internal/tutorapi"
)

const (
	msgInvalidSlot = "Please fix the highlighted time slots: each slot must end after it starts."
	msgConflict    = "Your availability was changed in another session. The latest version has been loaded."
	msgFallback    = "Something went wrong. Please try again."
)

// UserMessage turns an error into the text shown to the tutor. Server details win over
// the generic fallback.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, schedule.ErrInvalidSlot):
		return msgInvalidSlot
	case errors.Is(err, ErrVersionConflict), errors.Is(err, tutorapi.ErrConflict):
		return msgConflict
	}
	if detail := tutorapi.Detail(err); detail != "" {
		return detail
	}
	return msgFallback
}
