package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var saved, all []Event
	bus.Subscribe(AvailabilitySaved, func(e Event) { saved = append(saved, e) })
	bus.Subscribe(Wildcard, func(e Event) { all = append(all, e) })

	bus.Publish(Event{Type: AvailabilitySaved, Message: "Availability saved"})
	bus.Publish(Event{Type: BookingError, Level: LevelError, Message: "boom"})

	assert.Len(t, saved, 1)
	assert.Equal(t, LevelInfo, saved[0].Level)
	assert.False(t, saved[0].CreatedAt.IsZero())

	assert.Len(t, all, 2)
	assert.Equal(t, LevelError, all[1].Level)

	var nilBus *EventBus
	assert.NotPanics(t, func() { nilBus.Publish(Event{Type: BookingConfirmed}) })
}
