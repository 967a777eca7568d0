package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tutorcal/internal/events"
	"tutorcal/internal/metrics"
	"tutorcal/internal/model"
	"tutorcal/internal/schedule"
	"tutorcal/internal/tutorapi"
)

// AvailabilityEditor is one availability setup session. It holds the last server
// snapshot and an editing buffer; the buffer is only sent on Save.
//
// Every request carries a generation number. A response is applied only if no newer
// request was started and the editor is still open.
type AvailabilityEditor struct {
	api    ProfileAPI
	bus    *events.EventBus
	logger zerolog.Logger

	mu         sync.Mutex
	profile    *model.TutorProfile
	week       schedule.Week
	timezone   string
	generation uint64
	closed     bool
}

// NewAvailabilityEditor creates an editor. bus may be nil.
func NewAvailabilityEditor(api ProfileAPI, bus *events.EventBus, logger *zerolog.Logger) *AvailabilityEditor {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "availability_editor").Logger()
	}
	return &AvailabilityEditor{
		api:    api,
		bus:    bus,
		logger: l,
		week:   schedule.NewWeek(),
	}
}

// Load fetches the profile and replaces both the snapshot and the editing buffer.
func (e *AvailabilityEditor) Load(ctx context.Context) error {
	gen, err := e.begin()
	if err != nil {
		return err
	}

	profile, err := e.api.GetTutorProfile(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isStaleLocked(gen) {
		metrics.IncStaleResponse("profile")
		return ErrStaleResponse
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	e.applyLocked(profile)
	e.logger.Debug().
		Int64("version", profile.Version).
		Int("rules", len(profile.Availabilities)).
		Msg("availability loaded")
	return nil
}

// Save validates the buffer and replaces the server availability. On a version conflict
// the local edits are discarded and the profile is reloaded; ErrVersionConflict is
// returned either way.
func (e *AvailabilityEditor) Save(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	if e.profile == nil {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if err := e.week.Validate(); err != nil {
		e.mu.Unlock()
		metrics.IncAvailabilitySave("invalid")
		e.notify(events.AvailabilityError, events.LevelWarn, err)
		return err
	}
	req := tutorapi.ReplaceAvailabilityRequest{
		Availability: e.week.Rules(),
		Timezone:     e.timezone,
		Version:      e.profile.Version,
	}
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	updated, err := e.api.ReplaceAvailability(ctx, req)
	switch {
	case err == nil:
		e.mu.Lock()
		if e.isStaleLocked(gen) {
			e.mu.Unlock()
			metrics.IncStaleResponse("save")
			return ErrStaleResponse
		}
		e.applyLocked(updated)
		e.mu.Unlock()

		metrics.IncAvailabilitySave("ok")
		e.logger.Info().Int64("version", updated.Version).Int("rules", len(req.Availability)).Msg("availability saved")
		e.bus.Publish(events.Event{Type: events.AvailabilitySaved, Message: "Availability saved."})
		return nil

	case errors.Is(err, tutorapi.ErrConflict):
		metrics.IncAvailabilitySave("conflict")
		e.logger.Warn().Int64("version", req.Version).Msg("availability version conflict, reloading")
		if reloadErr := e.Load(ctx); reloadErr != nil {
			e.invalidate()
			e.notify(events.AvailabilityConflict, events.LevelWarn, ErrVersionConflict)
			return fmt.Errorf("%w; reload failed: %v", ErrVersionConflict, reloadErr)
		}
		e.notify(events.AvailabilityConflict, events.LevelWarn, ErrVersionConflict)
		return ErrVersionConflict

	default:
		metrics.IncAvailabilitySave("error")
		e.logger.Error().Err(err).Msg("availability save failed")
		e.notify(events.AvailabilityError, events.LevelError, err)
		return fmt.Errorf("save availability: %w", err)
	}
}

// Cancel drops unsaved edits and restores the last loaded snapshot.
func (e *AvailabilityEditor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.profile == nil {
		return ErrNotLoaded
	}
	e.applyLocked(e.profile)
	return nil
}

// Close tears the editor down. Responses still in flight are ignored.
func (e *AvailabilityEditor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
}

// Loaded reports whether a profile snapshot is available for saving.
func (e *AvailabilityEditor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile != nil
}

// Profile returns a copy of the last loaded server snapshot, or nil.
func (e *AvailabilityEditor) Profile() *model.TutorProfile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profile.Clone()
}

// Schedule returns a copy of the editing buffer.
func (e *AvailabilityEditor) Schedule() schedule.Week {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.week.Clone()
}

// Timezone returns the timezone that will be saved.
func (e *AvailabilityEditor) Timezone() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timezone
}

// Dirty reports whether Save would change the server state.
func (e *AvailabilityEditor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.profile == nil {
		return false
	}
	saved := schedule.FromRules(e.profile.Availabilities).Rules()
	return e.timezone != e.profile.Timezone || !reflect.DeepEqual(saved, e.week.Rules())
}

// SetTimezone changes the IANA zone saved with the availability.
func (e *AvailabilityEditor) SetTimezone(tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return e.edit(func(w *schedule.Week) error {
		e.timezone = tz
		return nil
	})
}

// ReplaceSchedule swaps the whole buffer, e.g. with a week read from a file.
func (e *AvailabilityEditor) ReplaceSchedule(week schedule.Week) error {
	return e.edit(func(w *schedule.Week) error {
		*w = week.Clone()
		for i := range w {
			w[i].Day = i
		}
		return nil
	})
}

func (e *AvailabilityEditor) Toggle(day int) error {
	return e.edit(func(w *schedule.Week) error { return w.Toggle(day) })
}

func (e *AvailabilityEditor) AddSlot(day int) error {
	return e.edit(func(w *schedule.Week) error { return w.AddSlot(day) })
}

func (e *AvailabilityEditor) RemoveSlot(day, index int) error {
	return e.edit(func(w *schedule.Week) error { return w.RemoveSlot(day, index) })
}

func (e *AvailabilityEditor) UpdateSlot(day, index int, field schedule.Field, value string) error {
	return e.edit(func(w *schedule.Week) error { return w.UpdateSlot(day, index, field, value) })
}

func (e *AvailabilityEditor) CopyToAll(day int) error {
	return e.edit(func(w *schedule.Week) error { return w.CopyToAll(day) })
}

// edit applies fn to a scratch copy and keeps it only if fn succeeds.
func (e *AvailabilityEditor) edit(fn func(w *schedule.Week) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.profile == nil {
		return ErrNotLoaded
	}
	scratch := e.week.Clone()
	if err := fn(&scratch); err != nil {
		return err
	}
	e.week = scratch
	return nil
}

func (e *AvailabilityEditor) begin() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, ErrClosed
	}
	e.generation++
	return e.generation, nil
}

func (e *AvailabilityEditor) isStaleLocked(gen uint64) bool {
	return e.closed || gen != e.generation
}

func (e *AvailabilityEditor) applyLocked(profile *model.TutorProfile) {
	e.profile = profile.Clone()
	e.week = schedule.FromRules(profile.Availabilities)
	e.timezone = profile.Timezone
}

// invalidate forgets the snapshot after a conflict whose reload failed: its version is
// known to be stale, so saving must wait for a successful Load.
func (e *AvailabilityEditor) invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profile = nil
}

func (e *AvailabilityEditor) notify(eventType string, level events.Level, err error) {
	e.bus.Publish(events.Event{Type: eventType, Level: level, Message: UserMessage(err)})
}
