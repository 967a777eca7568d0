package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tutorcal/internal/calendar"
	"tutorcal/internal/events"
	"tutorcal/internal/grid"
	"tutorcal/internal/metrics"
	"tutorcal/internal/model"
	"tutorcal/internal/tutorapi"
)

const (
	defaultBookingRole   = "tutor"
	defaultBookingStatus = "upcoming"
	defaultPageSize      = 100
)

// BoardOptions configures a CalendarBoard.
type BoardOptions struct {
	Grid     grid.Options
	PageSize int
	Now      func() time.Time

	// Demo shows sample events while the tutor has no bookings at all.
	Demo bool
}

// CalendarBoard is the calendar screen: navigation, the fetched events and the booking
// actions on them.
type CalendarBoard struct {
	api    BookingAPI
	nav    *calendar.Navigator
	bus    *events.EventBus
	logger zerolog.Logger
	opts   BoardOptions

	mu         sync.Mutex
	events     []model.CalendarEvent
	profile    *model.TutorProfile
	generation uint64
	closed     bool
}

// NewCalendarBoard creates a board starting in week view on the current date.
func NewCalendarBoard(api BookingAPI, bus *events.EventBus, logger *zerolog.Logger, opts BoardOptions) *CalendarBoard {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "calendar_board").Logger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.Grid == (grid.Options{}) {
		opts.Grid = grid.DefaultOptions()
	}
	return &CalendarBoard{
		api:    api,
		nav:    calendar.NewNavigator(opts.Now),
		bus:    bus,
		logger: l,
		opts:   opts,
	}
}

// Navigator exposes the board's navigation state machine.
func (b *CalendarBoard) Navigator() *calendar.Navigator {
	return b.nav
}

// SetProfile sets the tutor whose timezone and availability the board renders against.
func (b *CalendarBoard) SetProfile(p *model.TutorProfile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profile = p.Clone()
}

// Location is the tutor's timezone, UTC until a profile is set.
func (b *CalendarBoard) Location() *time.Location {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile.Location()
}

// Refresh refetches the tutor's bookings. A response that arrives after a newer Refresh
// or after Close is dropped with ErrStaleResponse.
func (b *CalendarBoard) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.generation++
	gen := b.generation
	b.mu.Unlock()

	bookings, err := b.api.ListBookings(ctx, tutorapi.BookingQuery{
		Role:     defaultBookingRole,
		Status:   defaultBookingStatus,
		PageSize: b.opts.PageSize,
	})

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || gen != b.generation {
		metrics.IncStaleResponse("bookings")
		return ErrStaleResponse
	}
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	b.events = model.EventsFromBookings(bookings)
	b.logger.Debug().Int("bookings", len(bookings)).Msg("bookings refreshed")

	if b.profile != nil {
		for _, ev := range OutsideAvailability(b.events, b.profile.Availabilities, b.profile.Location()) {
			b.logger.Warn().
				Int64("booking_id", ev.BookingID).
				Time("start", ev.Start).
				Msg("booking outside weekly availability")
		}
	}
	return nil
}

// Events returns the events of the visible week, sample events included in demo mode.
func (b *CalendarBoard) Events() []model.CalendarEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.weekEventsLocked(b.nav.State().Anchor)
}

// Grid places the events of the current view on the hour rows.
func (b *CalendarBoard) Grid() *grid.Grid {
	st := b.nav.State()

	b.mu.Lock()
	defer b.mu.Unlock()
	loc := b.profile.Location()
	anchor := st.Anchor.In(loc)
	days := calendar.VisibleDays(anchor, st.Granularity, b.opts.Now().In(loc))
	return grid.Build(days, b.weekEventsLocked(anchor), loc, b.opts.Grid)
}

// Label is the range label of the current view.
func (b *CalendarBoard) Label() string {
	st := b.nav.State()
	return calendar.RangeLabel(st.Anchor.In(b.Location()), st.Granularity)
}

// Confirm accepts a pending booking and refetches.
func (b *CalendarBoard) Confirm(ctx context.Context, bookingID int64) error {
	return b.decide(ctx, bookingID, "confirm")
}

// Decline rejects a pending booking and refetches.
func (b *CalendarBoard) Decline(ctx context.Context, bookingID int64) error {
	return b.decide(ctx, bookingID, "decline")
}

// Close stops the board; later responses are ignored.
func (b *CalendarBoard) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *CalendarBoard) decide(ctx context.Context, bookingID int64, decision string) error {
	if IsDemoID(bookingID) {
		return ErrDemoEvent
	}
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	call, okType, okMsg := b.api.ConfirmBooking, events.BookingConfirmed, "Booking confirmed."
	if decision == "decline" {
		call, okType, okMsg = b.api.DeclineBooking, events.BookingDeclined, "Booking declined."
	}

	if err := call(ctx, bookingID); err != nil {
		metrics.IncBookingDecision(decision, "error")
		b.logger.Error().Err(err).Int64("booking_id", bookingID).Str("decision", decision).Msg("booking decision failed")
		b.bus.Publish(events.Event{
			Type:      events.BookingError,
			Level:     events.LevelError,
			Message:   UserMessage(err),
			BookingID: bookingID,
		})
		return fmt.Errorf("%s booking %d: %w", decision, bookingID, err)
	}

	metrics.IncBookingDecision(decision, "ok")
	b.logger.Info().Int64("booking_id", bookingID).Str("decision", decision).Msg("booking decided")
	b.bus.Publish(events.Event{Type: okType, Message: okMsg, BookingID: bookingID})

	if err := b.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleResponse) {
		return err
	}
	return nil
}

func (b *CalendarBoard) weekEventsLocked(anchor time.Time) []model.CalendarEvent {
	loc := b.profile.Location()
	if len(b.events) == 0 && b.opts.Demo {
		start, _ := calendar.WeekWindow(anchor.In(loc))
		return DemoEvents(start)
	}
	return grid.FilterWeek(b.events, anchor, loc)
}
