package calendar

import (
	"fmt"
	"sync"
	"time"
)

// Mode is the display mode of the tutor calendar screen.
type Mode string

const (
	ModeCalendar Mode = "calendar"
	ModeSetup    Mode = "setup"
)

// ViewState is the navigation state. The visible days are derived from
// Granularity and Anchor only.
type ViewState struct {
	Mode        Mode
	Granularity Granularity
	Anchor      time.Time
}

// Navigator moves the calendar anchor. It has no terminal state.
type Navigator struct {
	mu    sync.Mutex
	state ViewState
	now   func() time.Time
}

// NewNavigator starts in calendar mode, week granularity, anchored at now.
func NewNavigator(now func() time.Time) *Navigator {
	if now == nil {
		now = time.Now
	}
	return &Navigator{
		state: ViewState{Mode: ModeCalendar, Granularity: Week, Anchor: now()},
		now:   now,
	}
}

// State returns a snapshot of the current view state.
func (n *Navigator) State() ViewState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Prev moves back one day (Day) or one week (Week).
func (n *Navigator) Prev() ViewState {
	return n.shift(-1)
}

// Next moves forward one day (Day) or one week (Week).
func (n *Navigator) Next() ViewState {
	return n.shift(1)
}

func (n *Navigator) shift(dir int) ViewState {
	n.mu.Lock()
	defer n.mu.Unlock()
	step := 7
	if n.state.Granularity == Day {
		step = 1
	}
	n.state.Anchor = n.state.Anchor.AddDate(0, 0, dir*step)
	return n.state
}

// Today jumps to the current day and switches to Day granularity.
func (n *Navigator) Today() ViewState {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Anchor = n.now()
	n.state.Granularity = Day
	return n.state
}

// SetGranularity changes the zoom level; the anchor is kept.
func (n *Navigator) SetGranularity(g Granularity) ViewState {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Granularity = g
	return n.state
}

// SetAnchor jumps to an arbitrary date.
func (n *Navigator) SetAnchor(t time.Time) ViewState {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Anchor = t
	return n.state
}

// SetMode switches between calendar and setup display.
func (n *Navigator) SetMode(m Mode) error {
	if m != ModeCalendar && m != ModeSetup {
		return fmt.Errorf("unknown mode %q", m)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Mode = m
	return nil
}

// VisibleDays lists the days for the current state.
func (n *Navigator) VisibleDays() []VisibleDay {
	st := n.State()
	return VisibleDays(st.Anchor, st.Granularity, n.now())
}

// Label renders the current range label.
func (n *Navigator) Label() string {
	st := n.State()
	return RangeLabel(st.Anchor, st.Granularity)
}
