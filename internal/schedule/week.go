// Package schedule converts between the flat list of weekly availability rules stored by
// the backend and the per-day structure edited in the availability setup screen.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tutorcal/internal/model"
)

const (
	DefaultSlotStart = "09:00"
	DefaultSlotEnd   = "17:00"
)

var (
	// ErrInvalidSlot is returned by Validate when an enabled day has a slot that is not a
	// time of day or does not end after it starts.
	ErrInvalidSlot = errors.New("each time slot must end after it starts")

	ErrSlotIndex = errors.New("slot index out of range")
	ErrDay       = errors.New("day of week out of range")
)

// Field selects which end of a slot UpdateSlot changes.
type Field string

const (
	FieldStart Field = "start"
	FieldEnd   Field = "end"
)

// Slot is a time-of-day window, both ends zero-padded "HH:MM".
type Slot struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// DaySchedule holds the editing state of one weekday.
// Slots of a disabled day are kept in the buffer but never saved.
type DaySchedule struct {
	Day     int    `json:"day" yaml:"day"` // 0-6, Sunday=0
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Slots   []Slot `json:"slots" yaml:"slots"`
}

// Week is indexed by day of week, Sunday=0.
type Week [7]DaySchedule

// NewWeek returns a week with every day disabled and empty.
func NewWeek() Week {
	var w Week
	for i := range w {
		w[i] = DaySchedule{Day: i, Slots: []Slot{}}
	}
	return w
}

// FromRules groups server rules by day. Seconds are dropped from time strings and the
// server order is kept within each day.
func FromRules(rules []model.WeeklyAvailabilityRule) Week {
	w := NewWeek()
	for _, r := range rules {
		if r.DayOfWeek < 0 || r.DayOfWeek > 6 {
			continue
		}
		d := &w[r.DayOfWeek]
		d.Enabled = true
		d.Slots = append(d.Slots, Slot{Start: TrimSeconds(r.StartTime), End: TrimSeconds(r.EndTime)})
	}
	return w
}

// Rules emits one recurring rule per slot of every enabled day.
func (w Week) Rules() []model.WeeklyAvailabilityRule {
	rules := make([]model.WeeklyAvailabilityRule, 0)
	for _, d := range w {
		if !d.Enabled {
			continue
		}
		for _, s := range d.Slots {
			rules = append(rules, model.WeeklyAvailabilityRule{
				DayOfWeek:   d.Day,
				StartTime:   s.Start,
				EndTime:     s.End,
				IsRecurring: true,
			})
		}
	}
	return rules
}

// Clone deep-copies the week so edits never alias another buffer.
func (w Week) Clone() Week {
	var cp Week
	for i, d := range w {
		cp[i] = DaySchedule{Day: d.Day, Enabled: d.Enabled, Slots: cloneSlots(d.Slots)}
	}
	return cp
}

// Toggle flips a day's enabled flag.
func (w *Week) Toggle(day int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	w[day].Enabled = !w[day].Enabled
	return nil
}

// AddSlot appends the default 09:00-17:00 slot to a day.
func (w *Week) AddSlot(day int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	w[day].Slots = append(w[day].Slots, Slot{Start: DefaultSlotStart, End: DefaultSlotEnd})
	return nil
}

// RemoveSlot deletes the slot at index i.
func (w *Week) RemoveSlot(day, i int) error {
	if err := w.checkSlot(day, i); err != nil {
		return err
	}
	slots := w[day].Slots
	w[day].Slots = append(slots[:i:i], slots[i+1:]...)
	return nil
}

// UpdateSlot sets the start or end of the slot at index i.
func (w *Week) UpdateSlot(day, i int, field Field, value string) error {
	if err := w.checkSlot(day, i); err != nil {
		return err
	}
	switch field {
	case FieldStart:
		w[day].Slots[i].Start = TrimSeconds(value)
	case FieldEnd:
		w[day].Slots[i].End = TrimSeconds(value)
	default:
		return fmt.Errorf("unknown slot field %q", field)
	}
	return nil
}

// CopyToAll copies the slots of day onto every day and enables all of them.
// Each day receives its own copy.
func (w *Week) CopyToAll(day int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	src := cloneSlots(w[day].Slots)
	for i := range w {
		w[i].Slots = cloneSlots(src)
		w[i].Enabled = true
	}
	return nil
}

// Validate checks every slot of every enabled day.
func (w Week) Validate() error {
	for _, d := range w {
		if !d.Enabled {
			continue
		}
		for _, s := range d.Slots {
			start, err := ParseClock(s.Start)
			if err != nil {
				return ErrInvalidSlot
			}
			end, err := ParseClock(s.End)
			if err != nil || start >= end {
				return ErrInvalidSlot
			}
		}
	}
	return nil
}

// ParseClock parses "HH:MM" or "H:MM", optionally with seconds, into minutes after
// midnight. "24:00" is the end of the day.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" || s == "24:00:00" {
		return 24 * 60, nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q", s)
}

// FormatClock renders minutes after midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TrimSeconds turns "09:00:00" or "9:00" into "09:00". Strings that are not a time of day
// are returned trimmed of spaces.
func TrimSeconds(t string) string {
	t = strings.TrimSpace(t)
	if m, err := ParseClock(t); err == nil {
		return FormatClock(m)
	}
	return t
}

func (w *Week) checkSlot(day, i int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	if i < 0 || i >= len(w[day].Slots) {
		return fmt.Errorf("%w: day %d has %d slots, got %d", ErrSlotIndex, day, len(w[day].Slots), i)
	}
	return nil
}

func checkDay(day int) error {
	if day < 0 || day > 6 {
		return fmt.Errorf("%w: %d", ErrDay, day)
	}
	return nil
}

func cloneSlots(slots []Slot) []Slot {
	return append(make([]Slot, 0, len(slots)), slots...)
}
