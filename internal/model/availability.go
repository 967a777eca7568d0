package model

import "time"

// WeeklyAvailabilityRule is a recurring weekly window during which a tutor is bookable.
type WeeklyAvailabilityRule struct {
	DayOfWeek   int    `json:"day_of_week" yaml:"day_of_week"` // 0-6 (Sunday-Saturday)
	StartTime   string `json:"start_time" yaml:"start_time"`   // "09:00"
	EndTime     string `json:"end_time" yaml:"end_time"`       // "17:00"
	IsRecurring bool   `json:"is_recurring" yaml:"is_recurring"`
}

// TutorProfile is the subset of the tutor profile the calendar works with.
// Version is the optimistic concurrency token of the availability set.
type TutorProfile struct {
	ID             int64                    `json:"id,omitempty"`
	DisplayName    string                   `json:"display_name,omitempty"`
	Timezone       string                   `json:"timezone"`
	Version        int64                    `json:"version"`
	Availabilities []WeeklyAvailabilityRule `json:"availabilities"`
}

// Location resolves the profile timezone. Empty or unknown zones fall back to UTC.
func (p *TutorProfile) Location() *time.Location {
	if p == nil || p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Clone returns a deep copy so callers can keep a pristine server snapshot.
func (p *TutorProfile) Clone() *TutorProfile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Availabilities = append([]WeeklyAvailabilityRule(nil), p.Availabilities...)
	return &cp
}
