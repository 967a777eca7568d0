package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNavigator(t *testing.T) {
	now := time.Date(2024, 6, 19, 10, 0, 0, 0, time.UTC)

	t.Run("Defaults", func(t *testing.T) {
		n := NewNavigator(fixedClock(now))
		st := n.State()
		assert.Equal(t, ModeCalendar, st.Mode)
		assert.Equal(t, Week, st.Granularity)
		assert.Equal(t, now, st.Anchor)
	})

	t.Run("PrevNextWeek", func(t *testing.T) {
		n := NewNavigator(fixedClock(now))
		assert.Equal(t, now.AddDate(0, 0, 7), n.Next().Anchor)
		assert.Equal(t, now, n.Prev().Anchor)
		assert.Equal(t, now.AddDate(0, 0, -7), n.Prev().Anchor)
		assert.Equal(t, Week, n.State().Granularity)
	})

	t.Run("PrevNextDay", func(t *testing.T) {
		n := NewNavigator(fixedClock(now))
		n.SetGranularity(Day)
		assert.Equal(t, now.AddDate(0, 0, 1), n.Next().Anchor)
		assert.Equal(t, now, n.Prev().Anchor)
		assert.Equal(t, Day, n.State().Granularity)
	})

	t.Run("TodayForcesDay", func(t *testing.T) {
		n := NewNavigator(fixedClock(now))
		n.Next()
		n.Next()
		st := n.Today()
		assert.Equal(t, now, st.Anchor)
		assert.Equal(t, Day, st.Granularity)
	})

	t.Run("SetGranularityKeepsAnchor", func(t *testing.T) {
		n := NewNavigator(fixedClock(now))
		n.SetAnchor(time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC))
		n.SetGranularity(Day)
		assert.Equal(t, 21, n.VisibleDays()[0].DayOfMonth)

		n.SetGranularity(Week)
		days := n.VisibleDays()
		require.Len(t, days, 7)
		assert.Equal(t, 17, days[0].DayOfMonth)
		assert.Equal(t, "Jun 17 – 23, 2024", n.Label())
	})

	t.Run("Mode", func(t *testing.T) {
		n := NewNavigator(fixedClock(now))
		require.NoError(t, n.SetMode(ModeSetup))
		st := n.State()
		assert.Equal(t, ModeSetup, st.Mode)
		assert.Equal(t, Week, st.Granularity)
		assert.Error(t, n.SetMode("grid"))
		assert.Equal(t, ModeSetup, n.State().Mode)
	})
}
