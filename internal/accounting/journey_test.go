package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/settings"
	"github.com/christopherklint97/punchr/internal/store"
)

func newMonitor() (*JourneyMonitor, *store.Memory) {
	kv := store.NewMemory()
	return NewJourneyMonitor(kv, func() clock.Zone { return utc }), kv
}

func TestJourney_FiresOncePerDate(t *testing.T) {
	m, kv := newMonitor()
	s := settings.Default()
	records := day("2024-03-04", "start", "08:00", "break", "12:00", "back", "12:30")

	got, err := m.Check("2024-03-04", records, at("2024-03-04", "16:00"), s)
	require.NoError(t, err)
	assert.Nil(t, got, "450 minutes is short of the target")

	got, err = m.Check("2024-03-04", records, at("2024-03-04", "16:45"), s)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, JourneyComplete{Date: "2024-03-04", WorkedMinutes: 495, TargetMinutes: 480, OvertimeMinutes: 15}, *got)

	for _, hhmm := range []string{"16:46", "18:00", "23:00"} {
		again, err := m.Check("2024-03-04", records, at("2024-03-04", hhmm), s)
		require.NoError(t, err)
		assert.Nil(t, again)
	}

	keys, err := kv.StateKeys(JourneyAlertPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"journey_alert_2024-03-04"}, keys)

	done, err := m.Alerted("2024-03-04")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestJourney_SurvivesRestart(t *testing.T) {
	m, kv := newMonitor()
	records := day("2024-03-04", "start", "08:00", "end", "17:00")

	got, err := m.Check("2024-03-04", records, at("2024-03-04", "17:00"), settings.Default())
	require.NoError(t, err)
	require.NotNil(t, got)

	restarted := NewJourneyMonitor(kv, func() clock.Zone { return utc })
	got, err = restarted.Check("2024-03-04", records, at("2024-03-04", "18:00"), settings.Default())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJourney_RequiresStartAndTwoRecords(t *testing.T) {
	m, _ := newMonitor()
	s := settings.Default()
	late := at("2024-03-04", "23:00")

	got, err := m.Check("2024-03-04", day("2024-03-04", "start", "08:00"), late, s)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = m.Check("2024-03-04", day("2024-03-04", "break", "08:00", "back", "08:30"), late, s)
	require.NoError(t, err)
	assert.Nil(t, got)

	done, err := m.Alerted("2024-03-04")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestJourney_Message(t *testing.T) {
	j := JourneyComplete{Date: "2024-03-04", WorkedMinutes: 495, TargetMinutes: 480, OvertimeMinutes: 15}
	assert.Equal(t, "Daily journey of 8h 0min complete. Worked 8h 15min. Overtime 0h 15min.", j.Message())
}

func TestDayState(t *testing.T) {
	assert.Equal(t, NotStarted, DayState(nil))
	assert.Equal(t, Working, DayState(day("2024-03-04", "start", "09:00")))
	assert.Equal(t, OnBreak, DayState(day("2024-03-04", "start", "09:00", "break", "12:00")))
	assert.Equal(t, Working, DayState(day("2024-03-04", "start", "09:00", "break", "12:00", "back", "12:30")))
	assert.Equal(t, Finished, DayState(day("2024-03-04", "start", "09:00", "end", "17:00")))

	assert.Equal(t, []punch.Kind{punch.StartDay}, AllowedKinds(nil))
	assert.Equal(t, []punch.Kind{punch.BreakStart, punch.EndDay}, AllowedKinds(day("2024-03-04", "start", "09:00")))
	assert.Equal(t, []punch.Kind{punch.BreakEnd}, AllowedKinds(day("2024-03-04", "start", "09:00", "break", "12:00")))
}

func TestNeedsJustification(t *testing.T) {
	s := withHolidays("2024-03-06")

	tests := []struct {
		name string
		date string
		hhmm string
		want bool
	}{
		{"weekday morning", "2024-03-04", "09:00", false},
		{"weekday at six", "2024-03-04", "06:00", false},
		{"before six", "2024-03-04", "05:59", true},
		{"just before ten", "2024-03-04", "21:59", false},
		{"at ten", "2024-03-04", "22:00", true},
		{"saturday", "2024-03-02", "10:00", true},
		{"sunday", "2024-03-03", "10:00", true},
		{"holiday", "2024-03-06", "10:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsJustification(at(tt.date, tt.hhmm), utc, s))
		})
	}
}

func TestJourney_IgnoresOtherDates(t *testing.T) {
	m, _ := newMonitor()
	records := day("2024-03-04", "start", "08:00", "break", "09:00")

	got, err := m.Check("2024-03-04", records, at("2024-03-05", "20:00"), settings.Default())
	require.NoError(t, err)
	assert.Nil(t, got)

	done, err := m.Alerted("2024-03-04")
	require.NoError(t, err)
	assert.False(t, done, "a past date must keep its marker free")
}
