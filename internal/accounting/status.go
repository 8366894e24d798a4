package accounting

import (
	"time"

	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/settings"
)

// State is where the day stands after its last punch.
type State int

const (
	NotStarted State = iota
	Working
	OnBreak
	Finished
)

func (s State) String() string {
	switch s {
	case Working:
		return "working"
	case OnBreak:
		return "on break"
	case Finished:
		return "day finished"
	default:
		return "not started"
	}
}

// DayState derives the state from the chronologically last record.
func DayState(records []punch.Record) State {
	if len(records) == 0 {
		return NotStarted
	}
	sorted := punch.Sorted(records)
	switch sorted[len(sorted)-1].Kind {
	case punch.StartDay, punch.BreakEnd:
		return Working
	case punch.BreakStart:
		return OnBreak
	case punch.EndDay:
		return Finished
	default:
		return NotStarted
	}
}

// AllowedKinds lists the punches a front end should offer next. It is
// advisory; the event log enforces only its own invariants.
func AllowedKinds(records []punch.Record) []punch.Kind {
	switch DayState(records) {
	case NotStarted, Finished:
		return []punch.Kind{punch.StartDay}
	case Working:
		return []punch.Kind{punch.BreakStart, punch.EndDay}
	case OnBreak:
		return []punch.Kind{punch.BreakEnd}
	}
	return nil
}

const (
	earliestNormalHour = 6
	latestNormalHour   = 22
)

// NeedsJustification reports whether a punch at t falls outside normal hours,
// on a weekend or on a holiday.
func NeedsJustification(t time.Time, zone clock.Zone, s settings.Settings) bool {
	hour := zone.In(t).Hour()
	if hour < earliestNormalHour || hour >= latestNormalHour {
		return true
	}
	if zone.IsWeekend(t) {
		return true
	}
	return s.IsHoliday(zone.DateKey(t))
}
