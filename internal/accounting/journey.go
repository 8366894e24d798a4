package accounting

import (
	"fmt"
	"time"

	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/settings"
	"github.com/christopherklint97/punchr/internal/store"
)

// JourneyAlertPrefix prefixes the per-date alert marker keys.
const JourneyAlertPrefix = "journey_alert_"

// JourneyComplete is emitted once per date when the daily target is reached.
type JourneyComplete struct {
	Date            string
	WorkedMinutes   int
	TargetMinutes   int
	OvertimeMinutes int
}

func (j JourneyComplete) Message() string {
	msg := fmt.Sprintf("Daily journey of %s complete. Worked %s.",
		FormatMinutes(j.TargetMinutes), FormatMinutes(j.WorkedMinutes))
	if j.OvertimeMinutes > 0 {
		msg += fmt.Sprintf(" Overtime %s.", FormatMinutes(j.OvertimeMinutes))
	}
	return msg
}

// JourneyMonitor remembers which dates already raised the alert.
type JourneyMonitor struct {
	kv   store.KV
	zone func() clock.Zone
}

func NewJourneyMonitor(kv store.KV, zone func() clock.Zone) *JourneyMonitor {
	return &JourneyMonitor{kv: kv, zone: zone}
}

// Check returns a signal the first time the live worked time of date reaches
// the daily target. Later calls for the same date return nil, as do calls for
// any date other than today.
func (m *JourneyMonitor) Check(date string, records []punch.Record, now time.Time, s settings.Settings) (*JourneyComplete, error) {
	if date != m.zone().DateKey(now) {
		return nil, nil
	}
	if len(records) < 2 || first(records, punch.StartDay) == nil {
		return nil, nil
	}

	target := s.DailyTargetMinutes()
	worked := LiveWorkedMinutes(records, now, m.zone())
	if worked < target {
		return nil, nil
	}

	key := JourneyAlertPrefix + date
	_, alerted, err := m.kv.GetState(key)
	if err != nil {
		return nil, punch.Storage("reading journey marker", err)
	}
	if alerted {
		return nil, nil
	}
	if err := m.kv.SetState(key, now.UTC().Format(time.RFC3339)); err != nil {
		return nil, punch.Storage("saving journey marker", err)
	}

	return &JourneyComplete{
		Date:            date,
		WorkedMinutes:   worked,
		TargetMinutes:   target,
		OvertimeMinutes: Overtime(worked, target),
	}, nil
}

// Alerted reports whether date already raised the alert.
func (m *JourneyMonitor) Alerted(date string) (bool, error) {
	_, ok, err := m.kv.GetState(JourneyAlertPrefix + date)
	if err != nil {
		return false, punch.Storage("reading journey marker", err)
	}
	return ok, nil
}
