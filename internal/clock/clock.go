// Package clock isolates wall-clock and timezone handling so the accounting
// engine can run against an injected instant.
package clock

import (
	"fmt"
	"sync"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// System is the host wall clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = t
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

// Zone formats and interprets instants in one timezone.
type Zone struct {
	loc *time.Location
}

// ResolveZone returns the zone for an IANA name. An empty name selects the
// host timezone.
func ResolveZone(name string) (Zone, error) {
	if name == "" {
		return Zone{loc: time.Local}, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("loading timezone %q: %w", name, err)
	}
	return Zone{loc: loc}, nil
}

// InLocation wraps an already loaded location.
func InLocation(loc *time.Location) Zone {
	if loc == nil {
		loc = time.Local
	}
	return Zone{loc: loc}
}

func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.Local
	}
	return z.loc
}

func (z Zone) Name() string {
	return z.Location().String()
}

// In converts t to the zone.
func (z Zone) In(t time.Time) time.Time {
	return t.In(z.Location())
}

// DateKey returns the YYYY-MM-DD calendar date of t in the zone.
func (z Zone) DateKey(t time.Time) string {
	return z.In(t).Format(DateLayout)
}

// TimeOfDay returns the HH:MM wall-clock time of t in the zone.
func (z Zone) TimeOfDay(t time.Time) string {
	return z.In(t).Format(TimeLayout)
}

// IsWeekend reports whether t falls on a Saturday or Sunday in the zone.
func (z Zone) IsWeekend(t time.Time) bool {
	wd := z.In(t).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Combine builds the instant for a date-key and HH:MM time in the zone.
func (z Zone) Combine(date, hhmm string) (time.Time, error) {
	d, err := z.ParseDateKey(date)
	if err != nil {
		return time.Time{}, err
	}
	mins, err := ParseTimeOfDay(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), mins/60, mins%60, 0, 0, z.Location()), nil
}

// ParseDateKey parses a YYYY-MM-DD date as midnight in the zone.
func (z Zone) ParseDateKey(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, z.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
	}
	return d, nil
}

// StartOfDay returns 00:00 of t's calendar day in the zone.
func (z Zone) StartOfDay(t time.Time) time.Time {
	l := z.In(t)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, z.Location())
}

// ParseTimeOfDay parses HH:MM (24h) into minutes since midnight.
func ParseTimeOfDay(hhmm string) (int, error) {
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil || len(hhmm) != len(TimeLayout) {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidDateKey reports whether s is a well-formed YYYY-MM-DD date.
func ValidDateKey(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
