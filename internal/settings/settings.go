// Package settings holds the user's work targets, holidays and timezone, and
// keeps them durable in the key/value store.
package settings

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/store"
)

// Key is the KV key the settings object is stored under.
const Key = "timeTrackerSettings"

const (
	DefaultDailyHours  = 8
	DefaultWeeklyHours = 40
)

// Settings mirrors the stored JSON object.
type Settings struct {
	DailyHours             float64  `json:"dailyHours"`
	WeeklyHours            float64  `json:"weeklyHours"`
	Holidays               []string `json:"holidays"`
	ShowJustificationPopup bool     `json:"showJustificationPopup"`
	TimeZone               *string  `json:"timeZone"`
}

func Default() Settings {
	return Settings{
		DailyHours:             DefaultDailyHours,
		WeeklyHours:            DefaultWeeklyHours,
		Holidays:               []string{},
		ShowJustificationPopup: true,
	}
}

// DailyTargetMinutes is the journey length in minutes.
func (s Settings) DailyTargetMinutes() int {
	return int(math.Round(s.DailyHours * 60))
}

// WeeklyTargetMinutes is the weekly target in minutes.
func (s Settings) WeeklyTargetMinutes() int {
	return int(math.Round(s.WeeklyHours * 60))
}

// IsHoliday reports whether the date-key is listed as a holiday.
func (s Settings) IsHoliday(date string) bool {
	return slices.Contains(s.Holidays, date)
}

// Zone resolves the configured timezone, falling back to the host zone.
func (s Settings) Zone() (clock.Zone, error) {
	if s.TimeZone == nil {
		return clock.ResolveZone("")
	}
	return clock.ResolveZone(*s.TimeZone)
}

func (s Settings) clone() Settings {
	s.Holidays = slices.Clone(s.Holidays)
	if s.TimeZone != nil {
		tz := *s.TimeZone
		s.TimeZone = &tz
	}
	return s
}

// Partial is an update where nil fields are left unchanged. An empty TimeZone
// string resets the timezone to the host default.
type Partial struct {
	DailyHours             *float64
	WeeklyHours            *float64
	Holidays               *[]string
	ShowJustificationPopup *bool
	TimeZone               *string
}

// Apply returns s with p applied, or a validation error naming the first
// invalid field.
func (s Settings) Apply(p Partial) (Settings, error) {
	out := s.clone()
	if p.DailyHours != nil {
		if !positive(*p.DailyHours) {
			return s, punch.Validation("daily-hours", "daily hours must be positive, got %v", *p.DailyHours)
		}
		out.DailyHours = *p.DailyHours
	}
	if p.WeeklyHours != nil {
		if !positive(*p.WeeklyHours) {
			return s, punch.Validation("weekly-hours", "weekly hours must be positive, got %v", *p.WeeklyHours)
		}
		out.WeeklyHours = *p.WeeklyHours
	}
	if p.Holidays != nil {
		holidays, err := normalizeHolidays(*p.Holidays)
		if err != nil {
			return s, err
		}
		out.Holidays = holidays
	}
	if p.ShowJustificationPopup != nil {
		out.ShowJustificationPopup = *p.ShowJustificationPopup
	}
	if p.TimeZone != nil {
		if *p.TimeZone == "" {
			out.TimeZone = nil
		} else {
			if _, err := time.LoadLocation(*p.TimeZone); err != nil {
				return s, punch.Validation("timezone", "unknown timezone %q", *p.TimeZone)
			}
			tz := *p.TimeZone
			out.TimeZone = &tz
		}
	}
	return out, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func normalizeHolidays(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, d := range in {
		if !clock.ValidDateKey(d) {
			return nil, punch.Validation("holiday-date", "invalid holiday %q: want YYYY-MM-DD", d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Store keeps the live settings and writes them back after every change.
type Store struct {
	mu     sync.RWMutex
	kv     store.KV
	cur    Settings
	logger *slog.Logger
}

// Load reads settings from kv, merging stored fields over the defaults. A
// corrupt stored object is logged and replaced by the defaults in memory.
func Load(kv store.KV, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{kv: kv, cur: Default(), logger: logger}
	cur, err := s.read()
	if err != nil {
		return nil, err
	}
	s.cur = cur
	return s, nil
}

// Reload re-reads the stored settings so changes made by another process are
// picked up.
func (s *Store) Reload() error {
	cur, err := s.read()
	if err != nil {
		return fmt.Errorf("reloading settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = cur
	return nil
}

func (s *Store) read() (Settings, error) {
	raw, ok, err := s.kv.GetState(Key)
	if err != nil {
		return Settings{}, punch.Storage("loading settings", err)
	}
	if !ok {
		return Default(), nil
	}

	merged := Default()
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		s.logger.Warn("stored settings are corrupt, using defaults", "error", err)
		return Default(), nil
	}
	if !positive(merged.DailyHours) {
		merged.DailyHours = DefaultDailyHours
	}
	if !positive(merged.WeeklyHours) {
		merged.WeeklyHours = DefaultWeeklyHours
	}
	if merged.Holidays == nil {
		merged.Holidays = []string{}
	}
	return merged, nil
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.clone()
}

// Update validates and applies p, then persists the result.
func (s *Store) Update(p Partial) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.cur.Apply(p)
	if err != nil {
		return s.cur.clone(), err
	}
	if err := s.save(next); err != nil {
		return s.cur.clone(), err
	}
	s.cur = next
	s.logger.Debug("settings updated",
		"daily_hours", next.DailyHours,
		"weekly_hours", next.WeeklyHours,
		"holidays", len(next.Holidays),
	)
	return next.clone(), nil
}

// AddHolidays merges dates into the holiday set.
func (s *Store) AddHolidays(dates ...string) (Settings, error) {
	cur := s.Get()
	merged := append(cur.Holidays, dates...)
	return s.Update(Partial{Holidays: &merged})
}

// RemoveHolidays drops dates from the holiday set.
func (s *Store) RemoveHolidays(dates ...string) (Settings, error) {
	cur := s.Get()
	kept := slices.DeleteFunc(cur.Holidays, func(d string) bool {
		return slices.Contains(dates, d)
	})
	return s.Update(Partial{Holidays: &kept})
}

func (s *Store) save(v Settings) error {
	data, err := json.Marshal(v)
	if err != nil {
		return punch.Storage("encoding settings", err)
	}
	if err := s.kv.SetState(Key, string(data)); err != nil {
		return punch.Storage("saving settings", err)
	}
	return nil
}
