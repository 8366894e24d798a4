// Package tracker is the single entry point front ends use. It ties the event
// log, the settings, the accounting engine and the query layer together and
// owns the clock.
package tracker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/eventlog"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/query"
	"github.com/christopherklint97/punchr/internal/settings"
	"github.com/christopherklint97/punchr/internal/store"
)

type Tracker struct {
	log      *eventlog.Log
	settings *settings.Store
	journey  *accounting.JourneyMonitor
	clock    clock.Clock
	pageSize int
	logger   *slog.Logger
}

// Options configures New. Zero values select defaults.
type Options struct {
	Clock    clock.Clock
	PageSize int
	Logger   *slog.Logger
	// Capacity overrides the event log retention cap.
	Capacity int
}

// New loads the event log and settings from kv.
func New(kv store.KV, opts Options) (*Tracker, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.System{}
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}

	cfg, err := settings.Load(kv, logger)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	var logOpts []eventlog.Option
	if opts.Capacity > 0 {
		logOpts = append(logOpts, eventlog.WithCapacity(opts.Capacity))
	}
	l, err := eventlog.Load(kv, logger, logOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading event log: %w", err)
	}

	t := &Tracker{
		log:      l,
		settings: cfg,
		clock:    clk,
		pageSize: pageSize,
		logger:   logger,
	}
	t.journey = accounting.NewJourneyMonitor(kv, t.Zone)
	return t, nil
}

// Zone is the configured timezone. An unloadable stored zone falls back to
// the host zone.
func (t *Tracker) Zone() clock.Zone {
	z, err := t.settings.Get().Zone()
	if err != nil {
		t.logger.Warn("invalid timezone in settings, using host zone", "error", err)
		return clock.InLocation(time.Local)
	}
	return z
}

func (t *Tracker) Settings() settings.Settings {
	return t.settings.Get()
}

func (t *Tracker) Now() time.Time {
	return t.clock.Now()
}

// Today is the current date-key in the configured zone.
func (t *Tracker) Today() string {
	return t.Zone().DateKey(t.clock.Now())
}

// PunchResult reports what happened after a punch was registered.
type PunchResult struct {
	Record             punch.Record
	NeedsJustification bool
	Journey            *accounting.JourneyComplete
}

// RegisterPunch records a punch of kind at the effective instant at, or now
// when at is zero.
func (t *Tracker) RegisterPunch(kind punch.Kind, at time.Time) (PunchResult, error) {
	if !kind.Valid() {
		return PunchResult{}, punch.Validation("unknown-kind", "unknown punch kind %d", int(kind))
	}
	now := t.clock.Now()
	if at.IsZero() {
		at = now
	}
	at = at.Truncate(time.Second)

	zone := t.Zone()
	rec := punch.Record{
		ID:        t.log.NextID(at),
		Kind:      kind,
		Timestamp: zone.In(at),
		Date:      zone.DateKey(at),
		Time:      zone.TimeOfDay(at),
	}
	if err := t.log.Append(rec); err != nil {
		return PunchResult{}, fmt.Errorf("registering %s punch: %w", kind, err)
	}
	t.logger.Info("punch registered", "id", rec.ID, "type", kind.String(), "date", rec.Date, "time", rec.Time)

	cfg := t.settings.Get()
	res := PunchResult{
		Record:             rec,
		NeedsJustification: cfg.ShowJustificationPopup && accounting.NeedsJustification(at, zone, cfg),
	}

	journey, err := t.journey.Check(rec.Date, t.log.OnDate(rec.Date), now, cfg)
	if err != nil {
		t.logger.Warn("checking daily journey", "date", rec.Date, "error", err)
	}
	res.Journey = journey
	return res, nil
}

// EditJustificationAndTime updates a record's justification and optionally
// moves it to newTime (HH:MM) and newDate (YYYY-MM-DD). Empty newTime or
// newDate keeps the current value.
func (t *Tracker) EditJustificationAndTime(id int64, text *string, newTime, newDate string) (punch.Record, error) {
	rec, err := t.log.Update(id, eventlog.Patch{
		Justification: text,
		Time:          newTime,
		Date:          newDate,
	}, t.Zone())
	if err != nil {
		return punch.Record{}, fmt.Errorf("editing record %d: %w", id, err)
	}
	return rec, nil
}

// DeleteRecord removes a record. Deleting an unknown id reports false.
func (t *Tracker) DeleteRecord(id int64) (bool, error) {
	removed, err := t.log.Remove(id)
	if err != nil {
		return false, fmt.Errorf("deleting record %d: %w", id, err)
	}
	if !removed {
		t.logger.Debug("delete of unknown record ignored", "id", id)
	}
	return removed, nil
}

// Record returns one record by id.
func (t *Tracker) Record(id int64) (punch.Record, error) {
	return t.log.Get(id)
}

// DayStatus summarizes one date.
type DayStatus struct {
	Date          string
	State         accounting.State
	Records       []punch.Record
	WorkedMinutes int
	BreakMinutes  int
	LiveMinutes   int
	TargetMinutes int
	Holiday       bool
	Allowed       []punch.Kind
	JourneyDone   bool
}

// Remaining is the minutes left to reach the daily target, never negative.
func (s DayStatus) Remaining() int {
	return max(0, s.TargetMinutes-s.LiveMinutes)
}

// GetStatus computes the status of date, or of today when date is empty.
func (t *Tracker) GetStatus(date string) (DayStatus, error) {
	zone := t.Zone()
	now := t.clock.Now()
	if date == "" {
		date = zone.DateKey(now)
	} else if !clock.ValidDateKey(date) {
		return DayStatus{}, punch.Validation("date", "invalid date %q: want YYYY-MM-DD", date)
	}

	cfg := t.settings.Get()
	records := t.log.OnDate(date)

	live := accounting.LiveWorkedMinutes(records, now, zone)
	if date != zone.DateKey(now) && !hasEnd(records) {
		// An unfinished day other than today only counts its closed segments.
		live = accounting.WorkedMinutes(records)
	}

	done, err := t.journey.Alerted(date)
	if err != nil {
		return DayStatus{}, err
	}

	return DayStatus{
		Date:          date,
		State:         accounting.DayState(records),
		Records:       records,
		WorkedMinutes: accounting.WorkedMinutes(records),
		BreakMinutes:  accounting.BreakMinutes(records),
		LiveMinutes:   live,
		TargetMinutes: cfg.DailyTargetMinutes(),
		Holiday:       cfg.IsHoliday(date),
		Allowed:       accounting.AllowedKinds(records),
		JourneyDone:   done,
	}, nil
}

func hasEnd(records []punch.Record) bool {
	for _, r := range records {
		if r.Kind == punch.EndDay {
			return true
		}
	}
	return false
}

// GetStatistics aggregates the records of period.
func (t *Tracker) GetStatistics(period query.Period) accounting.Statistics {
	records := query.FilterByPeriod(t.log.Query(nil), period, t.clock.Now(), t.Zone())
	return accounting.Summarize(period.Scope(), query.GroupByDate(records), t.settings.Get())
}

// HistoryDay is one date of a history page with its worked total.
type HistoryDay struct {
	query.Day
	WorkedMinutes int
	Holiday       bool
}

// History is a page of the period's dates, most recent first.
type History struct {
	Period     query.Period
	Days       []HistoryDay
	Page       int
	PageSize   int
	TotalPages int
	TotalDays  int
}

func (h History) HasNext() bool { return h.Page < h.TotalPages }
func (h History) HasPrev() bool { return h.Page > 1 }

// GetPaginatedHistory returns page of the period's records grouped by date.
func (t *Tracker) GetPaginatedHistory(period query.Period, page int) History {
	records := query.FilterByPeriod(t.log.Query(nil), period, t.clock.Now(), t.Zone())
	p := query.Paginate(query.GroupByDate(records), page, t.pageSize)

	cfg := t.settings.Get()
	days := make([]HistoryDay, 0, len(p.Days))
	for _, d := range p.Days {
		days = append(days, HistoryDay{
			Day:           d,
			WorkedMinutes: accounting.WorkedMinutes(d.Records),
			Holiday:       cfg.IsHoliday(d.Date),
		})
	}
	return History{
		Period:     period,
		Days:       days,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
		TotalDays:  p.TotalDays,
	}
}

// UpdateSettings validates and persists a partial settings change.
func (t *Tracker) UpdateSettings(p settings.Partial) (settings.Settings, error) {
	s, err := t.settings.Update(p)
	if err != nil {
		return s, fmt.Errorf("updating settings: %w", err)
	}
	return s, nil
}

// AddHolidays adds dates to the holiday set.
func (t *Tracker) AddHolidays(dates ...string) (settings.Settings, error) {
	s, err := t.settings.AddHolidays(dates...)
	if err != nil {
		return s, fmt.Errorf("adding holidays: %w", err)
	}
	return s, nil
}

// RemoveHolidays drops dates from the holiday set.
func (t *Tracker) RemoveHolidays(dates ...string) (settings.Settings, error) {
	s, err := t.settings.RemoveHolidays(dates...)
	if err != nil {
		return s, fmt.Errorf("removing holidays: %w", err)
	}
	return s, nil
}

// Import replaces the whole log with records.
func (t *Tracker) Import(records []punch.Record) error {
	if err := t.log.ReplaceAll(records); err != nil {
		if errors.Is(err, punch.ErrImport) {
			return err
		}
		return fmt.Errorf("importing records: %w", err)
	}
	return nil
}

// Export returns every record in timestamp order.
func (t *Tracker) Export() []punch.Record {
	return t.log.All()
}

// Tick is the result of a periodic refresh.
type Tick struct {
	Now     time.Time
	Status  DayStatus
	Journey *accounting.JourneyComplete
}

// Refresh re-reads the store, recomputes today's status and checks the daily
// journey. It never changes the event log.
func (t *Tracker) Refresh() (Tick, error) {
	if err := t.settings.Reload(); err != nil {
		return Tick{}, err
	}
	if err := t.log.Reload(); err != nil {
		return Tick{}, err
	}

	now := t.clock.Now()
	status, err := t.GetStatus("")
	if err != nil {
		return Tick{}, err
	}

	journey, err := t.journey.Check(status.Date, status.Records, now, t.settings.Get())
	if err != nil {
		return Tick{}, fmt.Errorf("checking daily journey: %w", err)
	}
	if journey != nil {
		status.JourneyDone = true
		t.logger.Info("daily journey complete", "date", journey.Date, "worked_minutes", journey.WorkedMinutes)
	}
	return Tick{Now: now, Status: status, Journey: journey}, nil
}
