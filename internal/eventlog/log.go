// Package eventlog is the ordered, capacity-bounded collection of punch
// records. Every mutation is validated, re-sorted and written through to the
// key/value store before it returns.
package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/store"
)

const (
	// Key is the KV key the record array is stored under.
	Key = "timeRecords"
	// MaxRecords is the retention cap; the oldest records are evicted first.
	MaxRecords = 1000
)

var errCorrupt = errors.New("stored records are corrupt")

// Log is the in-memory event log backed by a KV store.
type Log struct {
	mu      sync.RWMutex
	kv      store.KV
	records []punch.Record
	max     int
	logger  *slog.Logger
}

// Option configures a Log.
type Option func(*Log)

// WithCapacity overrides MaxRecords.
func WithCapacity(n int) Option {
	return func(l *Log) {
		if n > 0 {
			l.max = n
		}
	}
}

// Load reads the stored records. A missing key yields an empty log. A corrupt
// blob is copied aside under Key+".corrupt" and the log starts empty.
func Load(kv store.KV, logger *slog.Logger, opts ...Option) (*Log, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Log{kv: kv, max: MaxRecords, logger: logger}
	for _, opt := range opts {
		opt(l)
	}

	records, raw, err := l.read()
	if err != nil {
		if !errors.Is(err, errCorrupt) {
			return nil, err
		}
		backup := Key + ".corrupt"
		if berr := kv.SetState(backup, raw); berr != nil {
			return nil, punch.Storage("backing up corrupt records", berr)
		}
		logger.Warn("stored records are corrupt, starting empty", "backup_key", backup, "error", err)
		return l, nil
	}
	l.records = records
	return l, nil
}

// Reload replaces the in-memory records with what the store holds now, so
// punches written by another process become visible. On any read error the
// current records are kept.
func (l *Log) Reload() error {
	records, _, err := l.read()
	if err != nil {
		return fmt.Errorf("reloading records: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	return nil
}

// read decodes the stored array, sorted and trimmed to capacity. raw is the
// stored blob, returned so a corrupt one can be backed up.
func (l *Log) read() (records []punch.Record, raw string, err error) {
	raw, ok, err := l.kv.GetState(Key)
	if err != nil {
		return nil, "", punch.Storage("loading records", err)
	}
	if !ok || raw == "" {
		return nil, raw, nil
	}
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, raw, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	punch.SortByTimestamp(records)
	return l.trim(records), raw, nil
}

// Len returns the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// All returns a copy of every record in timestamp order.
func (l *Log) All() []punch.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.records)
}

// Get returns the record with the given id.
func (l *Log) Get(id int64) (punch.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.index(id); i >= 0 {
		return l.records[i].Clone(), nil
	}
	return punch.Record{}, punch.NotFound(id)
}

// Query yields the records matching pred in timestamp order. Each range over
// the returned sequence walks the log as it is at that moment.
func (l *Log) Query(pred func(punch.Record) bool) iter.Seq[punch.Record] {
	return func(yield func(punch.Record) bool) {
		l.mu.RLock()
		snapshot := cloneAll(l.records)
		l.mu.RUnlock()

		for _, r := range snapshot {
			if pred != nil && !pred(r) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// OnDate returns the records of one date-key.
func (l *Log) OnDate(date string) []punch.Record {
	var out []punch.Record
	for r := range l.Query(func(r punch.Record) bool { return r.Date == date }) {
		out = append(out, r)
	}
	return out
}

// NextID returns an id derived from the instant that is not yet in use.
func (l *Log) NextID(at time.Time) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id := at.UnixMilli() + rand.Int64N(1000)
	for l.index(id) >= 0 || id == 0 {
		id++
	}
	return id
}

// Append validates r against the day's invariants, inserts it and persists.
func (l *Log) Append(r punch.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.index(r.ID) >= 0 {
		return punch.Validation("duplicate-id", "record id %d already exists", r.ID)
	}
	if err := checkDay(l.records, r); err != nil {
		return err
	}

	next := append(cloneAll(l.records), r.Clone())
	punch.SortByTimestamp(next)
	if len(next) > l.max {
		l.logger.Warn("record limit reached, evicting oldest records",
			"limit", l.max, "evicted", len(next)-l.max)
	}
	next = l.trim(next)

	if err := l.commit(next); err != nil {
		return err
	}
	l.logger.Debug("record appended", "id", r.ID, "type", r.Kind.String(), "date", r.Date, "time", r.Time)
	return nil
}

// checkDay enforces the per-date punch rules.
func checkDay(records []punch.Record, r punch.Record) error {
	starts, ends := 0, 0
	for _, e := range records {
		if e.Date != r.Date {
			continue
		}
		if e.Kind == r.Kind && e.Time == r.Time {
			return punch.Validation("duplicate-punch", "a %s punch at %s already exists on %s", r.Kind, r.Time, r.Date)
		}
		switch e.Kind {
		case punch.BreakStart:
			starts++
		case punch.BreakEnd:
			ends++
		}
	}
	if r.Kind == punch.BreakEnd && starts <= ends {
		return punch.Consistency("orphan-break-end", "no open break on %s", r.Date)
	}
	return nil
}

// Patch describes an edit. Nil Justification leaves it unchanged; an empty
// Time or Date keeps the current value.
type Patch struct {
	Justification *string
	Time          string
	Date          string
}

// Update applies p to the record with the given id. A new time or date is
// combined with the record's remaining field in zone to rebuild the timestamp.
func (l *Log) Update(id int64, p Patch, zone clock.Zone) (punch.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return punch.Record{}, punch.NotFound(id)
	}

	next := cloneAll(l.records)
	rec := &next[i]
	if p.Justification != nil {
		rec.Justification = punch.Text(*p.Justification)
	}
	if p.Time != "" || p.Date != "" {
		date, hhmm := rec.Date, rec.Time
		if p.Date != "" {
			date = p.Date
		}
		if p.Time != "" {
			hhmm = p.Time
		}
		ts, err := zone.Combine(date, hhmm)
		if err != nil {
			return punch.Record{}, punch.Validation("edit-time", "%v", err)
		}
		rec.Timestamp = ts
		rec.Date = zone.DateKey(ts)
		rec.Time = zone.TimeOfDay(ts)
	}
	updated := rec.Clone()
	punch.SortByTimestamp(next)

	if err := l.commit(next); err != nil {
		return punch.Record{}, err
	}
	l.logger.Debug("record updated", "id", id, "date", updated.Date, "time", updated.Time)
	return updated, nil
}

// Remove deletes the record with the given id. Removing an unknown id is a
// no-op and reports false.
func (l *Log) Remove(id int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(id)
	if i < 0 {
		return false, nil
	}
	next := cloneAll(l.records)
	next = append(next[:i], next[i+1:]...)
	if err := l.commit(next); err != nil {
		return false, err
	}
	l.logger.Debug("record removed", "id", id)
	return true, nil
}

// ReplaceAll overwrites the log with records. Nothing changes unless every
// record is well formed and the write succeeds.
func (l *Log) ReplaceAll(records []punch.Record) error {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return punch.Import("record %d: %v", i, err)
		}
	}

	next := cloneAll(records)
	punch.SortByTimestamp(next)
	next = l.trim(next)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.commit(next); err != nil {
		return err
	}
	l.logger.Info("records replaced", "count", len(next))
	return nil
}

// commit persists next and swaps it in. On failure the in-memory log is left
// as it was.
func (l *Log) commit(next []punch.Record) error {
	if next == nil {
		next = []punch.Record{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return punch.Storage("encoding records", err)
	}
	if err := l.kv.SetState(Key, string(data)); err != nil {
		return punch.Storage("saving records", err)
	}
	l.records = next
	return nil
}

func (l *Log) trim(records []punch.Record) []punch.Record {
	if len(records) > l.max {
		return records[len(records)-l.max:]
	}
	return records
}

func (l *Log) index(id int64) int {
	for i, r := range l.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(records []punch.Record) []punch.Record {
	out := make([]punch.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
