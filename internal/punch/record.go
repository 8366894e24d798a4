// Package punch defines the punch record, its wire format and the domain
// error kinds shared by the event log, the accounting engine and the
// importers.
package punch

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/invopop/jsonschema"
)

// Kind is the closed set of punch events.
type Kind int

const (
	StartDay Kind = iota + 1
	BreakStart
	BreakEnd
	EndDay
)

// Kinds lists every punch kind in day order.
var Kinds = []Kind{StartDay, BreakStart, BreakEnd, EndDay}

var kindNames = map[Kind]string{
	StartDay:   "start",
	BreakStart: "break_start",
	BreakEnd:   "break_end",
	EndDay:     "end",
}

var kindLabels = map[Kind]string{
	StartDay:   "Start of day",
	BreakStart: "Break start",
	BreakEnd:   "Break end",
	EndDay:     "End of day",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Label is the human-readable name of the punch.
func (k Kind) Label() string {
	if s, ok := kindLabels[k]; ok {
		return s
	}
	return k.String()
}

func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind maps a wire name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, Validation("unknown-kind", "unknown punch type %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, Validation("unknown-kind", "unknown punch kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// JSONSchema describes Kind as its wire enumeration.
func (Kind) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(Kinds))
	for _, k := range Kinds {
		enum = append(enum, k.String())
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// Record is one timestamped punch.
type Record struct {
	ID            int64
	Kind          Kind
	Timestamp     time.Time
	Date          string
	Time          string
	Justification *string
}

// Wire is the JSON shape of a record in storage and in import/export files.
type Wire struct {
	ID            int64   `json:"id" jsonschema:"required"`
	Type          Kind    `json:"type" jsonschema:"required"`
	Timestamp     string  `json:"timestamp" jsonschema:"required,format=date-time"`
	Date          string  `json:"date" jsonschema:"required,pattern=^[0-9]{4}-[0-9]{2}-[0-9]{2}$"`
	Time          string  `json:"time" jsonschema:"required,pattern=^[0-9]{2}:[0-9]{2}$"`
	Justification *string `json:"justification" jsonschema:"nullable"`
}

// RequiredFields are the keys every stored or imported record must carry.
var RequiredFields = []string{"id", "type", "timestamp", "date", "time"}

// naive timestamps are written by older versions when a record was edited.
var naiveLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// ParseTimestamp accepts RFC 3339 instants and zone-less local timestamps,
// which are read in the host timezone.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(Wire{
		ID:            r.ID,
		Type:          r.Kind,
		Timestamp:     r.Timestamp.Format(time.RFC3339),
		Date:          r.Date,
		Time:          r.Time,
		Justification: r.Justification,
	})
}

func (r *Record) UnmarshalJSON(b []byte) error {
	var w Wire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	ts, err := ParseTimestamp(w.Timestamp)
	if err != nil {
		return err
	}
	*r = Record{
		ID:            w.ID,
		Kind:          w.Type,
		Timestamp:     ts,
		Date:          w.Date,
		Time:          w.Time,
		Justification: w.Justification,
	}
	return nil
}

// Validate checks that the required fields are present.
func (r Record) Validate() error {
	switch {
	case r.ID == 0:
		return Validation("missing-field", "record has no id")
	case !r.Kind.Valid():
		return Validation("missing-field", "record %d has no valid type", r.ID)
	case r.Timestamp.IsZero():
		return Validation("missing-field", "record %d has no timestamp", r.ID)
	case r.Date == "":
		return Validation("missing-field", "record %d has no date", r.ID)
	case r.Time == "":
		return Validation("missing-field", "record %d has no time", r.ID)
	}
	return nil
}

// HasJustification reports whether a non-empty justification is attached.
func (r Record) HasJustification() bool {
	return r.Justification != nil && *r.Justification != ""
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	if r.Justification != nil {
		j := *r.Justification
		r.Justification = &j
	}
	return r
}

// SortByTimestamp orders records by timestamp ascending, keeping the relative
// order of records with equal timestamps.
func SortByTimestamp(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}

// Sorted returns a sorted copy of records.
func Sorted(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	SortByTimestamp(out)
	return out
}

// IsSorted reports whether records are in timestamp order.
func IsSorted(records []Record) bool {
	return sort.SliceIsSorted(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
}

// Text returns a pointer to s, or nil for an empty string.
func Text(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
