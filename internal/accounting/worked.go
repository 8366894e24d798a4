// Package accounting turns a day's punches into worked time, breaks,
// overtime and journey-completion signals. Apart from the journey marker, all
// functions are pure over (records, settings, now).
package accounting

import (
	"fmt"
	"time"

	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
)

const minutesPerDay = 24 * 60

// WorkedDuration sums the closed work segments of records. StartDay and
// BreakEnd open a segment, BreakStart and EndDay close it. A segment still
// open at the end contributes nothing.
func WorkedDuration(records []punch.Record) time.Duration {
	var (
		total time.Duration
		open  *time.Time
	)
	for _, r := range punch.Sorted(records) {
		switch r.Kind {
		case punch.StartDay, punch.BreakEnd:
			ts := r.Timestamp
			open = &ts
		case punch.BreakStart, punch.EndDay:
			if open != nil {
				total += r.Timestamp.Sub(*open)
				open = nil
			}
		}
	}
	return total
}

// WorkedMinutes is WorkedDuration in whole minutes.
func WorkedMinutes(records []punch.Record) int {
	return int(WorkedDuration(records) / time.Minute)
}

// BreakMinutes pairs the n-th BreakStart with the n-th BreakEnd by position
// and sums the spans on the records' wall-clock times. Unmatched starts count
// as zero.
func BreakMinutes(records []punch.Record) int {
	var starts, ends []string
	for _, r := range punch.Sorted(records) {
		switch r.Kind {
		case punch.BreakStart:
			starts = append(starts, r.Time)
		case punch.BreakEnd:
			ends = append(ends, r.Time)
		}
	}

	total := 0
	for i, s := range starts {
		if i >= len(ends) {
			break
		}
		total += span(s, ends[i])
	}
	return total
}

// LiveWorkedMinutes measures from the first StartDay to the first EndDay, or
// to now in zone while the day is still open, minus break minutes. It is
// zero before the day has started and never negative.
func LiveWorkedMinutes(records []punch.Record, now time.Time, zone clock.Zone) int {
	sorted := punch.Sorted(records)
	start := first(sorted, punch.StartDay)
	if start == nil {
		return 0
	}

	endTime := zone.TimeOfDay(now)
	if end := first(sorted, punch.EndDay); end != nil {
		endTime = end.Time
	}

	worked := span(start.Time, endTime) - BreakMinutes(sorted)
	return max(0, worked)
}

// span is the minutes from a to b on a 24h clock; b before a wraps past
// midnight. Unparseable times count as zero.
func span(a, b string) int {
	am, err := clock.ParseTimeOfDay(a)
	if err != nil {
		return 0
	}
	bm, err := clock.ParseTimeOfDay(b)
	if err != nil {
		return 0
	}
	d := bm - am
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

func first(records []punch.Record, k punch.Kind) *punch.Record {
	for i := range records {
		if records[i].Kind == k {
			return &records[i]
		}
	}
	return nil
}

// FormatMinutes renders minutes as "Xh Ymin".
func FormatMinutes(m int) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%dh %dmin", sign, m/60, m%60)
}
