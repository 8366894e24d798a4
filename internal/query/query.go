// Package query filters the event log by period, groups records by calendar
// date and pages through the date groups.
package query

import (
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
)

// DefaultPageSize is the number of days per history page.
const DefaultPageSize = 10

type Period string

const (
	Today Period = "today"
	Week  Period = "week"
	Month Period = "month"
	All   Period = "all"
)

// Periods lists the periods in cycling order.
var Periods = []Period{Today, Week, Month, All}

// ParsePeriod maps a name to a Period; unknown names mean All.
func ParsePeriod(s string) Period {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case Today:
		return Today
	case Week:
		return Week
	case Month:
		return Month
	default:
		return All
	}
}

// Window is the trailing span a period covers, zero for Today and All.
func (p Period) Window() time.Duration {
	switch p {
	case Week:
		return 7 * 24 * time.Hour
	case Month:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Scope is the overtime baseline the period uses.
func (p Period) Scope() accounting.Scope {
	if p == Week {
		return accounting.PerWeek
	}
	return accounting.PerDay
}

// Predicate returns the period filter evaluated at now. Windowed periods
// keep records in [now-window, now].
func (p Period) Predicate(now time.Time, zone clock.Zone) func(punch.Record) bool {
	switch p {
	case Today:
		today := zone.DateKey(now)
		return func(r punch.Record) bool { return r.Date == today }
	case Week, Month:
		cutoff := now.Add(-p.Window())
		return func(r punch.Record) bool {
			return !r.Timestamp.Before(cutoff) && !r.Timestamp.After(now)
		}
	default:
		return func(punch.Record) bool { return true }
	}
}

// FilterByPeriod keeps the records of seq that fall inside the period.
func FilterByPeriod(seq iter.Seq[punch.Record], p Period, now time.Time, zone clock.Zone) []punch.Record {
	keep := p.Predicate(now, zone)
	var out []punch.Record
	for r := range seq {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// GroupByDate partitions records by date-key, preserving their order within
// each date.
func GroupByDate(records []punch.Record) map[string][]punch.Record {
	grouped := make(map[string][]punch.Record)
	for _, r := range records {
		grouped[r.Date] = append(grouped[r.Date], r)
	}
	return grouped
}

// Day is one date group of a page.
type Day struct {
	Date    string
	Records []punch.Record
}

// Page is a slice of date groups, most recent date first.
type Page struct {
	Days       []Day
	Page       int
	PageSize   int
	TotalPages int
	TotalDays  int
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Page < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Page > 1 }

// Paginate orders the dates descending and returns the requested page. A
// page outside [1, TotalPages] falls back to the first page.
func Paginate(grouped map[string][]punch.Record, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	dates := make([]string, 0, len(grouped))
	for d := range grouped {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	totalPages := (len(dates) + pageSize - 1) / pageSize
	if page < 1 || page > totalPages {
		page = 1
	}

	start := min((page-1)*pageSize, len(dates))
	end := min(page*pageSize, len(dates))

	days := make([]Day, 0, end-start)
	for _, d := range dates[start:end] {
		days = append(days, Day{Date: d, Records: grouped[d]})
	}

	return Page{
		Days:       days,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalDays:  len(dates),
	}
}
