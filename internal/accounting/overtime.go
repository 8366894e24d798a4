package accounting

import (
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/settings"
)

// Scope selects how the standard-minutes baseline is built.
type Scope int

const (
	// PerDay adds the daily target for every worked non-holiday date.
	PerDay Scope = iota
	// PerWeek starts from the weekly target and removes one daily target per
	// holiday in the group.
	PerWeek
)

// StandardMinutes is the expected worked time for the given set of worked
// dates.
func StandardMinutes(scope Scope, dates []string, s settings.Settings) int {
	daily := s.DailyTargetMinutes()
	switch scope {
	case PerWeek:
		holidays := 0
		for _, d := range dates {
			if s.IsHoliday(d) {
				holidays++
			}
		}
		return max(0, s.WeeklyTargetMinutes()-holidays*daily)
	default:
		total := 0
		for _, d := range dates {
			if !s.IsHoliday(d) {
				total += daily
			}
		}
		return total
	}
}

// Overtime is the worked time above the baseline, never negative.
func Overtime(totalMinutes, standardMinutes int) int {
	return max(0, totalMinutes-standardMinutes)
}

// Statistics aggregates a period.
type Statistics struct {
	TotalMinutes    int
	StandardMinutes int
	OvertimeMinutes int
	WorkDays        int
}

// Summarize computes the period statistics over records grouped by date.
func Summarize(scope Scope, grouped map[string][]punch.Record, s settings.Settings) Statistics {
	dates := make([]string, 0, len(grouped))
	total := 0
	for date, day := range grouped {
		dates = append(dates, date)
		total += WorkedMinutes(day)
	}
	standard := StandardMinutes(scope, dates, s)
	return Statistics{
		TotalMinutes:    total,
		StandardMinutes: standard,
		OvertimeMinutes: Overtime(total, standard),
		WorkDays:        len(grouped),
	}
}
