// Package calendar imports holiday dates from iCalendar feeds.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/christopherklint97/punchr/internal/clock"
)

// Holiday is one event of the feed.
type Holiday struct {
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
}

// Dates returns the date-keys the holiday covers. The end of an event is
// exclusive, so a one-day all-day event covers exactly its start date.
func (h Holiday) Dates(zone clock.Zone) []string {
	start := zone.StartOfDay(h.Start)
	end := h.End
	if !end.After(h.Start) {
		return []string{zone.DateKey(h.Start)}
	}
	var dates []string
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, zone.DateKey(d))
	}
	return dates
}

// Open returns a reader for a URL or file path.
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		return resp.Body, nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("opening calendar file: %w", err)
	}
	return f, nil
}

// Parse decodes every event of an iCalendar stream. Times without a zone are
// read in zone.
func Parse(r io.Reader, zone clock.Zone) ([]Holiday, error) {
	dec := ical.NewDecoder(r)
	loc := zone.Location()
	var holidays []Holiday

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(loc)
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(loc)
			if err != nil {
				end = start
			}
			summary, _ := event.Props.Text(ical.PropSummary)

			allDay := false
			if p := event.Props.Get(ical.PropDateTimeStart); p != nil {
				allDay = p.ValueType() == ical.ValueDate
			}
			if allDay && !end.After(start) {
				end = start.AddDate(0, 0, 1)
			}

			holidays = append(holidays, Holiday{
				Summary: summary,
				Start:   start,
				End:     end,
				AllDay:  allDay,
			})
		}
	}
	return holidays, nil
}

// Holidays reads source and returns the sorted, distinct date-keys covered by
// its events.
func Holidays(ctx context.Context, source string, zone clock.Zone) ([]string, error) {
	r, err := Open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	events, err := Parse(r, zone)
	if err != nil {
		return nil, err
	}
	return DateKeys(events, zone), nil
}

// DateKeys flattens holidays into sorted, distinct date-keys.
func DateKeys(holidays []Holiday, zone clock.Zone) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range holidays {
		for _, d := range h.Dates(zone) {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Strings(out)
	return out
}
