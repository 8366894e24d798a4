package query

import (
	"fmt"
	"slices"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
)

var utc = clock.InLocation(time.UTC)

func rec(id int64, date, hhmm string) punch.Record {
	ts, err := utc.Combine(date, hhmm)
	if err != nil {
		panic(err)
	}
	return punch.Record{ID: id, Kind: punch.StartDay, Timestamp: ts, Date: date, Time: hhmm}
}

func TestParsePeriod(t *testing.T) {
	assert.Equal(t, Today, ParsePeriod("today"))
	assert.Equal(t, Week, ParsePeriod(" Week "))
	assert.Equal(t, Month, ParsePeriod("month"))
	assert.Equal(t, All, ParsePeriod("all"))
	assert.Equal(t, All, ParsePeriod("fortnight"))
	assert.Equal(t, All, ParsePeriod(""))

	assert.Equal(t, accounting.PerWeek, Week.Scope())
	assert.Equal(t, accounting.PerDay, Month.Scope())
}

func TestFilterByPeriod(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	records := []punch.Record{
		rec(1, "2024-02-01", "09:00"), // 59 days ago
		rec(2, "2024-03-01", "12:00"), // exactly 30 days ago
		rec(3, "2024-03-24", "11:59"), // just outside the week
		rec(4, "2024-03-24", "12:00"), // exactly 7 days ago
		rec(5, "2024-03-31", "08:00"), // today
		rec(6, "2024-03-31", "13:00"), // later today, in the future
	}
	seq := slices.Values(records)

	ids := func(rs []punch.Record) []int64 {
		var out []int64
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	assert.Equal(t, []int64{5, 6}, ids(FilterByPeriod(seq, Today, now, utc)))
	assert.Equal(t, []int64{4, 5}, ids(FilterByPeriod(seq, Week, now, utc)))
	assert.Equal(t, []int64{2, 3, 4, 5}, ids(FilterByPeriod(seq, Month, now, utc)))
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, ids(FilterByPeriod(seq, All, now, utc)))
}

func TestFilterByPeriod_TodayUsesZone(t *testing.T) {
	tokyo, err := clock.ResolveZone("Asia/Tokyo")
	require.NoError(t, err)

	// 20:00 UTC on the 30th is already the 31st in Tokyo.
	now := time.Date(2024, 3, 30, 20, 0, 0, 0, time.UTC)
	r := punch.Record{ID: 1, Kind: punch.StartDay, Timestamp: now, Date: tokyo.DateKey(now), Time: tokyo.TimeOfDay(now)}

	got := FilterByPeriod(slices.Values([]punch.Record{r}), Today, now, tokyo)
	assert.Len(t, got, 1)
	assert.Empty(t, FilterByPeriod(slices.Values([]punch.Record{r}), Today, now, utc))
}

func TestGroupByDate_PreservesOrder(t *testing.T) {
	records := []punch.Record{
		rec(1, "2024-03-04", "09:00"),
		rec(2, "2024-03-05", "09:00"),
		rec(3, "2024-03-04", "17:00"),
	}
	grouped := GroupByDate(records)
	require.Len(t, grouped, 2)
	assert.Equal(t, int64(1), grouped["2024-03-04"][0].ID)
	assert.Equal(t, int64(3), grouped["2024-03-04"][1].ID)
}

func groupedDays(n int) map[string][]punch.Record {
	grouped := make(map[string][]punch.Record)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range n {
		d := utc.DateKey(start.AddDate(0, 0, i))
		grouped[d] = []punch.Record{rec(int64(i+1), d, "09:00")}
	}
	return grouped
}

func TestPaginate(t *testing.T) {
	grouped := groupedDays(25)

	p := Paginate(grouped, 1, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 25, p.TotalDays)
	require.Len(t, p.Days, 10)
	assert.Equal(t, "2024-01-25", p.Days[0].Date)
	assert.Equal(t, "2024-01-16", p.Days[9].Date)
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrev())

	last := Paginate(grouped, 3, 10)
	require.Len(t, last.Days, 5)
	assert.Equal(t, "2024-01-01", last.Days[4].Date)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrev())
}

func TestPaginate_OutOfRangeIsFirstPage(t *testing.T) {
	grouped := groupedDays(25)
	first := Paginate(grouped, 1, 10)

	for _, page := range []int{0, -3, 4, 100} {
		t.Run(fmt.Sprint(page), func(t *testing.T) {
			assert.Equal(t, first, Paginate(grouped, page, 10))
		})
	}
}

func TestPaginate_Defaults(t *testing.T) {
	p := Paginate(groupedDays(12), 1, 0)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, 2, p.TotalPages)

	empty := Paginate(nil, 1, 10)
	assert.Zero(t, empty.TotalPages)
	assert.Empty(t, empty.Days)
	assert.Equal(t, 1, empty.Page)
}
