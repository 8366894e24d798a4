package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/punchr/internal/clock"
)

const holidaysICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//punchr//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:christmas@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20241224\r\n" +
	"DTEND;VALUE=DATE:20241227\r\n" +
	"SUMMARY:Christmas\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:midsummer@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240621\r\n" +
	"SUMMARY:Midsummer Eve\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:offsite@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART:20240315T090000Z\r\n" +
	"DTEND:20240315T170000Z\r\n" +
	"SUMMARY:Offsite\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

var utc = clock.InLocation(time.UTC)

func TestParse(t *testing.T) {
	events, err := Parse(strings.NewReader(holidaysICS), utc)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "Christmas", events[0].Summary)
	assert.True(t, events[0].AllDay)
	assert.Equal(t, []string{"2024-12-24", "2024-12-25", "2024-12-26"}, events[0].Dates(utc))

	assert.True(t, events[1].AllDay)
	assert.Equal(t, []string{"2024-06-21"}, events[1].Dates(utc))

	assert.False(t, events[2].AllDay)
	assert.Equal(t, []string{"2024-03-15"}, events[2].Dates(utc))
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse(strings.NewReader("BEGIN:VCALENDAR\r\nthis is not ical\r\n"), utc)
	assert.Error(t, err)
}

func TestHolidays_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.ics")
	require.NoError(t, os.WriteFile(path, []byte(holidaysICS), 0o644))

	dates, err := Holidays(context.Background(), path, utc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-15", "2024-06-21", "2024-12-24", "2024-12-25", "2024-12-26"}, dates)
}

func TestHolidays_URL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/holidays.ics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(holidaysICS))
	}))
	defer srv.Close()

	dates, err := Holidays(context.Background(), srv.URL+"/holidays.ics", utc)
	require.NoError(t, err)
	assert.Len(t, dates, 5)

	_, err = Holidays(context.Background(), srv.URL+"/missing.ics", utc)
	assert.ErrorContains(t, err, "status 404")
}

func TestHolidays_MissingFile(t *testing.T) {
	_, err := Holidays(context.Background(), filepath.Join(t.TempDir(), "nope.ics"), utc)
	assert.Error(t, err)
}

func TestDateKeys_Dedupes(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	got := DateKeys([]Holiday{
		{Start: day, End: day.AddDate(0, 0, 1), AllDay: true},
		{Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)},
	}, utc)
	assert.Equal(t, []string{"2024-05-01"}, got)
}
