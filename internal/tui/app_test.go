package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/query"
	"github.com/christopherklint97/punchr/internal/tracker"
)

type editCall struct {
	id         int64
	text       *string
	hhmm, date string
}

type fakeBackend struct {
	pages   int
	calls   []query.Period
	edits   []editCall
	deleted []int64
	editErr error
}

func (f *fakeBackend) GetPaginatedHistory(period query.Period, page int) tracker.History {
	f.calls = append(f.calls, period)
	page = min(max(page, 1), max(f.pages, 1))
	date := time.Date(2024, 3, 10-page, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	return tracker.History{
		Period:     period,
		Page:       page,
		PageSize:   1,
		TotalPages: f.pages,
		TotalDays:  f.pages,
		Days: []tracker.HistoryDay{{
			Day: query.Day{Date: date, Records: []punch.Record{
				{ID: int64(page*10 + 1), Kind: punch.StartDay, Date: date, Time: "09:00"},
				{ID: int64(page*10 + 2), Kind: punch.EndDay, Date: date, Time: "17:00"},
			}},
			WorkedMinutes: 480,
		}},
	}
}

func (f *fakeBackend) EditJustificationAndTime(id int64, text *string, hhmm, date string) (punch.Record, error) {
	f.edits = append(f.edits, editCall{id: id, text: text, hhmm: hhmm, date: date})
	if f.editErr != nil {
		return punch.Record{}, f.editErr
	}
	return punch.Record{ID: id, Kind: punch.StartDay, Date: "2024-03-09", Time: "09:00"}, nil
}

func (f *fakeBackend) DeleteRecord(id int64) (bool, error) {
	f.deleted = append(f.deleted, id)
	return true, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, a *App, msgs ...tea.Msg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var m tea.Model
		m, cmd = a.Update(msg)
		require.Same(t, a, m)
	}
	return cmd
}

func TestApp_Paging(t *testing.T) {
	b := &fakeBackend{pages: 3}
	a := NewApp(b, query.Week)
	assert.Equal(t, 1, a.Page())

	send(t, a, runes("b"))
	assert.Equal(t, 1, a.Page())

	send(t, a, runes("n"), runes("n"))
	assert.Equal(t, 3, a.Page())

	send(t, a, runes("n"))
	assert.Equal(t, 3, a.Page())

	send(t, a, runes("g"))
	assert.Equal(t, 1, a.Page())

	send(t, a, runes("G"))
	assert.Equal(t, 3, a.Page())
	assert.Contains(t, a.View(), "Page 3 of 3")
}

func TestApp_CyclesPeriod(t *testing.T) {
	b := &fakeBackend{pages: 2}
	a := NewApp(b, query.Week)
	send(t, a, runes("n"))

	send(t, a, runes("p"))
	assert.Equal(t, query.Month, a.Period())
	assert.Equal(t, 1, a.Page())

	send(t, a, runes("p"), runes("p"))
	assert.Equal(t, query.Today, a.Period())
	assert.Equal(t, query.Today, b.calls[len(b.calls)-1])
}

func TestApp_Quit(t *testing.T) {
	a := NewApp(&fakeBackend{pages: 1}, query.All)
	cmd := send(t, a, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_EditJustification(t *testing.T) {
	b := &fakeBackend{pages: 1}
	a := NewApp(b, query.Week)

	send(t, a, tea.KeyMsg{Type: tea.KeyDown}, runes("e"))
	assert.Contains(t, a.View(), "Edit End of day punch 12")

	send(t, a, runes("late deploy"), tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, b.edits, 1)
	got := b.edits[0]
	assert.Equal(t, int64(12), got.id)
	require.NotNil(t, got.text)
	assert.Equal(t, "late deploy", *got.text)
	assert.Empty(t, got.hhmm)
	assert.Empty(t, got.date)
	assert.Contains(t, a.View(), "Updated Start of day punch")
}

func TestApp_EditErrorStaysInEditor(t *testing.T) {
	b := &fakeBackend{pages: 1, editErr: errors.New("time must be HH:MM")}
	a := NewApp(b, query.Week)

	send(t, a, runes("e"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, editView, a.state)
	assert.Contains(t, a.View(), "time must be HH:MM")

	send(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, browseView, a.state)
}

func TestApp_Delete(t *testing.T) {
	b := &fakeBackend{pages: 1}
	a := NewApp(b, query.Week)

	send(t, a, runes("d"))
	assert.Contains(t, a.View(), "Delete Start of day punch")
	send(t, a, runes("n"))
	assert.Empty(t, b.deleted)
	assert.Contains(t, a.View(), "Delete cancelled")

	send(t, a, runes("d"), runes("y"))
	assert.Equal(t, []int64{11}, b.deleted)
}
