// Package tui is the interactive history browser behind punchr history -i.
package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/query"
	"github.com/christopherklint97/punchr/internal/tracker"
)

// Backend is the tracker surface the browser needs.
type Backend interface {
	GetPaginatedHistory(period query.Period, page int) tracker.History
	EditJustificationAndTime(id int64, text *string, newTime, newDate string) (punch.Record, error)
	DeleteRecord(id int64) (bool, error)
}

type viewState int

const (
	browseView viewState = iota
	editView
	confirmDeleteView
)

type App struct {
	backend Backend
	keys    keyMap
	help    help.Model
	state   viewState

	period  query.Period
	page    int
	history tracker.History
	cursor  int
	edit    editModel

	status string
	errMsg string
	width  int
}

func NewApp(backend Backend, period query.Period) *App {
	a := &App{
		backend: backend,
		keys:    defaultKeyMap(),
		help:    help.New(),
		period:  period,
		page:    1,
	}
	a.reload()
	return a
}

func (a *App) Init() tea.Cmd {
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.help.Width = msg.Width
		return a, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	switch a.state {
	case editView:
		return a.updateEdit(msg)
	case confirmDeleteView:
		return a.updateConfirmDelete(msg)
	}
	return a.updateBrowse(msg)
}

func (a *App) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	a.errMsg = ""

	switch {
	case key.Matches(keyMsg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(keyMsg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	case key.Matches(keyMsg, a.keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(keyMsg, a.keys.Down):
		if a.cursor < len(a.records())-1 {
			a.cursor++
		}
	case key.Matches(keyMsg, a.keys.Next):
		if a.history.HasNext() {
			a.goTo(a.page + 1)
		}
	case key.Matches(keyMsg, a.keys.Prev):
		if a.history.HasPrev() {
			a.goTo(a.page - 1)
		}
	case key.Matches(keyMsg, a.keys.First):
		a.goTo(1)
	case key.Matches(keyMsg, a.keys.Last):
		a.goTo(max(1, a.history.TotalPages))
	case key.Matches(keyMsg, a.keys.Period):
		a.period = nextPeriod(a.period)
		a.goTo(1)
	case key.Matches(keyMsg, a.keys.Edit):
		if r, ok := a.selected(); ok {
			a.edit = newEditModel(r)
			a.state = editView
			return a, a.edit.inputs[editJustification].Focus()
		}
	case key.Matches(keyMsg, a.keys.Delete):
		if _, ok := a.selected(); ok {
			a.state = confirmDeleteView
		}
	}
	return a, nil
}

func (a *App) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			a.state = browseView
			return a, nil
		case "enter":
			text, hhmm, date := a.edit.values()
			rec, err := a.backend.EditJustificationAndTime(a.edit.record.ID, text, hhmm, date)
			if err != nil {
				a.errMsg = err.Error()
				return a, nil
			}
			a.state = browseView
			a.status = fmt.Sprintf("Updated %s punch at %s %s", rec.Kind.Label(), rec.Date, rec.Time)
			a.reload()
			return a, nil
		}
	}

	var cmd tea.Cmd
	a.edit, cmd = a.edit.Update(msg)
	return a, cmd
}

func (a *App) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}
	a.state = browseView
	if keyMsg.String() != "y" {
		a.status = "Delete cancelled"
		return a, nil
	}

	r, ok := a.selected()
	if !ok {
		return a, nil
	}
	if _, err := a.backend.DeleteRecord(r.ID); err != nil {
		a.errMsg = err.Error()
		return a, nil
	}
	a.status = fmt.Sprintf("Deleted %s punch at %s %s", r.Kind.Label(), r.Date, r.Time)
	a.reload()
	return a, nil
}

func (a *App) goTo(page int) {
	a.page = page
	a.cursor = 0
	a.reload()
}

func (a *App) reload() {
	a.history = a.backend.GetPaginatedHistory(a.period, a.page)
	a.page = a.history.Page
	if n := len(a.records()); a.cursor >= n {
		a.cursor = max(0, n-1)
	}
}

// records flattens the page in display order.
func (a *App) records() []punch.Record {
	var out []punch.Record
	for _, d := range a.history.Days {
		out = append(out, d.Records...)
	}
	return out
}

func (a *App) selected() (punch.Record, bool) {
	records := a.records()
	if a.cursor < 0 || a.cursor >= len(records) {
		return punch.Record{}, false
	}
	return records[a.cursor], true
}

// Period is the period currently shown.
func (a *App) Period() query.Period { return a.period }

// Page is the page currently shown.
func (a *App) Page() int { return a.page }

func nextPeriod(p query.Period) query.Period {
	i := slices.Index(query.Periods, p)
	return query.Periods[(i+1)%len(query.Periods)]
}

func (a *App) View() string {
	switch a.state {
	case editView:
		v := a.edit.View()
		if a.errMsg != "" {
			v += "\n" + errorStyle.Render("Error: ") + a.errMsg
		}
		return v
	case confirmDeleteView:
		r, _ := a.selected()
		return warningStyle.Render(fmt.Sprintf("Delete %s punch at %s %s?", r.Kind.Label(), r.Date, r.Time)) +
			"\n\n" + helpStyle.Render("y: delete • any other key: cancel")
	}
	return a.browseView()
}

func (a *App) browseView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("punchr history"))
	sb.WriteString("\n")
	sb.WriteString(subtitleStyle.Render(fmt.Sprintf("Period: %s • Page %d of %d • %d days",
		a.period, a.history.Page, max(1, a.history.TotalPages), a.history.TotalDays)))
	sb.WriteString("\n\n")

	if len(a.history.Days) == 0 {
		sb.WriteString(dimStyle.Render("No records in this period."))
		sb.WriteString("\n")
	}

	i := 0
	for _, d := range a.history.Days {
		header := dateStyle.Render(d.Date) + "  " + dimStyle.Render(accounting.FormatMinutes(d.WorkedMinutes))
		if d.Holiday {
			header += "  " + warningStyle.Render("holiday")
		}
		sb.WriteString(header)
		sb.WriteString("\n")

		for _, r := range d.Records {
			prefix := "  "
			if i == a.cursor {
				prefix = "> "
			}
			line := fmt.Sprintf("%s%s  %-14s", prefix, r.Time, r.Kind.Label())
			if r.Justification != nil {
				line += " " + *r.Justification
			}
			if i == a.cursor {
				line = selectedStyle.Render(line)
			}
			sb.WriteString(line)
			sb.WriteString("\n")
			i++
		}
	}

	if a.status != "" {
		sb.WriteString("\n" + successStyle.Render(a.status) + "\n")
	}
	if a.errMsg != "" {
		sb.WriteString("\n" + errorStyle.Render("Error: ") + a.errMsg + "\n")
	}

	sb.WriteString(helpStyle.Render(a.help.View(a.keys)))
	return sb.String()
}
