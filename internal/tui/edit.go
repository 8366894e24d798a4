package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/punchr/internal/punch"
)

type editField int

const (
	editJustification editField = iota
	editTime
	editDate
	editFieldCount
)

var editFieldNames = []string{"Justification", "Time", "Date"}

// editModel edits one record's justification, time and date.
type editModel struct {
	record punch.Record
	field  editField
	inputs []textinput.Model
}

func newEditModel(r punch.Record) editModel {
	inputs := make([]textinput.Model, editFieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 200
		ti.Width = 50
		inputs[i] = ti
	}
	inputs[editJustification].Placeholder = "Why was this punch outside normal hours?"
	if r.Justification != nil {
		inputs[editJustification].SetValue(*r.Justification)
	}
	inputs[editTime].Placeholder = "HH:MM"
	inputs[editTime].CharLimit = 5
	inputs[editTime].SetValue(r.Time)
	inputs[editDate].Placeholder = "YYYY-MM-DD"
	inputs[editDate].CharLimit = 10
	inputs[editDate].SetValue(r.Date)

	m := editModel{record: r, inputs: inputs}
	m.inputs[editJustification].Focus()
	return m
}

func (m editModel) Update(msg tea.Msg) (editModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			m.focus((m.field + 1) % editFieldCount)
			return m, textinput.Blink
		case "shift+tab", "up":
			m.focus((m.field + editFieldCount - 1) % editFieldCount)
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.inputs[m.field], cmd = m.inputs[m.field].Update(msg)
	return m, cmd
}

func (m *editModel) focus(f editField) {
	m.inputs[m.field].Blur()
	m.field = f
	m.inputs[m.field].Focus()
}

// values returns the edit in the form the tracker expects. Unchanged time or
// date come back empty.
func (m editModel) values() (text *string, hhmm, date string) {
	j := strings.TrimSpace(m.inputs[editJustification].Value())
	text = &j
	if v := strings.TrimSpace(m.inputs[editTime].Value()); v != m.record.Time {
		hhmm = v
	}
	if v := strings.TrimSpace(m.inputs[editDate].Value()); v != m.record.Date {
		date = v
	}
	return text, hhmm, date
}

func (m editModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Edit %s punch %d", m.record.Kind.Label(), m.record.ID)))
	sb.WriteString("\n")

	for i, in := range m.inputs {
		label := fmt.Sprintf("%-14s", editFieldNames[i])
		if editField(i) == m.field {
			label = selectedStyle.Render(label)
		} else {
			label = dimStyle.Render(label)
		}
		sb.WriteString(label + " " + in.View() + "\n")
	}

	sb.WriteString(helpStyle.Render("Enter: save • Tab: next field • Esc: cancel"))

	return boxStyle.Render(sb.String())
}
