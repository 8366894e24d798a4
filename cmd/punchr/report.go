package main

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/query"
	"github.com/christopherklint97/punchr/internal/tracker"
	"github.com/christopherklint97/punchr/internal/tui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the punches and worked time of a day",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show worked time and overtime for a period",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List punches grouped by day",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	statusCmd.Flags().String("date", "", "Date to show (YYYY-MM-DD, default today)")
	statsCmd.Flags().StringP("period", "p", "", "today, week, month or all (default from config)")
	historyCmd.Flags().StringP("period", "p", "", "today, week, month or all (default from config)")
	historyCmd.Flags().Int("page", 1, "Page number")
	historyCmd.Flags().BoolP("interactive", "i", false, "Browse interactively")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
}

func periodFlag(cmd *cobra.Command, a *app) query.Period {
	v, _ := cmd.Flags().GetString("period")
	if v == "" {
		v = a.cfg.History.DefaultPeriod
	}
	return query.ParsePeriod(v)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	date, _ := cmd.Flags().GetString("date")
	st, err := a.tracker.GetStatus(date)
	if err != nil {
		return err
	}
	printStatus(cmd.OutOrStdout(), st)
	return nil
}

func printStatus(w io.Writer, st tracker.DayStatus) {
	header := st.Date + "  " + st.State.String()
	if st.Holiday {
		header += "  (holiday)"
	}
	fmt.Fprintln(w, tui.HeaderStyle.Render(header))

	if len(st.Records) == 0 {
		fmt.Fprintln(w, tui.LabelStyle.Render("No punches."))
	}
	for _, r := range st.Records {
		line := fmt.Sprintf("  %s  %-14s %d", r.Time, r.Kind.Label(), r.ID)
		if r.Justification != nil {
			line += "  " + *r.Justification
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintln(w)
	row(w, "Worked", accounting.FormatMinutes(st.LiveMinutes))
	row(w, "Breaks", accounting.FormatMinutes(st.BreakMinutes))
	row(w, "Target", accounting.FormatMinutes(st.TargetMinutes))
	if over := accounting.Overtime(st.LiveMinutes, st.TargetMinutes); over > 0 {
		row(w, "Overtime", tui.SuccessStyle.Render(accounting.FormatMinutes(over)))
	} else {
		row(w, "Remaining", accounting.FormatMinutes(st.Remaining()))
	}
	if len(st.Allowed) > 0 {
		row(w, "Next", allowedLabel(st.Allowed))
	}
}

func allowedLabel(kinds []punch.Kind) string {
	cmds := map[punch.Kind]string{
		punch.StartDay:   "start",
		punch.BreakStart: "break",
		punch.BreakEnd:   "return",
		punch.EndDay:     "end",
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = "punchr " + cmds[k]
	}
	return strings.Join(names, ", ")
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%s %s\n", tui.LabelStyle.Render(fmt.Sprintf("%-10s", label+":")), tui.ValueStyle.Render(value))
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	period := periodFlag(cmd, a)
	s := a.tracker.GetStatistics(period)

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, tui.HeaderStyle.Render("Statistics: "+string(period)))
	row(w, "Worked", accounting.FormatMinutes(s.TotalMinutes))
	row(w, "Standard", accounting.FormatMinutes(s.StandardMinutes))
	row(w, "Overtime", accounting.FormatMinutes(s.OvertimeMinutes))
	row(w, "Days", fmt.Sprint(s.WorkDays))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	period := periodFlag(cmd, a)
	if i, _ := cmd.Flags().GetBool("interactive"); i {
		p := tea.NewProgram(tui.NewApp(a.tracker, period))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	}

	page, _ := cmd.Flags().GetInt("page")
	printHistory(cmd.OutOrStdout(), a.tracker.GetPaginatedHistory(period, page))
	return nil
}

func printHistory(w io.Writer, h tracker.History) {
	fmt.Fprintln(w, tui.HeaderStyle.Render(fmt.Sprintf("History: %s, page %d of %d (%d days)",
		h.Period, h.Page, max(1, h.TotalPages), h.TotalDays)))

	if len(h.Days) == 0 {
		fmt.Fprintln(w, tui.LabelStyle.Render("No records in this period."))
		return
	}
	for _, d := range h.Days {
		header := d.Date + "  " + accounting.FormatMinutes(d.WorkedMinutes)
		if d.Holiday {
			header += "  holiday"
		}
		fmt.Fprintln(w, tui.ValueStyle.Render(header))
		for _, r := range d.Records {
			line := fmt.Sprintf("  %s  %-14s %d", r.Time, r.Kind.Label(), r.ID)
			if r.Justification != nil {
				line += "  " + *r.Justification
			}
			fmt.Fprintln(w, line)
		}
	}
	if h.HasNext() {
		fmt.Fprintln(w, tui.LabelStyle.Render(fmt.Sprintf("More: --page %d", h.Page+1)))
	}
}
