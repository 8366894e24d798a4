package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tj/go-naturaldate"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/tui"
)

func newPunchCmd(use, short string, kind punch.Kind) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPunch(cmd, kind)
		},
	}
	cmd.Flags().String("at", "", `Effective time: HH:MM today, or natural language such as "yesterday 5pm"`)
	cmd.Flags().StringP("note", "n", "", "Justification text")
	return cmd
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a punch's justification, time or date",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a punch",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(newPunchCmd("start", "Start the work day", punch.StartDay))
	rootCmd.AddCommand(newPunchCmd("break", "Start a break", punch.BreakStart))
	rootCmd.AddCommand(newPunchCmd("return", "Return from a break", punch.BreakEnd))
	rootCmd.AddCommand(newPunchCmd("end", "End the work day", punch.EndDay))

	editCmd.Flags().StringP("note", "n", "", "New justification text")
	editCmd.Flags().Bool("clear-note", false, "Remove the justification")
	editCmd.Flags().String("time", "", "New time (HH:MM)")
	editCmd.Flags().String("date", "", "New date (YYYY-MM-DD)")
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(deleteCmd)
}

// parseAt resolves the --at value against now. HH:MM means that time today
// in zone. Anything else goes through natural-language parsing, preferring
// the past.
func parseAt(s string, now time.Time, zone clock.Zone) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if _, err := clock.ParseTimeOfDay(s); err == nil {
		return zone.Combine(zone.DateKey(now), s)
	}
	t, err := naturaldate.Parse(s, zone.In(now), naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}

func runPunch(cmd *cobra.Command, kind punch.Kind) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	atFlag, _ := cmd.Flags().GetString("at")
	note, _ := cmd.Flags().GetString("note")

	at, err := parseAt(atFlag, a.tracker.Now(), a.tracker.Zone())
	if err != nil {
		return err
	}

	res, err := a.tracker.RegisterPunch(kind, at)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s at %s %s (id %d)\n",
		tui.SuccessStyle.Render("✓"), kind.Label(), res.Record.Date, res.Record.Time, res.Record.ID)

	if note == "" && res.NeedsJustification && interactive() {
		note = prompt(cmd.InOrStdin(), out, tui.WarningStyle.Render("Outside normal hours. Justification (empty to skip):"))
	}
	if note != "" {
		if _, err := a.tracker.EditJustificationAndTime(res.Record.ID, &note, "", ""); err != nil {
			return err
		}
		fmt.Fprintln(out, tui.LabelStyle.Render("Justification saved."))
	}

	if res.Journey != nil {
		fmt.Fprintln(out, tui.SuccessStyle.Render(res.Journey.Message()))
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, punch.Validation("id", "invalid record id %q", s)
	}
	return id, nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var text *string
	if cmd.Flags().Changed("note") {
		v, _ := cmd.Flags().GetString("note")
		text = &v
	}
	if clearNote, _ := cmd.Flags().GetBool("clear-note"); clearNote {
		empty := ""
		text = &empty
	}
	newTime, _ := cmd.Flags().GetString("time")
	newDate, _ := cmd.Flags().GetString("date")

	if text == nil && newTime == "" && newDate == "" {
		return fmt.Errorf("nothing to change: pass --note, --clear-note, --time or --date")
	}

	rec, err := a.tracker.EditJustificationAndTime(id, text, newTime, newDate)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s now at %s %s\n",
		tui.SuccessStyle.Render("✓"), rec.Kind.Label(), rec.Date, rec.Time)
	return nil
}

type recordGetter interface {
	Record(id int64) (punch.Record, error)
}

// lookupRecord reports found=false only when the id is absent.
func lookupRecord(g recordGetter, id int64) (rec punch.Record, found bool, err error) {
	rec, err = g.Record(id)
	switch {
	case errors.Is(err, punch.ErrNotFound):
		return punch.Record{}, false, nil
	case err != nil:
		return punch.Record{}, false, fmt.Errorf("looking up record %d: %w", id, err)
	}
	return rec, true, nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rec, found, err := lookupRecord(a.tracker, id)
	if err != nil {
		return err
	}
	if !found {
		// Deleting an unknown record is a no-op.
		fmt.Fprintf(cmd.OutOrStdout(), "No record with id %d.\n", id)
		return nil
	}

	yes, _ := cmd.Flags().GetBool("yes")
	question := fmt.Sprintf("Delete %s punch at %s %s?", rec.Kind.Label(), rec.Date, rec.Time)
	if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}

	if _, err := a.tracker.DeleteRecord(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s punch at %s %s\n",
		tui.SuccessStyle.Render("✓"), rec.Kind.Label(), rec.Date, rec.Time)

	status, err := a.tracker.GetStatus(rec.Date)
	if err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s now totals %s\n", rec.Date, accounting.FormatMinutes(status.WorkedMinutes))
	}
	return nil
}
