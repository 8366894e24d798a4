package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/calendar"
	"github.com/christopherklint97/punchr/internal/settings"
	"github.com/christopherklint97/punchr/internal/tui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change work targets and preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsSet,
}

var holidaysCmd = &cobra.Command{
	Use:   "holidays",
	Short: "Manage holiday dates",
}

var holidaysAddCmd = &cobra.Command{
	Use:   "add <date>...",
	Short: "Mark dates (YYYY-MM-DD) as holidays",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHolidaysAdd,
}

var holidaysRemoveCmd = &cobra.Command{
	Use:   "remove <date>...",
	Short: "Unmark holiday dates",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHolidaysRemove,
}

var holidaysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List holiday dates",
	Args:  cobra.NoArgs,
	RunE:  runHolidaysList,
}

var holidaysImportCmd = &cobra.Command{
	Use:   "import <ics file or URL>",
	Short: "Add every date covered by an iCalendar feed",
	Args:  cobra.ExactArgs(1),
	RunE:  runHolidaysImport,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh live worked time periodically and notify when the day is done",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	settingsSetCmd.Flags().Float64("daily-hours", 0, "Daily target in hours")
	settingsSetCmd.Flags().Float64("weekly-hours", 0, "Weekly target in hours")
	settingsSetCmd.Flags().String("timezone", "", `IANA timezone, or "system"`)
	settingsSetCmd.Flags().Bool("justification-prompt", true, "Ask for a justification outside normal hours")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	holidaysCmd.AddCommand(holidaysAddCmd)
	holidaysCmd.AddCommand(holidaysRemoveCmd)
	holidaysCmd.AddCommand(holidaysListCmd)
	holidaysCmd.AddCommand(holidaysImportCmd)

	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(holidaysCmd)
	rootCmd.AddCommand(watchCmd)
}

func printSettings(w io.Writer, s settings.Settings) {
	tz := "system"
	if s.TimeZone != nil {
		tz = *s.TimeZone
	}
	fmt.Fprintln(w, tui.HeaderStyle.Render("Settings"))
	row(w, "Daily", fmt.Sprintf("%gh (%s)", s.DailyHours, accounting.FormatMinutes(s.DailyTargetMinutes())))
	row(w, "Weekly", fmt.Sprintf("%gh (%s)", s.WeeklyHours, accounting.FormatMinutes(s.WeeklyTargetMinutes())))
	row(w, "Holidays", fmt.Sprint(len(s.Holidays)))
	row(w, "Prompt", fmt.Sprint(s.ShowJustificationPopup))
	row(w, "Timezone", tz)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	printSettings(cmd.OutOrStdout(), a.tracker.Settings())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	var p settings.Partial
	flags := cmd.Flags()
	if flags.Changed("daily-hours") {
		v, _ := flags.GetFloat64("daily-hours")
		p.DailyHours = &v
	}
	if flags.Changed("weekly-hours") {
		v, _ := flags.GetFloat64("weekly-hours")
		p.WeeklyHours = &v
	}
	if flags.Changed("timezone") {
		v, _ := flags.GetString("timezone")
		if v == "system" {
			v = ""
		}
		p.TimeZone = &v
	}
	if flags.Changed("justification-prompt") {
		v, _ := flags.GetBool("justification-prompt")
		p.ShowJustificationPopup = &v
	}
	if p == (settings.Partial{}) {
		return fmt.Errorf("nothing to change: pass --daily-hours, --weekly-hours, --timezone or --justification-prompt")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.tracker.UpdateSettings(p)
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), s)
	return nil
}

func runHolidaysAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.tracker.AddHolidays(args...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d holidays\n", tui.SuccessStyle.Render("✓"), len(s.Holidays))
	return nil
}

func runHolidaysRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.tracker.RemoveHolidays(args...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d holidays\n", tui.SuccessStyle.Render("✓"), len(s.Holidays))
	return nil
}

func runHolidaysList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	holidays := a.tracker.Settings().Holidays
	if len(holidays) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No holidays.")
		return nil
	}
	for _, d := range holidays {
		fmt.Fprintln(cmd.OutOrStdout(), d)
	}
	return nil
}

func runHolidaysImport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	dates, err := calendar.Holidays(ctx, args[0], a.tracker.Zone())
	if err != nil {
		return fmt.Errorf("importing holidays: %w", err)
	}
	if len(dates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No events found.")
		return nil
	}

	before := len(a.tracker.Settings().Holidays)
	s, err := a.tracker.AddHolidays(dates...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d dates (%d new, %d holidays total)\n",
		tui.SuccessStyle.Render("✓"), len(dates), len(s.Holidays)-before, len(s.Holidays))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return newScheduler(a, cmd.OutOrStdout()).Run(ctx)
}
