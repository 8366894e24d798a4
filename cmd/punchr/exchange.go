package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/punchr/internal/exchange"
	"github.com/christopherklint97/punchr/internal/notify"
	"github.com/christopherklint97/punchr/internal/scheduler"
	"github.com/christopherklint97/punchr/internal/tui"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace all punches with the contents of an export file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all punches to a JSON file (\"-\" for stdout)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the export file format",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func init() {
	importCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	records, err := exchange.ReadFile(args[0])
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	yes, _ := cmd.Flags().GetBool("yes")
	question := fmt.Sprintf("Replace %d existing punches with %d from %s?", len(a.tracker.Export()), len(records), args[0])
	if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
		return nil
	}

	if err := a.tracker.Import(records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Imported %d punches\n", tui.SuccessStyle.Render("✓"), len(a.tracker.Export()))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	records := a.tracker.Export()
	if len(args) == 1 && args[0] == "-" {
		return exchange.Encode(cmd.OutOrStdout(), records)
	}

	path := exchange.FileName(a.tracker.Today())
	if len(args) == 1 {
		path = args[0]
	}
	if err := exchange.WriteFile(path, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Exported %d punches to %s\n", tui.SuccessStyle.Render("✓"), len(records), path)
	return nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := json.MarshalIndent(exchange.Schema(), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func newScheduler(a *app, out io.Writer) *scheduler.Scheduler {
	var n notify.Notifier = notify.Nop{}
	if a.cfg.Notifications.Enabled {
		n = notify.Desktop{}
	}
	interval := time.Duration(a.cfg.Refresh.IntervalMinutes) * time.Minute
	return scheduler.New(a.tracker, n, interval, out, a.logger)
}
