package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/christopherklint97/punchr/internal/config"
	"github.com/christopherklint97/punchr/internal/store"
	"github.com/christopherklint97/punchr/internal/tracker"
)

var rootCmd = &cobra.Command{
	Use:           "punchr",
	Short:         "Personal work-hours punch clock",
	Long:          "punchr records start, break, return and end punches, and reports worked time and overtime against your daily and weekly targets.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Open config file in your editor",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("db", "", "Database file (overrides config)")

	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// app is what every command needs: config, database and tracker.
type app struct {
	cfg     *config.Config
	db      *store.DB
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func (a *app) Close() error {
	return a.db.Close()
}

func openApp(cmd *cobra.Command) (*app, error) {
	logger := newLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	path := cfg.Storage.Path
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		path = v
	}
	if path == "" {
		path, err = store.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	logger.Debug("database opened", "path", path)

	t, err := tracker.New(db, tracker.Options{
		PageSize: cfg.History.PageSize,
		Logger:   logger,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, db: db, tracker: t, logger: logger}, nil
}

// confirm asks a yes/no question on in. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// prompt reads one line of free text.
func prompt(in io.Reader, out io.Writer, question string) string {
	fmt.Fprintf(out, "%s ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(line)
}

func interactive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := config.WriteDefault(configPath); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Opening %s with %s...\n", configPath, editor)

	c := exec.Command(editor, configPath)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Start(); err != nil {
		// If editor fails, just print the path
		fmt.Fprintf(cmd.OutOrStdout(), "Could not open editor. Config file is at: %s\n", configPath)
		return nil
	}
	return c.Wait()
}
