// Package scheduler runs the periodic refresh loop behind punchr watch.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/notify"
	"github.com/christopherklint97/punchr/internal/tracker"
)

// Refresher is the part of the tracker the loop drives.
type Refresher interface {
	Refresh() (tracker.Tick, error)
}

type Scheduler struct {
	tracker  Refresher
	notifier notify.Notifier
	interval time.Duration
	out      io.Writer
	logger   *slog.Logger
	after    func(time.Duration) <-chan time.Time
}

func New(t Refresher, n notify.Notifier, interval time.Duration, out io.Writer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if n == nil {
		n = notify.Nop{}
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if out == nil {
		out = io.Discard
	}
	return &Scheduler{
		tracker:  t,
		notifier: n,
		interval: interval,
		out:      out,
		logger:   logger,
		after:    time.After,
	}
}

// Run refreshes once immediately and then on every aligned interval until ctx
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	fmt.Fprintf(s.out, "Watching (interval: %s)\n", s.interval)

	for {
		if err := s.Tick(); err != nil {
			s.logger.Error("refresh failed", "error", err)
		}

		next := nextAlignedTick(time.Now(), s.interval)
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out, "\nStopped.")
			return nil
		case <-s.after(time.Until(next)):
		}
	}
}

// Tick performs one refresh, prints the live worked time and notifies when the
// daily journey completes.
func (s *Scheduler) Tick() error {
	tick, err := s.tracker.Refresh()
	if err != nil {
		return fmt.Errorf("refreshing: %w", err)
	}

	st := tick.Status
	fmt.Fprintf(s.out, "%s  %-12s worked %s of %s\n",
		tick.Now.Format("15:04"), st.State,
		accounting.FormatMinutes(st.LiveMinutes), accounting.FormatMinutes(st.TargetMinutes))

	if tick.Journey != nil {
		msg := tick.Journey.Message()
		fmt.Fprintln(s.out, msg)
		if err := s.notifier.Notify("punchr", msg); err != nil {
			s.logger.Warn("journey notification failed", "error", err)
		}
	}
	return nil
}

func nextAlignedTick(now time.Time, interval time.Duration) time.Time {
	mins := int(interval.Minutes())
	if mins <= 0 {
		mins = 5
	}

	currentMinute := now.Minute()
	nextMinute := ((currentMinute / mins) + 1) * mins

	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	next = next.Add(time.Duration(nextMinute) * time.Minute)

	return next
}
