package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christopherklint97/punchr/internal/accounting"
	"github.com/christopherklint97/punchr/internal/clock"
	"github.com/christopherklint97/punchr/internal/notify"
	"github.com/christopherklint97/punchr/internal/punch"
	"github.com/christopherklint97/punchr/internal/settings"
	"github.com/christopherklint97/punchr/internal/store"
	"github.com/christopherklint97/punchr/internal/tracker"
)

type fakeRefresher struct {
	ticks []tracker.Tick
	err   error
	calls int
}

func (f *fakeRefresher) Refresh() (tracker.Tick, error) {
	f.calls++
	if f.err != nil {
		return tracker.Tick{}, f.err
	}
	return f.ticks[min(f.calls-1, len(f.ticks)-1)], nil
}

func TestTick_PrintsAndNotifies(t *testing.T) {
	now := time.Date(2024, 3, 4, 16, 30, 0, 0, time.UTC)
	journey := &accounting.JourneyComplete{Date: "2024-03-04", WorkedMinutes: 480, TargetMinutes: 480}
	ref := &fakeRefresher{ticks: []tracker.Tick{
		{Now: now, Status: tracker.DayStatus{State: accounting.Working, LiveMinutes: 480, TargetMinutes: 480}, Journey: journey},
		{Now: now.Add(5 * time.Minute), Status: tracker.DayStatus{State: accounting.Working, LiveMinutes: 485, TargetMinutes: 480}},
	}}
	rec := &notify.Recorder{}
	var out bytes.Buffer

	s := New(ref, rec, 5*time.Minute, &out, nil)
	require.NoError(t, s.Tick())
	require.NoError(t, s.Tick())

	assert.Contains(t, out.String(), "16:30  working      worked 8h 0min of 8h 0min")
	assert.Contains(t, out.String(), "16:35")
	assert.Contains(t, out.String(), "Daily journey of 8h 0min complete.")

	sent := rec.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "punchr", sent[0].Title)
	assert.Equal(t, journey.Message(), sent[0].Message)
}

func TestTick_Error(t *testing.T) {
	s := New(&fakeRefresher{err: errors.New("boom")}, nil, 0, nil, nil)
	assert.ErrorContains(t, s.Tick(), "boom")
}

func TestRun_StopsOnCancel(t *testing.T) {
	ref := &fakeRefresher{ticks: []tracker.Tick{{Now: time.Now()}}}
	var out bytes.Buffer
	s := New(ref, nil, time.Minute, &out, nil)

	fire := make(chan time.Time)
	s.after = func(time.Duration) <-chan time.Time { return fire }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	fire <- time.Now()
	fire <- time.Now()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	assert.GreaterOrEqual(t, ref.calls, 3)
	assert.Contains(t, out.String(), "Stopped.")
}

func TestRun_WithTracker(t *testing.T) {
	clk := clock.NewFixed(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))
	tr, err := tracker.New(store.NewMemory(), tracker.Options{Clock: clk})
	require.NoError(t, err)
	utc := "UTC"
	_, err = tr.UpdateSettings(settings.Partial{TimeZone: &utc})
	require.NoError(t, err)
	_, err = tr.RegisterPunch(punch.StartDay, time.Time{})
	require.NoError(t, err)

	rec := &notify.Recorder{}
	s := New(tr, rec, 5*time.Minute, nil, nil)

	for _, d := range []time.Duration{4 * time.Hour, 4 * time.Hour, 5 * time.Minute, time.Hour} {
		clk.Advance(d)
		require.NoError(t, s.Tick())
	}
	assert.Len(t, rec.Sent(), 1)
}

func TestNextAlignedTick(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 7, 30, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 10, 0, 0, time.UTC), nextAlignedTick(now, 5*time.Minute))
	assert.Equal(t, time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC), nextAlignedTick(now, time.Hour))
	assert.Equal(t, time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC), nextAlignedTick(now, 15*time.Minute))
}
