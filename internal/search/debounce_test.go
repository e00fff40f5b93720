package search

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRapidTriggersCoalesce(t *testing.T) {
	d := NewDebouncer(40 * time.Millisecond)
	defer d.Stop()

	var runs atomic.Int64
	var last atomic.Value
	for _, term := range []string{"h", "ha", "har", "harb"} {
		d.Trigger(context.Background(), func(ctx context.Context) {
			runs.Add(1)
			last.Store(term)
		})
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, "harb", last.Load())

	// No stray second run after the window closes.
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, int64(1), runs.Load())
}

func TestNewTriggerCancelsInFlightRun(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	defer d.Stop()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	d.Trigger(context.Background(), func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})

	<-started
	d.Trigger(context.Background(), func(ctx context.Context) {})

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("superseded run was not cancelled")
	}
}

func TestStopPreventsPendingRun(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var runs atomic.Int64
	d.Trigger(context.Background(), func(ctx context.Context) { runs.Add(1) })
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	require.Zero(t, runs.Load())
}

func TestWaitBlocksUntilPendingRunFinishes(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var runs atomic.Int64
	d.Trigger(context.Background(), func(ctx context.Context) {
		time.Sleep(10 * time.Millisecond)
		runs.Add(1)
	})

	d.Wait()
	require.Equal(t, int64(1), runs.Load())
}

func TestWaitReturnsWhenNothingPending(t *testing.T) {
	d := NewDebouncer(time.Hour)
	d.Wait()

	d.Trigger(context.Background(), func(ctx context.Context) {})
	d.Stop()

	finished := make(chan struct{})
	go func() {
		d.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked on a retired run")
	}
}

func TestZeroIntervalFallsBackToDefault(t *testing.T) {
	d := NewDebouncer(0)
	require.Equal(t, DefaultInterval, d.interval)
}
