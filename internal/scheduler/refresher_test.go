package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"stocksense/observability"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNewRefresher_Defaults(t *testing.T) {
	r := NewRefresher(func(context.Context) error { return nil }, Config{})
	if r.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", r.Interval(), DefaultInterval)
	}
	if r.Running() {
		t.Error("new refresher should not be running")
	}
}

func TestRefresher_TicksUntilStopped(t *testing.T) {
	var runs atomic.Int32
	r := NewRefresher(func(context.Context) error {
		runs.Add(1)
		return nil
	}, Config{Interval: 10 * time.Millisecond})

	r.Start()
	waitFor(t, time.Second, func() bool { return runs.Load() >= 3 })
	r.Stop()

	if r.Running() {
		t.Error("refresher should not be running after Stop")
	}

	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != after {
		t.Errorf("refresh ran after Stop: %d -> %d", after, runs.Load())
	}
}

func TestRefresher_StartStopIdempotent(t *testing.T) {
	r := NewRefresher(func(context.Context) error { return nil }, Config{Interval: time.Hour})

	r.Stop() // stopped refresher
	r.Start()
	r.Start()
	if !r.Running() {
		t.Fatal("refresher should be running")
	}
	r.Stop()
	r.Stop()
	if r.Running() {
		t.Error("refresher should be stopped")
	}

	// Restart after stop
	r.Start()
	defer r.Stop()
	if !r.Running() {
		t.Error("refresher should restart")
	}
}

func TestRefresher_RefreshNow(t *testing.T) {
	var runs atomic.Int32
	r := NewRefresher(func(context.Context) error {
		runs.Add(1)
		return nil
	}, Config{Interval: time.Hour})

	if err := r.RefreshNow(context.Background()); err != nil {
		t.Fatalf("RefreshNow() error = %v", err)
	}
	if runs.Load() != 1 {
		t.Errorf("expected 1 run, got %d", runs.Load())
	}
	if r.Status().LastRun.IsZero() {
		t.Error("LastRun should be set after a refresh")
	}
}

func TestRefresher_RefreshNowError(t *testing.T) {
	r := NewRefresher(func(context.Context) error {
		return errors.New("provider down")
	}, Config{Interval: time.Hour})

	err := r.RefreshNow(context.Background())
	if err == nil || !strings.Contains(err.Error(), "provider down") {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if !strings.Contains(r.Status().LastErr, "provider down") {
		t.Errorf("Status().LastErr = %q", r.Status().LastErr)
	}
}

func TestRefresher_RefreshNowCancelledContext(t *testing.T) {
	var runs atomic.Int32
	r := NewRefresher(func(context.Context) error {
		runs.Add(1)
		return nil
	}, Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.RefreshNow(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if runs.Load() != 0 {
		t.Error("refresh should not run with a cancelled context")
	}
}

func TestRefresher_ManualWaitsForInFlight(t *testing.T) {
	var active, maxActive atomic.Int32
	release := make(chan struct{})

	r := NewRefresher(func(context.Context) error {
		n := active.Add(1)
		defer active.Add(-1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		<-release
		return nil
	}, Config{Interval: time.Hour})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RefreshNow(context.Background())
		}()
	}

	waitFor(t, time.Second, func() bool { return active.Load() == 1 })
	close(release)
	wg.Wait()

	if maxActive.Load() != 1 {
		t.Errorf("refreshes overlapped: max concurrent %d", maxActive.Load())
	}
}

func TestRefresher_TickSkippedWhileBusy(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	release := make(chan struct{})
	started := make(chan struct{})
	var manualOnce sync.Once

	r := NewRefresher(func(ctx context.Context) error {
		manualOnce.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, Config{Interval: 10 * time.Millisecond, Metrics: metrics})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.RefreshNow(context.Background())
	}()
	<-started

	r.Start()
	waitFor(t, time.Second, func() bool { return r.Status().Skipped >= 2 })
	close(release)
	<-done
	r.Stop()

	if got := testutil.ToFloat64(metrics.RefreshSkippedTotal); got < 2 {
		t.Errorf("expected at least 2 skipped refreshes recorded, got %f", got)
	}
	if got := testutil.ToFloat64(metrics.RefreshRunsTotal.WithLabelValues(TriggerManual, "success")); got != 1 {
		t.Errorf("expected 1 manual refresh recorded, got %f", got)
	}
}

func TestRefresher_StopCancelsInFlightTick(t *testing.T) {
	entered := make(chan struct{}, 1)
	r := NewRefresher(func(ctx context.Context) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return ctx.Err()
	}, Config{Interval: 10 * time.Millisecond, Timeout: time.Hour})

	r.Start()
	<-entered

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return while a tick was in flight")
	}
}
