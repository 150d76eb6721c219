// Package scheduler drives the periodic price refresh and its manual trigger.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stocksense/observability"
)

// DefaultInterval is the refresh cadence when none is configured
const DefaultInterval = 30 * time.Second

// Refresh triggers, used as the metrics label
const (
	TriggerTick   = "tick"
	TriggerManual = "manual"
)

// RefreshFunc performs one refresh of all tracked symbols
type RefreshFunc func(ctx context.Context) error

// Config holds Refresher settings
type Config struct {
	Interval time.Duration          // time between scheduled refreshes
	Timeout  time.Duration          // bound on a scheduled refresh, defaults to Interval
	Metrics  *observability.Metrics // optional
}

// Refresher runs a RefreshFunc on a fixed interval and on demand.
// Refreshes never overlap: a manual refresh waits for an in-flight one,
// a scheduled tick that finds one in flight is skipped.
type Refresher struct {
	refresh RefreshFunc
	cfg     Config

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}

	runMu sync.Mutex

	statMu  sync.Mutex
	lastRun time.Time
	lastErr error
	skipped int
}

// NewRefresher creates a stopped Refresher
func NewRefresher(refresh RefreshFunc, cfg Config) *Refresher {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	return &Refresher{
		refresh: refresh,
		cfg:     cfg,
	}
}

// Start begins the periodic refresh loop. Calling Start on a running
// Refresher does nothing.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		observability.Debug("refresher already running")
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.done = make(chan struct{})

	go r.loop(r.stopCh, r.done)

	observability.Info("refresher started", "interval", r.cfg.Interval.String())
}

func (r *Refresher) loop(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	if !r.runMu.TryLock() {
		r.statMu.Lock()
		r.skipped++
		r.statMu.Unlock()
		r.cfg.Metrics.RecordRefreshSkipped()
		observability.Debug("scheduled refresh skipped, previous refresh still running")
		return
	}
	defer r.runMu.Unlock()

	tctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	if err := r.run(tctx, TriggerTick); err != nil {
		observability.WithComponent("refresher").Warn("scheduled refresh failed", "error", err)
	}
}

// Stop halts the loop and waits for it to exit. Stop on a stopped
// Refresher does nothing.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	close(r.stopCh)
	done := r.done
	r.running = false
	r.mu.Unlock()

	<-done
	observability.Info("refresher stopped")
}

// Running reports whether the periodic loop is active
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RefreshNow runs a refresh immediately, independent of the timer
func (r *Refresher) RefreshNow(ctx context.Context) error {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return r.run(ctx, TriggerManual)
}

func (r *Refresher) run(ctx context.Context, trigger string) error {
	timer := r.cfg.Metrics.NewTimer()
	err := r.refresh(ctx)

	status := "success"
	if err != nil {
		status = "error"
		err = fmt.Errorf("%s refresh: %w", trigger, err)
	}
	timer.ObserveRefresh(trigger, status)

	r.statMu.Lock()
	r.lastRun = time.Now()
	r.lastErr = err
	r.statMu.Unlock()

	return err
}

// Status is a point-in-time view of the refresher, for health reporting
type Status struct {
	Running  bool      `json:"running"`
	Interval string    `json:"interval"`
	LastRun  time.Time `json:"last_run,omitempty"`
	LastErr  string    `json:"last_error,omitempty"`
	Skipped  int       `json:"skipped"`
}

// Status returns the current refresher state
func (r *Refresher) Status() Status {
	s := Status{
		Running:  r.Running(),
		Interval: r.cfg.Interval.String(),
	}
	r.statMu.Lock()
	defer r.statMu.Unlock()
	s.LastRun = r.lastRun
	s.Skipped = r.skipped
	if r.lastErr != nil {
		s.LastErr = r.lastErr.Error()
	}
	return s
}

// Interval returns the configured refresh cadence
func (r *Refresher) Interval() time.Duration {
	return r.cfg.Interval
}
