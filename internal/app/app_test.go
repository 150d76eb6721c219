package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"stocksense/config"
	"stocksense/internal/registry"
	"stocksense/models"
	"stocksense/services"
)

type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type failingNews struct{}

func (failingNews) GetNews(ctx context.Context) ([]models.NewsItem, error) {
	return nil, errors.New("news feed down")
}

// testConfig returns a test configuration
func testConfig() *config.Config {
	return config.NewTestConfig()
}

// testDashboard creates a Dashboard over the reference table at 10:00 local time
func testDashboard(t *testing.T, opts ...Option) (*Dashboard, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.Local)}
	opts = append([]Option{WithClock(clock.Now), WithRandom(fixedRandom(0.75))}, opts...)
	d := New(testConfig(), services.NewReferenceTable(), nil, opts...)
	d.loadNews(context.Background())
	t.Cleanup(func() { d.Shutdown(context.Background()) })
	return d, clock
}

func lastNotification(t *testing.T, d *Dashboard) models.Notification {
	t.Helper()
	active := d.Notifications()
	if len(active) == 0 {
		t.Fatal("expected a notification")
	}
	return active[len(active)-1]
}

func TestDashboard_ZeroTransitionFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Dashboard.NotificationTransitionMS = 0
	d := New(cfg, services.NewReferenceTable(), nil)
	t.Cleanup(func() { d.Shutdown(context.Background()) })

	if _, err := d.AddSymbol(context.Background(), "TCS"); err != nil {
		t.Fatalf("AddSymbol() error = %v", err)
	}
	n := lastNotification(t, d)
	if !n.RemoveAt.Equal(n.DismissAt) {
		t.Errorf("expected no exit transition, got %v", n.RemoveAt.Sub(n.DismissAt))
	}
}

func TestDashboard_AddSymbol(t *testing.T) {
	d, _ := testDashboard(t)

	q, err := d.AddSymbol(context.Background(), " reliance ")
	if err != nil {
		t.Fatalf("AddSymbol() error = %v", err)
	}
	if q.Symbol != "RELIANCE" || q.Name != "Reliance Industries" {
		t.Errorf("unexpected quote %+v", q)
	}

	n := lastNotification(t, d)
	if n.Severity != models.SeveritySuccess || n.Message != "RELIANCE added to tracking" {
		t.Errorf("unexpected notification %s %q", n.Severity, n.Message)
	}
}

func TestDashboard_AddSymbolFailures(t *testing.T) {
	tests := []struct {
		name         string
		setup        []string
		input        string
		wantErr      error
		wantSeverity models.Severity
		wantMessage  string
	}{
		{"empty input", nil, "   ", registry.ErrEmptyInput, models.SeverityError, "Please enter a stock symbol"},
		{"already tracked", []string{"TCS"}, "tcs", registry.ErrAlreadyTracked, models.SeverityWarning, "Stock already being tracked"},
		{"capacity", []string{"RELIANCE", "TCS", "HDFCBANK", "INFY", "SBIN"}, "ITC", registry.ErrCapacityExceeded, models.SeverityWarning, "Maximum 5 stocks can be tracked"},
		{"unknown", nil, "fakesym", registry.ErrUnknownSymbol, models.SeverityError, "Stock FAKESYM not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := testDashboard(t)
			for _, s := range tt.setup {
				if _, err := d.AddSymbol(context.Background(), s); err != nil {
					t.Fatalf("setup add %s: %v", s, err)
				}
			}
			before := d.Tracked()

			_, err := d.AddSymbol(context.Background(), tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			n := lastNotification(t, d)
			if n.Severity != tt.wantSeverity || n.Message != tt.wantMessage {
				t.Errorf("notification = %s %q, want %s %q", n.Severity, n.Message, tt.wantSeverity, tt.wantMessage)
			}
			if len(d.Tracked()) != len(before) {
				t.Errorf("registry changed on failure: %d -> %d", len(before), len(d.Tracked()))
			}
		})
	}
}

func TestDashboard_AddSymbolCancelled(t *testing.T) {
	d, _ := testDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.AddSymbol(ctx, "INFY")
	if !errors.Is(err, registry.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if n := lastNotification(t, d); n.Severity != models.SeverityError {
		t.Errorf("expected error notification, got %s", n.Severity)
	}
}

func TestDashboard_RemoveSymbol(t *testing.T) {
	d, _ := testDashboard(t)
	ctx := context.Background()

	d.AddSymbol(ctx, "RELIANCE")
	d.AddSymbol(ctx, "TCS")

	if !d.RemoveSymbol("reliance") {
		t.Fatal("expected RELIANCE to be removed")
	}
	n := lastNotification(t, d)
	if n.Severity != models.SeverityInfo || n.Message != "RELIANCE removed from tracking" {
		t.Errorf("unexpected notification %s %q", n.Severity, n.Message)
	}

	tracked := d.Tracked()
	if len(tracked) != 1 || tracked[0].Symbol != "TCS" {
		t.Errorf("expected exactly TCS, got %+v", tracked)
	}

	count := len(d.Notifications())
	if d.RemoveSymbol("RELIANCE") {
		t.Error("second remove should report false")
	}
	if len(d.Notifications()) != count {
		t.Error("removing an untracked symbol should not notify")
	}
}

func TestDashboard_ManualRefresh(t *testing.T) {
	d, _ := testDashboard(t)
	ctx := context.Background()
	d.AddSymbol(ctx, "RELIANCE")

	if err := d.ManualRefresh(ctx); err != nil {
		t.Fatalf("ManualRefresh() error = %v", err)
	}

	q := d.Tracked()[0]
	if q.ChangePercent.String() != "0.5" {
		t.Errorf("ChangePercent = %s, want 0.5", q.ChangePercent)
	}
	if q.Price.String() != "2469.0639" {
		t.Errorf("Price = %s, want 2469.0639", q.Price)
	}

	n := lastNotification(t, d)
	if n.Severity != models.SeveritySuccess || n.Message != "Data refreshed successfully" {
		t.Errorf("unexpected notification %s %q", n.Severity, n.Message)
	}
}

func TestDashboard_ManualRefreshCancelled(t *testing.T) {
	d, _ := testDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.ManualRefresh(ctx); err == nil {
		t.Fatal("expected an error for a cancelled refresh")
	}
	if n := lastNotification(t, d); n.Severity != models.SeverityError {
		t.Errorf("expected error notification, got %s", n.Severity)
	}
}

func TestDashboard_SetNewsFilter(t *testing.T) {
	d, _ := testDashboard(t)

	items, err := d.SetNewsFilter("positive")
	if err != nil {
		t.Fatalf("SetNewsFilter() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 positive items, got %d", len(items))
	}
	for _, item := range items {
		if item.Sentiment != models.SentimentPositive {
			t.Errorf("unexpected sentiment %s", item.Sentiment)
		}
	}
	if d.NewsFilter() != models.NewsFilter("positive") {
		t.Errorf("active filter = %s", d.NewsFilter())
	}

	if _, err := d.SetNewsFilter("bullish"); err == nil {
		t.Error("expected an error for an invalid filter")
	}
	if d.NewsFilter() != models.NewsFilter("positive") {
		t.Error("invalid filter should leave the active filter unchanged")
	}

	all, _ := d.SetNewsFilter("all")
	if len(all) != len(services.SampleNews()) {
		t.Errorf("filter all should return every item, got %d", len(all))
	}

	counts := d.NewsCounts()
	if counts[models.SentimentPositive] != 3 || counts[models.SentimentNegative] != 2 || counts[models.SentimentNeutral] != 0 {
		t.Errorf("unexpected counts %v", counts)
	}
}

func TestDashboard_NewsSourceFailureFallsBack(t *testing.T) {
	d := New(testConfig(), services.NewReferenceTable(), failingNews{})
	d.loadNews(context.Background())

	if len(d.News()) != len(services.SampleNews()) {
		t.Errorf("expected built-in headlines, got %d items", len(d.News()))
	}
}

func TestDashboard_Quote(t *testing.T) {
	d, _ := testDashboard(t)
	ctx := context.Background()

	q, err := d.Quote(ctx, "infy")
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if q.Symbol != "INFY" {
		t.Errorf("Symbol = %s, want INFY", q.Symbol)
	}
	if len(d.Tracked()) != 0 {
		t.Error("Quote should not start tracking")
	}

	if _, err := d.Quote(ctx, "NOPE"); !errors.Is(err, registry.ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
	if _, err := d.Quote(ctx, ""); !errors.Is(err, registry.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}

	d.AddSymbol(ctx, "TCS")
	d.ManualRefresh(ctx)
	tracked, _ := d.Quote(ctx, "TCS")
	if !tracked.Price.Equal(d.Tracked()[0].Price) {
		t.Error("a tracked symbol should return the refreshed price")
	}
}

func TestDashboard_Quotes(t *testing.T) {
	d, _ := testDashboard(t)

	quotes, err := d.Quotes(context.Background(), []string{"RELIANCE", "FAKESYM", "itc"})
	if err != nil {
		t.Fatalf("Quotes() error = %v", err)
	}
	if len(quotes) != 2 || quotes[0].Symbol != "RELIANCE" || quotes[1].Symbol != "ITC" {
		t.Errorf("unexpected quotes %+v", quotes)
	}

	if _, err := d.Quotes(context.Background(), nil); !errors.Is(err, registry.ErrEmptyInput) {
		t.Errorf("expected ErrEmptyInput, got %v", err)
	}
}

func TestDashboard_QuotesCancelled(t *testing.T) {
	d, _ := testDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	quotes, err := d.Quotes(ctx, []string{"RELIANCE", "TCS", "INFY"})
	if !errors.Is(err, registry.ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("expected no quotes, got %d", len(quotes))
	}
}

func TestDashboard_MarketStatus(t *testing.T) {
	d, clock := testDashboard(t)

	status := d.MarketStatus()
	if status.Status != "Open" || status.Message != "Market is Open" {
		t.Errorf("expected open market at 10:00, got %+v", status)
	}
	if status.Index != "NIFTY 50" || status.Last.String() != "21349.4" {
		t.Errorf("unexpected lead index %s %s", status.Index, status.Last)
	}
	if status.TradeDate != "15-Jan-2024 10:00" {
		t.Errorf("TradeDate = %s", status.TradeDate)
	}

	clock.Set(time.Date(2024, 1, 15, 16, 0, 0, 0, time.Local))
	if got := d.MarketStatus(); got.Status != "Close" || got.Message != "Market is Closed" {
		t.Errorf("expected closed market at 16:00, got %+v", got)
	}
}

func TestDashboard_Sentiment(t *testing.T) {
	d, _ := testDashboard(t)

	s := d.Sentiment()
	if s.Score != 65 || s.Label != "Bullish" {
		t.Errorf("unexpected sentiment %+v", s)
	}
}

func TestDashboard_IndicesAreCopies(t *testing.T) {
	d, _ := testDashboard(t)

	indices := d.Indices()
	indices[0].Name = "MUTATED"
	if d.Indices()[0].Name != "NIFTY 50" {
		t.Error("Indices should return a copy")
	}

	series := d.IndexSeries()
	if series.Name != "NIFTY 50" || len(series.Points) != 8 {
		t.Errorf("unexpected series %+v", series)
	}
}

func TestDashboard_DismissNotification(t *testing.T) {
	d, clock := testDashboard(t)

	if err := d.DismissNotification("not-a-uuid"); err == nil {
		t.Error("expected an error for an invalid id")
	}
	if err := d.DismissNotification(uuid.NewString()); err == nil {
		t.Error("expected an error for an unknown id")
	}

	d.AddSymbol(context.Background(), "SBIN")
	n := lastNotification(t, d)
	if err := d.DismissNotification(n.ID.String()); err != nil {
		t.Fatalf("DismissNotification() error = %v", err)
	}

	active := d.Notifications()
	if len(active) != 1 || active[0].Phase(clock.Now()) != models.PhaseLeaving {
		t.Fatalf("expected the notification to be leaving, got %+v", active)
	}

	clock.Set(clock.Now().Add(time.Second))
	if len(d.Notifications()) != 0 {
		t.Error("expected the notification to be gone after its exit transition")
	}
}

func TestDashboard_SubscribeReceivesSnapshots(t *testing.T) {
	d, _ := testDashboard(t)

	ch, cancel := d.Subscribe(8)
	defer cancel()

	d.AddSymbol(context.Background(), "HDFCBANK")

	select {
	case snap := <-ch:
		if len(snap.Quotes) != 1 || snap.Quotes[0].Symbol != "HDFCBANK" {
			t.Errorf("unexpected snapshot quotes %+v", snap.Quotes)
		}
		if snap.Capacity != registry.Capacity {
			t.Errorf("Capacity = %d", snap.Capacity)
		}
		if len(snap.Notifications) != 1 {
			t.Errorf("expected the add notification in the snapshot, got %d", len(snap.Notifications))
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestDashboard_StartupAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Dashboard.DefaultSymbols = []string{"RELIANCE", "TCS", "HDFCBANK", "FAKESYM"}
	d := New(cfg, services.NewReferenceTable(), nil)

	d.Startup(context.Background())
	if !d.refresher.Running() {
		t.Error("refresher should be running after Startup")
	}

	tracked := d.Tracked()
	if len(tracked) != 3 {
		t.Fatalf("expected 3 seeded symbols, got %d", len(tracked))
	}
	if len(d.Notifications()) != 0 {
		t.Error("seeding should not notify")
	}
	if len(d.News()) == 0 {
		t.Error("expected news after Startup")
	}

	ch, _ := d.Subscribe(1)
	d.Shutdown(context.Background())

	if d.refresher.Running() {
		t.Error("refresher should stop on Shutdown")
	}
	if _, ok := <-ch; ok {
		t.Error("subscription should be closed on Shutdown")
	}

	h := d.Health()
	if h.Tracked != 3 || h.Capacity != 5 || h.Subscribers != 0 {
		t.Errorf("unexpected health %+v", h)
	}
}
