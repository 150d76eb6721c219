// Package app holds the dashboard controller that the HTTP, websocket and
// terminal front ends drive.
package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stocksense/config"
	"stocksense/internal/news"
	"stocksense/internal/notify"
	"stocksense/internal/registry"
	"stocksense/internal/scheduler"
	"stocksense/models"
	"stocksense/observability"
	"stocksense/services"
)

// Notification messages shown for dashboard intents
const (
	msgRefreshed       = "Data refreshed successfully"
	msgEmptyInput      = "Please enter a stock symbol"
	msgAlreadyTracked  = "Stock already being tracked"
	msgCapacityReached = "Maximum 5 stocks can be tracked"
)

// batchConcurrency bounds concurrent lookups in Quotes
const batchConcurrency = 4

// Option configures a Dashboard
type Option func(*Dashboard)

// WithClock overrides the dashboard clock
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) { d.now = now }
}

// WithRandom overrides the source of refresh price movements
func WithRandom(rnd registry.RandomSource) Option {
	return func(d *Dashboard) { d.rnd = rnd }
}

// WithMetrics attaches prometheus metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(d *Dashboard) { d.metrics = m }
}

// Dashboard owns the tracked symbols, news, indices and notifications and
// publishes a snapshot after every state change.
type Dashboard struct {
	cfg        *config.Config
	lookup     services.QuoteResolver
	newsSource services.NewsSource

	registry  *registry.Registry
	refresher *scheduler.Refresher
	notices   *notify.Center
	publisher *Publisher

	mu      sync.RWMutex
	news    []models.NewsItem
	filter  models.NewsFilter
	indices []models.MarketIndex
	series  models.IndexSeries

	rnd     registry.RandomSource
	now     func() time.Time
	metrics *observability.Metrics
}

// New creates a Dashboard over the given quote lookup and news source.
// A nil newsSource serves the built-in headlines.
func New(cfg *config.Config, lookup services.QuoteResolver, newsSource services.NewsSource, opts ...Option) *Dashboard {
	if newsSource == nil {
		newsSource = services.NewStaticNews()
	}

	d := &Dashboard{
		cfg:        cfg,
		lookup:     lookup,
		newsSource: newsSource,
		filter:     models.FilterAll,
		indices:    services.SampleIndices(),
		series:     services.SampleIndexSeries(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rnd == nil {
		d.rnd = rand.New(rand.NewSource(d.now().UnixNano()))
	}

	d.registry = registry.New(lookup,
		registry.WithClock(d.now),
		registry.WithLookupTimeout(d.lookupTimeout()),
		registry.WithMetrics(d.metrics),
	)
	d.refresher = scheduler.NewRefresher(d.refresh, scheduler.Config{
		Interval: time.Duration(cfg.Dashboard.RefreshIntervalSeconds) * time.Second,
		Metrics:  d.metrics,
	})
	transition := time.Duration(cfg.Dashboard.NotificationTransitionMS) * time.Millisecond
	if transition == 0 {
		transition = notify.NoTransition
	}
	d.notices = notify.NewCenter(notify.Config{
		Display:    time.Duration(cfg.Dashboard.NotificationDisplaySeconds) * time.Second,
		Transition: transition,
		History:    cfg.Dashboard.NotificationHistory,
		Now:        d.now,
		Metrics:    d.metrics,
	})
	d.publisher = NewPublisher(d.metrics)

	return d
}

func (d *Dashboard) lookupTimeout() time.Duration {
	if d.cfg.Dashboard.LookupTimeoutSeconds <= 0 {
		return registry.DefaultLookupTimeout
	}
	return time.Duration(d.cfg.Dashboard.LookupTimeoutSeconds) * time.Second
}

// Startup loads news, seeds the default symbols and starts the refresh loop
func (d *Dashboard) Startup(ctx context.Context) {
	d.loadNews(ctx)

	for _, sym := range d.cfg.Dashboard.DefaultSymbols {
		if _, err := d.registry.Add(ctx, sym); err != nil {
			observability.WithSymbol(sym).Warn("failed to seed default symbol", "error", err)
		}
	}

	d.refresher.Start()
	observability.Info("dashboard started",
		"tracked", d.registry.Len(),
		"refresh_interval", d.refresher.Interval().String())
	d.publish()
}

// Shutdown stops the refresh loop and closes every subscription
func (d *Dashboard) Shutdown(ctx context.Context) {
	d.refresher.Stop()
	d.publisher.Close()
	observability.Info("dashboard stopped")
}

func (d *Dashboard) loadNews(ctx context.Context) {
	items, err := d.newsSource.GetNews(ctx)
	if err != nil {
		observability.Warn("news source unavailable, using built-in headlines", "error", err)
		items = services.SampleNews()
	}

	d.mu.Lock()
	d.news = items
	d.mu.Unlock()
}

// AddSymbol starts tracking symbol and reports the outcome as a notification
func (d *Dashboard) AddSymbol(ctx context.Context, symbol string) (models.Quote, error) {
	q, err := d.registry.Add(ctx, symbol)
	if err != nil {
		d.notify(addFailure(registry.Normalize(symbol), err))
		return models.Quote{}, err
	}

	observability.WithSymbol(q.Symbol).Info("symbol added")
	d.notify(models.SeveritySuccess, fmt.Sprintf("%s added to tracking", q.Symbol))
	return q, nil
}

// addFailure maps an Add error onto the notification shown to the user
func addFailure(sym string, err error) (models.Severity, string) {
	switch {
	case errors.Is(err, registry.ErrEmptyInput):
		return models.SeverityError, msgEmptyInput
	case errors.Is(err, registry.ErrAlreadyTracked):
		return models.SeverityWarning, msgAlreadyTracked
	case errors.Is(err, registry.ErrCapacityExceeded):
		return models.SeverityWarning, msgCapacityReached
	case errors.Is(err, registry.ErrUnknownSymbol):
		return models.SeverityError, fmt.Sprintf("Stock %s not found", sym)
	default:
		return models.SeverityError, fmt.Sprintf("Could not add %s: %v", sym, err)
	}
}

// RemoveSymbol stops tracking symbol. Removing an untracked symbol is a no-op.
func (d *Dashboard) RemoveSymbol(symbol string) bool {
	sym := registry.Normalize(symbol)
	if !d.registry.Remove(sym) {
		return false
	}

	observability.WithSymbol(sym).Info("symbol removed")
	d.notify(models.SeverityInfo, fmt.Sprintf("%s removed from tracking", sym))
	return true
}

// SetNewsFilter applies criterion and returns the matching headlines
func (d *Dashboard) SetNewsFilter(criterion string) ([]models.NewsItem, error) {
	filter, err := news.ParseFilter(criterion)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.filter = filter
	items := news.Filter(d.news, filter)
	d.mu.Unlock()

	d.publish()
	return items, nil
}

// News returns the headlines matching the active filter
func (d *Dashboard) News() []models.NewsItem {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return news.Filter(d.news, d.filter)
}

// NewsFilter returns the active filter
func (d *Dashboard) NewsFilter() models.NewsFilter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filter
}

// NewsCounts returns the number of headlines per sentiment
func (d *Dashboard) NewsCounts() map[models.Sentiment]int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return news.Counts(d.news)
}

// ManualRefresh refreshes every tracked price now
func (d *Dashboard) ManualRefresh(ctx context.Context) error {
	if err := d.refresher.RefreshNow(ctx); err != nil {
		d.notify(models.SeverityError, fmt.Sprintf("Refresh failed: %v", err))
		return err
	}
	d.notify(models.SeveritySuccess, msgRefreshed)
	return nil
}

// refresh is the operation run by both the scheduler and ManualRefresh
func (d *Dashboard) refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	quotes := d.registry.RefreshAll(d.rnd)
	observability.Debug("refreshed tracked quotes", "count", len(quotes))
	d.publish()
	return nil
}

// Tracked returns the tracked quotes in insertion order
func (d *Dashboard) Tracked() []models.Quote {
	return d.registry.Tracked()
}

// Quote returns the tracked quote for symbol, resolving it without
// tracking when it is not tracked.
func (d *Dashboard) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	sym := registry.Normalize(symbol)
	if sym == "" {
		return models.Quote{}, registry.ErrEmptyInput
	}
	if q, ok := d.registry.Get(sym); ok {
		return q, nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.lookupTimeout())
	defer cancel()

	seed, err := d.lookup.Resolve(ctx, sym)
	if err != nil {
		return models.Quote{}, registry.Classify(sym, err)
	}
	if seed == nil {
		return models.Quote{}, fmt.Errorf("%w: %s", registry.ErrUnknownSymbol, sym)
	}
	q := seed.ToQuote(d.now())
	q.Symbol = sym
	return q, nil
}

// Quotes resolves several symbols concurrently, skipping those that cannot
// be found. Results keep the order of symbols.
func (d *Dashboard) Quotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	if len(symbols) == 0 {
		return nil, registry.ErrEmptyInput
	}

	results := make([]*models.Quote, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, s := range symbols {
		g.Go(func() error {
			q, err := d.Quote(gctx, s)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				observability.WithSymbol(s).Debug("skipping symbol in batch", "error", err)
				return nil
			}
			results[i] = &q
			return nil
		})
	}
	err := g.Wait()

	out := make([]models.Quote, 0, len(symbols))
	for _, q := range results {
		if q != nil {
			out = append(out, *q)
		}
	}
	return out, err
}

// Indices returns the benchmark indices
func (d *Dashboard) Indices() []models.MarketIndex {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]models.MarketIndex, len(d.indices))
	copy(out, d.indices)
	return out
}

// IndexSeries returns the intraday series drawn by the chart
func (d *Dashboard) IndexSeries() models.IndexSeries {
	d.mu.RLock()
	defer d.mu.RUnlock()
	points := make([]models.SeriesPoint, len(d.series.Points))
	copy(points, d.series.Points)
	return models.IndexSeries{Name: d.series.Name, Points: points}
}

// Sentiment returns the market mood gauge
func (d *Dashboard) Sentiment() models.MarketSentiment {
	score := d.cfg.Dashboard.SentimentScore
	return models.MarketSentiment{
		Score:     score,
		Label:     models.SentimentLabel(score),
		Timestamp: d.now(),
	}
}

// MarketStatus reports whether the market is open along with the lead index
func (d *Dashboard) MarketStatus() models.MarketStatus {
	now := d.now()
	status := models.MarketStatus{
		Market:    "Capital Market",
		Status:    "Close",
		TradeDate: now.Format("02-Jan-2006 15:04"),
		Message:   "Market is Closed",
	}
	if models.IsMarketOpen(now) {
		status.Status = "Open"
		status.Message = "Market is Open"
	}

	d.mu.RLock()
	if len(d.indices) > 0 {
		lead := d.indices[0]
		status.Index = lead.Name
		status.Last = lead.Value
		status.Variation = lead.Change
		status.PercentChange = lead.ChangePercent
	}
	d.mu.RUnlock()

	return status
}

// Notifications returns the notifications still on screen
func (d *Dashboard) Notifications() []models.Notification {
	return d.notices.Active()
}

// DismissNotification removes a notification before its timer expires
func (d *Dashboard) DismissNotification(id string) error {
	parsed, err := ParseUUID(id)
	if err != nil {
		return err
	}
	if !d.notices.Dismiss(parsed) {
		return fmt.Errorf("notification %s not found", id)
	}
	d.publish()
	return nil
}

// Snapshot returns the full dashboard state
func (d *Dashboard) Snapshot() models.Snapshot {
	d.mu.RLock()
	filter := d.filter
	items := news.Filter(d.news, filter)
	indices := make([]models.MarketIndex, len(d.indices))
	copy(indices, d.indices)
	d.mu.RUnlock()

	return models.Snapshot{
		Quotes:        d.registry.Tracked(),
		News:          items,
		Filter:        filter,
		Indices:       indices,
		Notifications: d.notices.Active(),
		Capacity:      d.registry.Capacity(),
		GeneratedAt:   d.now(),
	}
}

// Subscribe returns a channel receiving a snapshot after every state change
func (d *Dashboard) Subscribe(buffer int) (<-chan models.Snapshot, func()) {
	if buffer <= 0 {
		buffer = d.cfg.Dashboard.StreamBuffer
	}
	return d.publisher.Subscribe(buffer)
}

// Now returns the dashboard clock's current time
func (d *Dashboard) Now() time.Time {
	return d.now()
}

// RefreshInterval returns the scheduled refresh cadence
func (d *Dashboard) RefreshInterval() time.Duration {
	return d.refresher.Interval()
}

// Health summarizes the dashboard for the health endpoint
type Health struct {
	Tracked     int              `json:"tracked"`
	Capacity    int              `json:"capacity"`
	Refresh     scheduler.Status `json:"refresh"`
	Subscribers int              `json:"subscribers"`
}

// Health returns the dashboard health summary
func (d *Dashboard) Health() Health {
	return Health{
		Tracked:     d.registry.Len(),
		Capacity:    d.registry.Capacity(),
		Refresh:     d.refresher.Status(),
		Subscribers: d.publisher.Subscribers(),
	}
}

func (d *Dashboard) notify(severity models.Severity, message string) {
	d.notices.Push(severity, message)
	d.publish()
}

func (d *Dashboard) publish() {
	d.publisher.Publish(d.Snapshot())
}

// ParseUUID parses a string UUID
func ParseUUID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid UUID: %w", err)
	}
	return parsed, nil
}
