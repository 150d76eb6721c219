// Package registry holds the bounded, ordered set of tracked symbols and the
// pricing state that the refresh cycle mutates.
package registry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"stocksense/models"
	"stocksense/observability"
)

// Capacity is the maximum number of symbols tracked at once
const Capacity = 5

// DefaultLookupTimeout bounds a shared lookup when the caller sets no deadline
const DefaultLookupTimeout = 10 * time.Second

// Internal precision of refreshed prices, in decimal places
const (
	percentPlaces = 4
	pricePlaces   = 6
)

var hundred = decimal.NewFromInt(100)

// Lookup resolves a normalized symbol into the data needed to track it.
// Implementations return models.ErrSymbolNotFound for unknown symbols.
type Lookup interface {
	Resolve(ctx context.Context, symbol string) (*models.QuoteSeed, error)
}

// LookupFunc adapts a function to the Lookup interface
type LookupFunc func(ctx context.Context, symbol string) (*models.QuoteSeed, error)

// Resolve calls f(ctx, symbol)
func (f LookupFunc) Resolve(ctx context.Context, symbol string) (*models.QuoteSeed, error) {
	return f(ctx, symbol)
}

// RandomSource yields uniform values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Registry is the ordered, bounded mapping from symbol to tracked quote.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*models.Quote
	order   []string

	lookup        Lookup
	lookupTimeout time.Duration
	group         singleflight.Group

	now     func() time.Time
	metrics *observability.Metrics
}

// Option configures a Registry
type Option func(*Registry)

// WithClock overrides the clock used for LastUpdated
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLookupTimeout bounds each shared lookup
func WithLookupTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.lookupTimeout = d
		}
	}
}

// WithMetrics records registry operations
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// New creates an empty registry backed by lookup
func New(lookup Lookup, opts ...Option) *Registry {
	r := &Registry{
		entries:       make(map[string]*models.Quote, Capacity),
		lookup:        lookup,
		lookupTimeout: DefaultLookupTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize trims and uppercases a symbol
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Add resolves symbol and starts tracking it
func (r *Registry) Add(ctx context.Context, symbol string) (models.Quote, error) {
	q, err := r.add(ctx, symbol)
	r.metrics.RecordRegistryOperation("add", ResultLabel(err))
	return q, err
}

func (r *Registry) add(ctx context.Context, symbol string) (models.Quote, error) {
	sym := Normalize(symbol)
	if sym == "" {
		return models.Quote{}, ErrEmptyInput
	}

	r.mu.Lock()
	err := r.admitLocked(sym)
	r.mu.Unlock()
	if err != nil {
		return models.Quote{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.Quote{}, Classify(sym, err)
	}

	timer := r.metrics.NewTimer()
	seed, err := r.resolve(ctx, sym)
	if err != nil {
		timer.ObserveLookup(ResultLabel(err))
		observability.WithSymbol(sym).Debug("symbol lookup failed", "error", err)
		return models.Quote{}, err
	}
	timer.ObserveLookup("success")

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another add may have won while the lookup was in flight.
	if err := r.admitLocked(sym); err != nil {
		return models.Quote{}, err
	}

	q := seed.ToQuote(r.now())
	q.Symbol = sym
	r.entries[sym] = &q
	r.order = append(r.order, sym)
	r.metrics.SetTrackedSymbols(len(r.order))

	return q, nil
}

func (r *Registry) admitLocked(sym string) error {
	if _, ok := r.entries[sym]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, sym)
	}
	if len(r.order) >= Capacity {
		return fmt.Errorf("%w: %d symbols", ErrCapacityExceeded, Capacity)
	}
	return nil
}

// resolve runs at most one lookup per symbol. The shared call is detached from
// any single caller's cancellation; each caller still waits on its own ctx.
func (r *Registry) resolve(ctx context.Context, sym string) (*models.QuoteSeed, error) {
	ch := r.group.DoChan(sym, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.lookupTimeout)
		defer cancel()
		return r.lookup.Resolve(lctx, sym)
	})

	select {
	case <-ctx.Done():
		return nil, Classify(sym, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, Classify(sym, res.Err)
		}
		seed, _ := res.Val.(*models.QuoteSeed)
		if seed == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, sym)
		}
		if seed.Price.IsNegative() {
			return nil, fmt.Errorf("%w: negative price for %s", ErrProviderUnavailable, sym)
		}
		return seed, nil
	}
}

// Classify maps a lookup failure for sym onto the registry's sentinel errors
func Classify(sym string, err error) error {
	switch {
	case errors.Is(err, models.ErrSymbolNotFound):
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, sym)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s", ErrTimeout, sym)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s", ErrCancelled, sym)
	default:
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
}

// Remove stops tracking symbol. It reports whether an entry was removed.
func (r *Registry) Remove(symbol string) bool {
	sym := Normalize(symbol)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[sym]; !ok {
		r.metrics.RecordRegistryOperation("remove", "absent")
		return false
	}
	delete(r.entries, sym)
	for i, s := range r.order {
		if s == sym {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.metrics.RecordRegistryOperation("remove", "success")
	r.metrics.SetTrackedSymbols(len(r.order))
	return true
}

// RefreshAll applies a random walk of at most one percent to every tracked
// price and returns the updated quotes in insertion order.
func (r *Registry) RefreshAll(rnd RandomSource) []models.Quote {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	out := make([]models.Quote, 0, len(r.order))
	for _, sym := range r.order {
		q := r.entries[sym]
		pct := drawPercent(rnd)
		change := q.Price.Mul(pct).Div(hundred).Round(pricePlaces)

		q.Price = q.Price.Add(change)
		q.Change = change
		q.ChangePercent = pct
		q.LastUpdated = now
		out = append(out, *q)
	}
	return out
}

// drawPercent maps a [0, 1) draw onto a percentage in [-1, +1]
func drawPercent(rnd RandomSource) decimal.Decimal {
	v := rnd.Float64()*2 - 1
	v = math.Max(-1, math.Min(1, v))
	return decimal.NewFromFloat(v).Round(percentPlaces)
}

// Tracked returns copies of all tracked quotes in insertion order
func (r *Registry) Tracked() []models.Quote {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Quote, 0, len(r.order))
	for _, sym := range r.order {
		out = append(out, *r.entries[sym])
	}
	return out
}

// Symbols returns the tracked symbols in insertion order
func (r *Registry) Symbols() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the tracked quote for symbol
func (r *Registry) Get(symbol string) (models.Quote, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.entries[Normalize(symbol)]
	if !ok {
		return models.Quote{}, false
	}
	return *q, true
}

// Len returns the number of tracked symbols
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Capacity returns the maximum number of tracked symbols
func (r *Registry) Capacity() int {
	return Capacity
}
