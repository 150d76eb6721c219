package services

import (
	"context"
	"errors"

	"stocksense/models"
	"stocksense/observability"
)

// FallbackLookup resolves through a live provider and falls back to a
// secondary resolver when the live provider fails or does not list the symbol
type FallbackLookup struct {
	name     string
	primary  QuoteResolver
	fallback QuoteResolver
}

// NewFallbackLookup creates a FallbackLookup. name labels log lines.
func NewFallbackLookup(name string, primary, fallback QuoteResolver) *FallbackLookup {
	return &FallbackLookup{name: name, primary: primary, fallback: fallback}
}

// Resolve tries the primary resolver, then the fallback. Caller
// cancellation and deadlines are returned as is.
func (f *FallbackLookup) Resolve(ctx context.Context, symbol string) (*models.QuoteSeed, error) {
	seed, err := f.primary.Resolve(ctx, symbol)
	if err == nil {
		return seed, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	if !errors.Is(err, models.ErrSymbolNotFound) {
		observability.WithSymbol(symbol).Warn("live quote provider failed, using fallback",
			"provider", f.name,
			"error", err)
	}

	fbSeed, fbErr := f.fallback.Resolve(ctx, symbol)
	if fbErr != nil {
		if errors.Is(fbErr, models.ErrSymbolNotFound) && !errors.Is(err, models.ErrSymbolNotFound) {
			// The live provider's failure is the more useful error
			return nil, err
		}
		return nil, fbErr
	}
	return fbSeed, nil
}
