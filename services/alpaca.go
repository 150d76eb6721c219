package services

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"stocksense/models"
	"stocksense/observability"
)

// SnapshotClient is the subset of the Alpaca market data client used here
type SnapshotClient interface {
	GetSnapshot(symbol string, req marketdata.GetSnapshotRequest) (*marketdata.Snapshot, error)
}

// AssetClient is the subset of the Alpaca trading client used here
type AssetClient interface {
	GetAsset(symbol string) (*alpaca.Asset, error)
}

// AlpacaService resolves quotes from Alpaca market data snapshots
type AlpacaService struct {
	dataClient  SnapshotClient
	assetClient AssetClient
	breakers    *CircuitBreakerRegistry
	retry       RetryConfig
	metrics     *observability.Metrics
}

// NewAlpacaService creates a new AlpacaService instance
func NewAlpacaService(apiKey, apiSecret, baseURL, dataURL string, opts ClientOptions) *AlpacaService {
	tradeClient := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})

	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   dataURL,
	})

	return NewAlpacaServiceWithClients(dataClient, tradeClient, opts)
}

// NewAlpacaServiceWithClients creates an AlpacaService over the given clients.
// assets may be nil, in which case quotes are named by symbol.
func NewAlpacaServiceWithClients(data SnapshotClient, assets AssetClient, opts ClientOptions) *AlpacaService {
	opts = opts.withDefaults()
	return &AlpacaService{
		dataClient:  data,
		assetClient: assets,
		breakers:    opts.Breakers,
		retry:       *opts.Retry,
		metrics:     opts.Metrics,
	}
}

// Resolve builds a quote from the latest trade and the previous daily close
func (s *AlpacaService) Resolve(ctx context.Context, symbol string) (*models.QuoteSeed, error) {
	return ExecuteWith(ctx, s.breakers, BreakerAlpaca, func() (*models.QuoteSeed, error) {
		var snapshot *marketdata.Snapshot
		err := WithRetry(ctx, s.retry, func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.metrics.RecordExternalAPIRequest(BreakerAlpaca, "snapshot")
			timer := s.metrics.NewTimer()
			snap, err := s.dataClient.GetSnapshot(symbol, marketdata.GetSnapshotRequest{})
			timer.ObserveExternalAPI(BreakerAlpaca, "snapshot")
			if err != nil {
				s.metrics.RecordExternalAPIError(BreakerAlpaca, "snapshot", "request")
				return fmt.Errorf("failed to get snapshot for %s: %w", symbol, err)
			}
			if snap == nil || snap.LatestTrade == nil {
				return fmt.Errorf("alpaca %s: %w", symbol, models.ErrSymbolNotFound)
			}
			snapshot = snap
			return nil
		})
		if err != nil {
			return nil, err
		}

		seed := quoteSeedFromSnapshot(symbol, snapshot)
		seed.Name = s.assetName(symbol)
		return seed, nil
	})
}

func quoteSeedFromSnapshot(symbol string, snap *marketdata.Snapshot) *models.QuoteSeed {
	price := decimal.NewFromFloat(snap.LatestTrade.Price)

	change, pct := decimal.Zero, decimal.Zero
	if snap.PrevDailyBar != nil && snap.PrevDailyBar.Close > 0 {
		prev := decimal.NewFromFloat(snap.PrevDailyBar.Close)
		change = price.Sub(prev)
		pct = change.Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
	}

	volume := "0"
	if snap.DailyBar != nil {
		volume = CompactNumber(float64(snap.DailyBar.Volume))
	}

	return &models.QuoteSeed{
		Symbol:        symbol,
		Name:          symbol,
		Price:         price,
		Change:        change,
		ChangePercent: pct,
		Volume:        volume,
	}
}

// assetName looks up the company name, falling back to the symbol
func (s *AlpacaService) assetName(symbol string) string {
	if s.assetClient == nil {
		return symbol
	}
	asset, err := s.assetClient.GetAsset(symbol)
	if err != nil || asset == nil || asset.Name == "" {
		if err != nil {
			observability.WithSymbol(symbol).Debug("asset lookup failed", "error", err)
		}
		return symbol
	}
	return asset.Name
}
