package services

import (
	"context"
	"errors"
	"testing"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stocksense/models"
)

type fakeSnapshotClient struct {
	snapshots map[string]*marketdata.Snapshot
	err       error
	calls     int
}

func (f *fakeSnapshotClient) GetSnapshot(symbol string, _ marketdata.GetSnapshotRequest) (*marketdata.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshots[symbol], nil
}

type fakeAssetClient struct {
	names map[string]string
}

func (f *fakeAssetClient) GetAsset(symbol string) (*alpaca.Asset, error) {
	name, ok := f.names[symbol]
	if !ok {
		return nil, errors.New("asset not found")
	}
	return &alpaca.Asset{Symbol: symbol, Name: name}, nil
}

func aaplSnapshot() *marketdata.Snapshot {
	return &marketdata.Snapshot{
		LatestTrade:  &marketdata.Trade{Price: 110},
		DailyBar:     &marketdata.Bar{Close: 110, Volume: 52_300_000},
		PrevDailyBar: &marketdata.Bar{Close: 100},
	}
}

func TestNewAlpacaService(t *testing.T) {
	service := NewAlpacaService("test-key", "test-secret", "https://paper-api.alpaca.markets", "https://data.alpaca.markets", ClientOptions{})
	if service == nil {
		t.Fatal("NewAlpacaService should not return nil")
	}
	if service.dataClient == nil {
		t.Error("dataClient should not be nil")
	}
	if service.assetClient == nil {
		t.Error("assetClient should not be nil")
	}
}

func TestAlpaca_Resolve(t *testing.T) {
	data := &fakeSnapshotClient{snapshots: map[string]*marketdata.Snapshot{"AAPL": aaplSnapshot()}}
	assets := &fakeAssetClient{names: map[string]string{"AAPL": "Apple Inc."}}
	service := NewAlpacaServiceWithClients(data, assets, fastOptions())

	seed, err := service.Resolve(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if seed.Name != "Apple Inc." {
		t.Errorf("Name = %q, want 'Apple Inc.'", seed.Name)
	}
	if seed.Price.String() != "110" {
		t.Errorf("Price = %s, want 110", seed.Price)
	}
	if seed.Change.String() != "10" {
		t.Errorf("Change = %s, want 10", seed.Change)
	}
	if seed.ChangePercent.String() != "10" {
		t.Errorf("ChangePercent = %s, want 10", seed.ChangePercent)
	}
	if seed.Volume != "52.3M" {
		t.Errorf("Volume = %s, want 52.3M", seed.Volume)
	}
}

func TestAlpaca_ResolveWithoutAssetName(t *testing.T) {
	data := &fakeSnapshotClient{snapshots: map[string]*marketdata.Snapshot{"AAPL": aaplSnapshot()}}

	seed, err := NewAlpacaServiceWithClients(data, &fakeAssetClient{}, fastOptions()).Resolve(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if seed.Name != "AAPL" {
		t.Errorf("expected symbol as name, got %q", seed.Name)
	}

	seed, err = NewAlpacaServiceWithClients(data, nil, fastOptions()).Resolve(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if seed.Name != "AAPL" {
		t.Errorf("expected symbol as name with nil asset client, got %q", seed.Name)
	}
}

func TestAlpaca_ResolveNoPreviousBar(t *testing.T) {
	snap := &marketdata.Snapshot{LatestTrade: &marketdata.Trade{Price: 42.5}}
	data := &fakeSnapshotClient{snapshots: map[string]*marketdata.Snapshot{"NEW": snap}}

	seed, err := NewAlpacaServiceWithClients(data, nil, fastOptions()).Resolve(context.Background(), "NEW")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !seed.Change.IsZero() || !seed.ChangePercent.IsZero() {
		t.Errorf("expected zero change without a previous bar, got %s / %s", seed.Change, seed.ChangePercent)
	}
	if seed.Volume != "0" {
		t.Errorf("Volume = %s, want 0", seed.Volume)
	}
}

func TestAlpaca_ResolveUnknownSymbol(t *testing.T) {
	tests := []struct {
		name string
		snap *marketdata.Snapshot
	}{
		{"nil snapshot", nil},
		{"no latest trade", &marketdata.Snapshot{DailyBar: &marketdata.Bar{Close: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := &fakeSnapshotClient{snapshots: map[string]*marketdata.Snapshot{"ZZZ": tt.snap}}
			_, err := NewAlpacaServiceWithClients(data, nil, fastOptions()).Resolve(context.Background(), "ZZZ")
			if !errors.Is(err, models.ErrSymbolNotFound) {
				t.Fatalf("expected ErrSymbolNotFound, got %v", err)
			}
			if data.calls != 1 {
				t.Errorf("not-found should not be retried, got %d calls", data.calls)
			}
		})
	}
}

func TestAlpaca_ResolveClientError(t *testing.T) {
	data := &fakeSnapshotClient{err: errors.New("connection reset")}
	_, err := NewAlpacaServiceWithClients(data, nil, fastOptions()).Resolve(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, models.ErrSymbolNotFound) {
		t.Error("transport failures must not read as not found")
	}
	if data.calls != 3 {
		t.Errorf("expected initial call plus 2 retries, got %d", data.calls)
	}
}

func TestAlpaca_ResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := &fakeSnapshotClient{snapshots: map[string]*marketdata.Snapshot{"AAPL": aaplSnapshot()}}
	_, err := NewAlpacaServiceWithClients(data, nil, fastOptions()).Resolve(ctx, "AAPL")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
