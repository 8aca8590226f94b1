package service

import (
	"errors"
	"testing"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.NewMemoryStorage()
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	return s
}

func seedAsset(t *testing.T, s *storage.Storage, portfolioID uint, symbol, assetType string, qty, purchase, current int64) *domain.Asset {
	t.Helper()
	a := &domain.Asset{
		PortfolioID:   portfolioID,
		Symbol:        symbol,
		Name:          symbol,
		AssetType:     assetType,
		Quantity:      decimal.NewFromInt(qty),
		PurchasePrice: decimal.NewFromInt(purchase),
		CurrentPrice:  decimal.NewFromInt(current),
	}
	if err := s.CreateAsset(a); err != nil {
		t.Fatalf("failed to create asset: %v", err)
	}
	return a
}

func seedTestPortfolio(t *testing.T, s *storage.Storage) *domain.Portfolio {
	t.Helper()
	p := &domain.Portfolio{Name: "Main"}
	if err := s.CreatePortfolio(p); err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}
	return p
}

func TestPortfolioService_Summary(t *testing.T) {
	store := newTestStore(t)
	p := seedTestPortfolio(t, store)
	seedAsset(t, store, p.ID, "AAPL", domain.AssetTypeEquity, 10, 100, 150)
	seedAsset(t, store, p.ID, "BND", domain.AssetTypeBond, 5, 80, 100)

	svc := NewPortfolioService(store)
	summary, err := svc.Summary(p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !summary.TotalValue.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("expected total value 2000, got %v", summary.TotalValue)
	}
	if !summary.TotalCost.Equal(decimal.NewFromInt(1400)) {
		t.Errorf("expected total cost 1400, got %v", summary.TotalCost)
	}
	if !summary.TotalGainLoss.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected gain 600, got %v", summary.TotalGainLoss)
	}
	if len(summary.Holdings) != 2 {
		t.Fatalf("expected 2 holdings, got %d", len(summary.Holdings))
	}
	if !summary.Holdings[0].Weight.Equal(decimal.NewFromFloat(0.75)) {
		t.Errorf("expected AAPL weight 0.75, got %v", summary.Holdings[0].Weight)
	}
	if !summary.ByAssetType[domain.AssetTypeBond].Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("expected bond allocation 0.25, got %v", summary.ByAssetType[domain.AssetTypeBond])
	}
}

func TestPortfolioService_Summary_NotFound(t *testing.T) {
	svc := NewPortfolioService(newTestStore(t))

	_, err := svc.Summary(42)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPortfolioService_History_FallsBackToPurchasePrice(t *testing.T) {
	store := newTestStore(t)
	p := seedTestPortfolio(t, store)
	seedAsset(t, store, p.ID, "AAPL", domain.AssetTypeEquity, 10, 100, 150)

	// A single quote today; earlier days have no data.
	err := store.SaveQuotePoint(&domain.QuotePoint{
		Symbol: "AAPL",
		Price:  decimal.NewFromInt(150),
		At:     time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc := NewPortfolioService(store)
	series, err := svc.History(p.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series.Points))
	}
	if !series.Points[0].Value.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected purchase-price baseline 1000, got %v", series.Points[0].Value)
	}
	if !series.Points[2].Value.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("expected quoted value 1500 today, got %v", series.Points[2].Value)
	}
}

func TestPortfolioService_ExecuteTrade_RecordsAction(t *testing.T) {
	store := newTestStore(t)
	p := seedTestPortfolio(t, store)
	a := seedAsset(t, store, p.ID, "AAPL", domain.AssetTypeEquity, 10, 100, 150)

	svc := NewPortfolioService(store)
	trade := &domain.Trade{
		AssetID:   a.ID,
		TradeType: domain.TradeTypeBuy,
		Quantity:  decimal.NewFromInt(5),
		Price:     decimal.NewFromInt(155),
	}
	if err := svc.ExecuteTrade(p.ID, trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := store.ListActions(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 action entry, got %d", len(entries))
	}
	if entries[0].Kind != domain.ActionKindTrade {
		t.Errorf("expected trade action, got %s", entries[0].Kind)
	}
}

func TestPortfolioService_AddAsset_DefaultsCurrentPrice(t *testing.T) {
	store := newTestStore(t)
	p := seedTestPortfolio(t, store)

	svc := NewPortfolioService(store)
	asset := &domain.Asset{
		Symbol:        "VTI",
		Name:          "Vanguard Total Market",
		AssetType:     domain.AssetTypeEquity,
		Quantity:      decimal.NewFromInt(3),
		PurchasePrice: decimal.NewFromInt(220),
	}
	if err := svc.AddAsset(p.ID, asset); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.GetAsset(asset.ID)
	if !got.CurrentPrice.Equal(decimal.NewFromInt(220)) {
		t.Errorf("expected current price to default to purchase price, got %v", got.CurrentPrice)
	}
}
