package storage

import (
	"errors"
	"testing"
	"time"

	"portfolio_go/internal/domain"

	"github.com/shopspring/decimal"
)

func dayAgo(n int) time.Time {
	return time.Now().AddDate(0, 0, -n)
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewMemoryStorage()
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	return s
}

func seedPortfolio(t *testing.T, s *Storage) (*domain.Portfolio, *domain.Asset) {
	t.Helper()
	p := &domain.Portfolio{Name: "Growth", Description: "test portfolio"}
	if err := s.CreatePortfolio(p); err != nil {
		t.Fatalf("failed to create portfolio: %v", err)
	}
	a := &domain.Asset{
		PortfolioID:   p.ID,
		Symbol:        "AAPL",
		Name:          "Apple Inc.",
		AssetType:     domain.AssetTypeEquity,
		Quantity:      decimal.NewFromInt(10),
		PurchasePrice: decimal.NewFromInt(100),
		CurrentPrice:  decimal.NewFromInt(150),
	}
	if err := s.CreateAsset(a); err != nil {
		t.Fatalf("failed to create asset: %v", err)
	}
	return p, a
}

func TestStorage_PortfolioRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	p, _ := seedPortfolio(t, s)

	got, err := s.GetPortfolio(p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("portfolio should exist")
	}
	if got.Name != "Growth" {
		t.Errorf("expected Growth, got %s", got.Name)
	}
	if len(got.Assets) != 1 {
		t.Errorf("expected 1 asset preloaded, got %d", len(got.Assets))
	}
}

func TestStorage_GetPortfolio_NotFoundIsNil(t *testing.T) {
	s := newTestStorage(t)

	got, err := s.GetPortfolio(999)
	if err != nil {
		t.Fatalf("not found must not be an error, got %v", err)
	}
	if got != nil {
		t.Error("expected nil portfolio")
	}
}

func TestStorage_ExecuteTrade_BuyIncreasesQuantity(t *testing.T) {
	s := newTestStorage(t)
	p, a := seedPortfolio(t, s)

	trade := &domain.Trade{
		PortfolioID: p.ID,
		AssetID:     a.ID,
		TradeType:   domain.TradeTypeBuy,
		Quantity:    decimal.NewFromInt(5),
		Price:       decimal.NewFromInt(155),
	}
	if err := s.ExecuteTrade(trade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trade.Status != domain.TradeStatusExecuted {
		t.Errorf("expected executed status, got %s", trade.Status)
	}

	got, _ := s.GetAsset(a.ID)
	if !got.Quantity.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected quantity 15, got %v", got.Quantity)
	}
}

func TestStorage_ExecuteTrade_SellBeyondHoldingFails(t *testing.T) {
	s := newTestStorage(t)
	p, a := seedPortfolio(t, s)

	trade := &domain.Trade{
		PortfolioID: p.ID,
		AssetID:     a.ID,
		TradeType:   domain.TradeTypeSell,
		Quantity:    decimal.NewFromInt(11),
		Price:       decimal.NewFromInt(150),
	}
	err := s.ExecuteTrade(trade)
	if !errors.Is(err, domain.ErrInsufficientShares) {
		t.Fatalf("expected ErrInsufficientShares, got %v", err)
	}

	// Quantity must be untouched after the rollback.
	got, _ := s.GetAsset(a.ID)
	if !got.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected quantity 10 after rollback, got %v", got.Quantity)
	}
}

func TestStorage_UpdateAssetPrices(t *testing.T) {
	s := newTestStorage(t)
	_, a := seedPortfolio(t, s)

	if err := s.UpdateAssetPrices("AAPL", decimal.NewFromInt(160)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.GetAsset(a.ID)
	if !got.CurrentPrice.Equal(decimal.NewFromInt(160)) {
		t.Errorf("expected price 160, got %v", got.CurrentPrice)
	}
}

func TestStorage_ActionLog(t *testing.T) {
	s := newTestStorage(t)

	if err := s.RecordAction(domain.ActionKindTrade, "bought 5 AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RecordAction(domain.ActionKindChat, "asked about risk"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := s.ListActions(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if err := s.ClearActions(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ = s.ListActions(10)
	if len(entries) != 0 {
		t.Errorf("expected empty log after clear, got %d", len(entries))
	}
}

func TestStorage_QuoteHistory(t *testing.T) {
	s := newTestStorage(t)

	for i, price := range []int64{100, 102, 101} {
		err := s.SaveQuotePoint(&domain.QuotePoint{
			Symbol: "AAPL",
			Price:  decimal.NewFromInt(price),
			At:     dayAgo(2 - i),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	points, err := s.GetQuoteHistory("AAPL", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	// Oldest first.
	if !points[0].Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected oldest point first, got %v", points[0].Price)
	}
}
