package service

import (
	"errors"
	"testing"

	"portfolio_go/internal/domain"

	"github.com/shopspring/decimal"
)

func TestRiskService_SingleEquityIsHighRisk(t *testing.T) {
	store := newTestStore(t)
	p := seedTestPortfolio(t, store)
	seedAsset(t, store, p.ID, "AAPL", domain.AssetTypeEquity, 10, 100, 150)

	svc := NewRiskService(store, decimal.Zero)
	report, err := svc.Analyze(p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.RiskLevel != domain.RiskLevelHigh {
		t.Errorf("expected high risk, got %s", report.RiskLevel)
	}
	if !report.RiskScore.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected capped score 100, got %v", report.RiskScore)
	}
	if !report.AssetTypeAllocations[domain.AssetTypeEquity].Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 100%% equity, got %v", report.AssetTypeAllocations)
	}
	if !report.SectorConcentrations["Technology"].Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected full Technology concentration, got %v", report.SectorConcentrations)
	}
	if len(report.HighRiskAssets) != 1 || report.HighRiskAssets[0].Symbol != "AAPL" {
		t.Errorf("expected AAPL flagged, got %v", report.HighRiskAssets)
	}
	if !report.DiversificationScore.IsZero() {
		t.Errorf("expected diversification 0 for a single holding, got %v", report.DiversificationScore)
	}
}

func TestRiskService_BalancedPortfolioIsModerate(t *testing.T) {
	store := newTestStore(t)
	p := seedTestPortfolio(t, store)
	seedAsset(t, store, p.ID, "AAPL", domain.AssetTypeEquity, 30, 1, 1)
	seedAsset(t, store, p.ID, "JNJ", domain.AssetTypeEquity, 30, 1, 1)
	seedAsset(t, store, p.ID, "BND", domain.AssetTypeBond, 30, 1, 1)
	seedAsset(t, store, p.ID, "CASH", domain.AssetTypeCash, 10, 1, 1)

	svc := NewRiskService(store, decimal.Zero)
	report, err := svc.Analyze(p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// allocation (0.6*0.7 + 0.3*0.2)*0.4 + sector (0.3-0.25)*0.8
	// + volatility (0.124/0.2)*0.4 = 0.48
	if !report.RiskScore.Equal(decimal.NewFromInt(48)) {
		t.Errorf("expected score 48, got %v", report.RiskScore)
	}
	if report.RiskLevel != domain.RiskLevelModerate {
		t.Errorf("expected moderate risk, got %s", report.RiskLevel)
	}
	if !report.EstimatedVolatility.Equal(decimal.NewFromFloat(0.124)) {
		t.Errorf("expected volatility 0.124, got %v", report.EstimatedVolatility)
	}
	if report.SectorConcentrations["Healthcare"].IsZero() {
		t.Error("expected a Healthcare sector entry")
	}
}

func TestRiskService_UnknownSymbolFallsIntoOther(t *testing.T) {
	store := newTestStore(t)
	p := seedTestPortfolio(t, store)
	seedAsset(t, store, p.ID, "ZZZZ", domain.AssetTypeEquity, 10, 1, 1)

	svc := NewRiskService(store, decimal.Zero)
	report, err := svc.Analyze(p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.SectorConcentrations["Other"].Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected Other sector, got %v", report.SectorConcentrations)
	}
}

func TestRiskService_EmptyPortfolio(t *testing.T) {
	store := newTestStore(t)
	p := seedTestPortfolio(t, store)

	svc := NewRiskService(store, decimal.Zero)
	_, err := svc.Analyze(p.ID)
	if !errors.Is(err, domain.ErrNoAssets) {
		t.Fatalf("expected ErrNoAssets, got %v", err)
	}
}
