package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Risk levels reported by the risk service.
const (
	RiskLevelLow      = "low"
	RiskLevelModerate = "moderate"
	RiskLevelHigh     = "high"
)

// HighRiskAsset flags one holding that breaches the risk threshold.
type HighRiskAsset struct {
	Symbol     string          `json:"symbol"`
	AssetType  string          `json:"asset_type"`
	Allocation decimal.Decimal `json:"allocation"`
	Reason     string          `json:"reason"`
}

// RiskReport is the portfolio risk analysis payload.
type RiskReport struct {
	PortfolioID          uint                       `json:"portfolio_id"`
	TotalValue           decimal.Decimal            `json:"total_value"`
	AssetTypeAllocations map[string]decimal.Decimal `json:"asset_type_allocations"`
	SectorConcentrations map[string]decimal.Decimal `json:"sector_concentrations"`
	EstimatedVolatility  decimal.Decimal            `json:"estimated_volatility"`
	RiskScore            decimal.Decimal            `json:"risk_score"` // 0..100
	RiskLevel            string                     `json:"risk_level"`
	DiversificationScore decimal.Decimal            `json:"diversification_score"` // 0..100
	HighRiskAssets       []HighRiskAsset            `json:"high_risk_assets"`
	Timestamp            time.Time                  `json:"timestamp"`
}

// RebalanceMove is one recommended buy or sell to reach the target mix.
// Symbol is set on per-holding moves (a single position breaching the
// per-asset cap) and empty on asset-class moves.
type RebalanceMove struct {
	AssetType string          `json:"asset_type"`
	Symbol    string          `json:"symbol,omitempty"`
	Action    string          `json:"action"` // buy, sell
	Amount    decimal.Decimal `json:"amount"`
}

// OptimizationConstraints bound the optimizer's target mix.
type OptimizationConstraints struct {
	MaxAllocationPerAsset     decimal.Decimal `json:"max_allocation_per_asset"`
	MinBondsAllocation        decimal.Decimal `json:"min_bonds_allocation"`
	MaxAlternativesAllocation decimal.Decimal `json:"max_alternatives_allocation"`
	LiquidityRequirement      decimal.Decimal `json:"liquidity_requirement"`
}

// OptimizationPlan is the optimizer's recommendation payload.
type OptimizationPlan struct {
	PortfolioID        uint                       `json:"portfolio_id"`
	TargetRisk         decimal.Decimal            `json:"target_risk"` // 0..1
	TargetAllocations  map[string]decimal.Decimal `json:"target_allocations"`
	CurrentAllocations map[string]decimal.Decimal `json:"current_allocations"`
	Moves              []RebalanceMove            `json:"rebalancing_moves"`
	ExpectedVolatility decimal.Decimal            `json:"expected_volatility"`
	Timestamp          time.Time                  `json:"timestamp"`
}

// MarketOutlook is the short/medium term view within a MarketAnalysis.
type MarketOutlook struct {
	ShortTerm  string `json:"short_term"`  // bullish, bearish, neutral
	MediumTerm string `json:"medium_term"` // bullish, bearish, neutral
}

// MarketAnalysis is the market analysis endpoint payload, also used to
// enrich chat prompts.
type MarketAnalysis struct {
	Trend      string        `json:"trend"` // up, down, mixed
	Outlook    MarketOutlook `json:"market_outlook"`
	KeyDrivers []string      `json:"key_drivers,omitempty"`
	Summary    string        `json:"market_summary"`
	Timestamp  time.Time     `json:"timestamp"`
}
