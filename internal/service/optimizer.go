package service

import (
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// riskTier pairs a risk appetite with its model allocation mix.
type riskTier struct {
	risk decimal.Decimal
	mix  map[string]decimal.Decimal
}

// riskTiers are the model portfolios, ordered by rising risk appetite. Target
// mixes in between are linearly interpolated.
var riskTiers = []riskTier{
	{decimal.NewFromFloat(0.1), map[string]decimal.Decimal{
		domain.AssetTypeEquity:      decimal.NewFromFloat(0.20),
		domain.AssetTypeBond:        decimal.NewFromFloat(0.65),
		domain.AssetTypeAlternative: decimal.NewFromFloat(0.05),
		domain.AssetTypeCash:        decimal.NewFromFloat(0.10),
	}},
	{decimal.NewFromFloat(0.3), map[string]decimal.Decimal{
		domain.AssetTypeEquity:      decimal.NewFromFloat(0.40),
		domain.AssetTypeBond:        decimal.NewFromFloat(0.45),
		domain.AssetTypeAlternative: decimal.NewFromFloat(0.05),
		domain.AssetTypeCash:        decimal.NewFromFloat(0.10),
	}},
	{decimal.NewFromFloat(0.5), map[string]decimal.Decimal{
		domain.AssetTypeEquity:      decimal.NewFromFloat(0.60),
		domain.AssetTypeBond:        decimal.NewFromFloat(0.30),
		domain.AssetTypeAlternative: decimal.NewFromFloat(0.05),
		domain.AssetTypeCash:        decimal.NewFromFloat(0.05),
	}},
	{decimal.NewFromFloat(0.7), map[string]decimal.Decimal{
		domain.AssetTypeEquity:      decimal.NewFromFloat(0.75),
		domain.AssetTypeBond:        decimal.NewFromFloat(0.15),
		domain.AssetTypeAlternative: decimal.NewFromFloat(0.05),
		domain.AssetTypeCash:        decimal.NewFromFloat(0.05),
	}},
	{decimal.NewFromFloat(0.9), map[string]decimal.Decimal{
		domain.AssetTypeEquity:      decimal.NewFromFloat(0.85),
		domain.AssetTypeBond:        decimal.NewFromFloat(0.05),
		domain.AssetTypeAlternative: decimal.NewFromFloat(0.08),
		domain.AssetTypeCash:        decimal.NewFromFloat(0.02),
	}},
}

// rebalanceDeadband suppresses moves smaller than 2% of the portfolio.
var rebalanceDeadband = decimal.NewFromFloat(0.02)

// DefaultConstraints returns the standard optimization bounds.
func DefaultConstraints() domain.OptimizationConstraints {
	return domain.OptimizationConstraints{
		MaxAllocationPerAsset:     decimal.NewFromFloat(0.2),
		MinBondsAllocation:        decimal.NewFromFloat(0.15),
		MaxAlternativesAllocation: decimal.NewFromFloat(0.1),
		LiquidityRequirement:      decimal.NewFromFloat(0.3),
	}
}

// OptimizerService recommends a target allocation for a risk appetite.
type OptimizerService struct {
	store *storage.Storage
}

// NewOptimizerService creates an optimizer service.
func NewOptimizerService(store *storage.Storage) *OptimizerService {
	return &OptimizerService{store: store}
}

// Optimize builds the rebalancing plan for a portfolio toward targetRisk
// (0..1, clamped). Zero-valued constraints fall back to the defaults.
func (s *OptimizerService) Optimize(portfolioID uint, targetRisk decimal.Decimal, constraints domain.OptimizationConstraints) (domain.OptimizationPlan, error) {
	p, err := s.store.GetPortfolio(portfolioID)
	if err != nil {
		return domain.OptimizationPlan{}, err
	}
	if p == nil {
		return domain.OptimizationPlan{}, domain.ErrNotFound
	}
	if len(p.Assets) == 0 {
		return domain.OptimizationPlan{}, domain.ErrNoAssets
	}

	defaults := DefaultConstraints()
	if constraints.MinBondsAllocation.IsZero() {
		constraints.MinBondsAllocation = defaults.MinBondsAllocation
	}
	if constraints.MaxAlternativesAllocation.IsZero() {
		constraints.MaxAlternativesAllocation = defaults.MaxAlternativesAllocation
	}
	if constraints.MaxAllocationPerAsset.IsZero() {
		constraints.MaxAllocationPerAsset = defaults.MaxAllocationPerAsset
	}
	if constraints.LiquidityRequirement.IsZero() {
		constraints.LiquidityRequirement = defaults.LiquidityRequirement
	}

	targetRisk = decimal.Min(decimal.Max(targetRisk, decimal.Zero), decimal.NewFromInt(1))

	totalValue := decimal.Zero
	current := make(map[string]decimal.Decimal)
	for i := range p.Assets {
		totalValue = totalValue.Add(p.Assets[i].MarketValue())
	}
	if totalValue.IsZero() {
		return domain.OptimizationPlan{}, domain.ErrNoAssets
	}
	for i := range p.Assets {
		a := &p.Assets[i]
		current[a.AssetType] = current[a.AssetType].Add(a.MarketValue().Div(totalValue))
	}

	target := applyConstraints(targetMix(targetRisk), constraints)

	plan := domain.OptimizationPlan{
		PortfolioID:        p.ID,
		TargetRisk:         targetRisk,
		TargetAllocations:  make(map[string]decimal.Decimal),
		CurrentAllocations: make(map[string]decimal.Decimal),
		ExpectedVolatility: estimatedVolatility(target).Round(4),
		Timestamp:          time.Now(),
	}
	for assetType, w := range target {
		plan.TargetAllocations[assetType] = w.Round(4)
	}
	for assetType, w := range current {
		plan.CurrentAllocations[assetType] = w.Round(4)
	}

	// One move per asset class whose drift exceeds the deadband.
	for _, assetType := range []string{
		domain.AssetTypeEquity, domain.AssetTypeBond,
		domain.AssetTypeAlternative, domain.AssetTypeCash,
	} {
		diff := target[assetType].Sub(current[assetType])
		if diff.Abs().LessThanOrEqual(rebalanceDeadband) {
			continue
		}
		action := "buy"
		if diff.IsNegative() {
			action = "sell"
		}
		plan.Moves = append(plan.Moves, domain.RebalanceMove{
			AssetType: assetType,
			Action:    action,
			Amount:    diff.Abs().Mul(totalValue).Round(2),
		})
	}

	// Per-holding sells for equity positions breaching the per-asset cap.
	// Cash and bond sleeves are governed by the class-level clamps above.
	for i := range p.Assets {
		a := &p.Assets[i]
		if a.AssetType != domain.AssetTypeEquity && a.AssetType != domain.AssetTypeAlternative {
			continue
		}
		weight := a.MarketValue().Div(totalValue)
		excess := weight.Sub(constraints.MaxAllocationPerAsset)
		if excess.LessThanOrEqual(rebalanceDeadband) {
			continue
		}
		plan.Moves = append(plan.Moves, domain.RebalanceMove{
			AssetType: a.AssetType,
			Symbol:    a.Symbol,
			Action:    "sell",
			Amount:    excess.Mul(totalValue).Round(2),
		})
	}

	return plan, nil
}

// targetMix interpolates the model mix for a risk appetite between the two
// surrounding tiers.
func targetMix(targetRisk decimal.Decimal) map[string]decimal.Decimal {
	first, last := riskTiers[0], riskTiers[len(riskTiers)-1]
	if targetRisk.LessThanOrEqual(first.risk) {
		return cloneMix(first.mix)
	}
	if targetRisk.GreaterThanOrEqual(last.risk) {
		return cloneMix(last.mix)
	}

	for i := 1; i < len(riskTiers); i++ {
		lo, hi := riskTiers[i-1], riskTiers[i]
		if targetRisk.GreaterThan(hi.risk) {
			continue
		}
		t := targetRisk.Sub(lo.risk).Div(hi.risk.Sub(lo.risk))
		mix := make(map[string]decimal.Decimal, len(lo.mix))
		for assetType, low := range lo.mix {
			mix[assetType] = low.Add(hi.mix[assetType].Sub(low).Mul(t))
		}
		return mix
	}
	return cloneMix(last.mix)
}

// applyConstraints clamps the mix to the bounds, then renormalizes via the
// equity leg so the weights still sum to one.
func applyConstraints(mix map[string]decimal.Decimal, c domain.OptimizationConstraints) map[string]decimal.Decimal {
	out := cloneMix(mix)

	out[domain.AssetTypeBond] = decimal.Max(out[domain.AssetTypeBond], c.MinBondsAllocation)
	out[domain.AssetTypeAlternative] = decimal.Min(out[domain.AssetTypeAlternative], c.MaxAlternativesAllocation)

	// Cash plus bonds must cover the liquidity requirement.
	liquid := out[domain.AssetTypeCash].Add(out[domain.AssetTypeBond])
	if liquid.LessThan(c.LiquidityRequirement) {
		out[domain.AssetTypeCash] = out[domain.AssetTypeCash].Add(c.LiquidityRequirement.Sub(liquid))
	}

	rest := out[domain.AssetTypeBond].
		Add(out[domain.AssetTypeAlternative]).
		Add(out[domain.AssetTypeCash])
	out[domain.AssetTypeEquity] = decimal.Max(decimal.NewFromInt(1).Sub(rest), decimal.Zero)

	total := out[domain.AssetTypeEquity].Add(rest)
	if !total.Equal(decimal.NewFromInt(1)) && !total.IsZero() {
		for assetType, w := range out {
			out[assetType] = w.Div(total)
		}
	}
	return out
}

func cloneMix(mix map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(mix))
	for assetType, w := range mix {
		out[assetType] = w
	}
	return out
}
