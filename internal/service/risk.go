package service

import (
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// Baseline annualized volatility per asset class.
var assetTypeVolatility = map[string]decimal.Decimal{
	domain.AssetTypeEquity:      decimal.NewFromFloat(0.18),
	domain.AssetTypeBond:        decimal.NewFromFloat(0.05),
	domain.AssetTypeAlternative: decimal.NewFromFloat(0.30),
	domain.AssetTypeCash:        decimal.NewFromFloat(0.01),
}

// sectorBySymbol classifies common equity symbols. Unknown symbols fall into
// "Other".
var sectorBySymbol = map[string]string{
	"AAPL": "Technology", "MSFT": "Technology", "GOOGL": "Technology",
	"NVDA": "Technology", "META": "Technology", "AMZN": "Consumer Discretionary",
	"TSLA": "Consumer Discretionary", "JPM": "Financials", "BAC": "Financials",
	"GS": "Financials", "JNJ": "Healthcare", "PFE": "Healthcare",
	"UNH": "Healthcare", "XOM": "Energy", "CVX": "Energy",
	"PG": "Consumer Staples", "KO": "Consumer Staples",
}

var (
	sectorConcentrationCap = decimal.NewFromFloat(0.25)
	volatilityNormalizer   = decimal.NewFromFloat(0.20)
	alternativeRiskFloor   = decimal.NewFromFloat(0.05)
)

// RiskService analyzes portfolio risk from current holdings.
type RiskService struct {
	store     *storage.Storage
	threshold decimal.Decimal // per-asset allocation considered high risk
}

// NewRiskService creates a risk service. The threshold is the per-asset
// allocation above which a holding is flagged high risk.
func NewRiskService(store *storage.Storage, threshold decimal.Decimal) *RiskService {
	if threshold.IsZero() {
		threshold = decimal.NewFromFloat(0.2)
	}
	return &RiskService{store: store, threshold: threshold}
}

// Analyze builds the risk report for a portfolio using the configured
// threshold.
func (s *RiskService) Analyze(portfolioID uint) (domain.RiskReport, error) {
	return s.AnalyzeWithThreshold(portfolioID, s.threshold)
}

// AnalyzeWithThreshold builds the risk report with a per-request threshold.
func (s *RiskService) AnalyzeWithThreshold(portfolioID uint, threshold decimal.Decimal) (domain.RiskReport, error) {
	if threshold.IsZero() {
		threshold = s.threshold
	}
	p, err := s.store.GetPortfolio(portfolioID)
	if err != nil {
		return domain.RiskReport{}, err
	}
	if p == nil {
		return domain.RiskReport{}, domain.ErrNotFound
	}
	if len(p.Assets) == 0 {
		return domain.RiskReport{}, domain.ErrNoAssets
	}

	report := domain.RiskReport{
		PortfolioID:          p.ID,
		AssetTypeAllocations: make(map[string]decimal.Decimal),
		SectorConcentrations: make(map[string]decimal.Decimal),
		Timestamp:            time.Now(),
	}

	totalValue := decimal.Zero
	for i := range p.Assets {
		totalValue = totalValue.Add(p.Assets[i].MarketValue())
	}
	report.TotalValue = totalValue
	if totalValue.IsZero() {
		return domain.RiskReport{}, domain.ErrNoAssets
	}

	// Allocation by asset class and by sector (equities only), plus the
	// Herfindahl term for diversification.
	herfindahl := decimal.Zero
	for i := range p.Assets {
		a := &p.Assets[i]
		weight := a.MarketValue().Div(totalValue)
		report.AssetTypeAllocations[a.AssetType] =
			report.AssetTypeAllocations[a.AssetType].Add(weight)
		if a.AssetType == domain.AssetTypeEquity {
			sector := sectorBySymbol[a.Symbol]
			if sector == "" {
				sector = "Other"
			}
			report.SectorConcentrations[sector] =
				report.SectorConcentrations[sector].Add(weight)
		}
		herfindahl = herfindahl.Add(weight.Mul(weight))

		if weight.GreaterThan(threshold) {
			report.HighRiskAssets = append(report.HighRiskAssets, domain.HighRiskAsset{
				Symbol:     a.Symbol,
				AssetType:  a.AssetType,
				Allocation: weight.Round(4),
				Reason:     "allocation exceeds concentration threshold",
			})
		} else if a.AssetType == domain.AssetTypeAlternative && weight.GreaterThan(alternativeRiskFloor) {
			report.HighRiskAssets = append(report.HighRiskAssets, domain.HighRiskAsset{
				Symbol:     a.Symbol,
				AssetType:  a.AssetType,
				Allocation: weight.Round(4),
				Reason:     "volatile asset class",
			})
		}
	}
	for assetType, w := range report.AssetTypeAllocations {
		report.AssetTypeAllocations[assetType] = w.Round(4)
	}
	for sector, w := range report.SectorConcentrations {
		report.SectorConcentrations[sector] = w.Round(4)
	}

	report.EstimatedVolatility = estimatedVolatility(report.AssetTypeAllocations).Round(4)
	report.RiskScore = riskScore(report).Round(1)
	report.RiskLevel = riskLevel(report.RiskScore)
	report.DiversificationScore = decimal.NewFromInt(1).Sub(herfindahl).
		Mul(decimal.NewFromInt(100)).Round(1)

	return report, nil
}

// estimatedVolatility is the allocation-weighted sum of per-class baselines.
func estimatedVolatility(allocations map[string]decimal.Decimal) decimal.Decimal {
	vol := decimal.Zero
	for assetType, weight := range allocations {
		vol = vol.Add(weight.Mul(assetTypeVolatility[assetType]))
	}
	return vol
}

// riskScore combines allocation risk, sector concentration and volatility
// into a 0..100 score.
func riskScore(r domain.RiskReport) decimal.Decimal {
	allocationRisk := r.AssetTypeAllocations[domain.AssetTypeEquity].Mul(decimal.NewFromFloat(0.7)).
		Add(r.AssetTypeAllocations[domain.AssetTypeAlternative].Mul(decimal.NewFromFloat(0.5))).
		Add(r.AssetTypeAllocations[domain.AssetTypeBond].Mul(decimal.NewFromFloat(0.2))).
		Mul(decimal.NewFromFloat(0.4))

	maxSector := decimal.Zero
	for _, w := range r.SectorConcentrations {
		if w.GreaterThan(maxSector) {
			maxSector = w
		}
	}
	sectorPenalty := decimal.Max(decimal.Zero, maxSector.Sub(sectorConcentrationCap)).
		Mul(decimal.NewFromFloat(0.8))

	volatilityRisk := decimal.Min(r.EstimatedVolatility.Div(volatilityNormalizer), decimal.NewFromInt(1)).
		Mul(decimal.NewFromFloat(0.4))

	score := allocationRisk.Add(sectorPenalty).Add(volatilityRisk)
	score = decimal.Min(score, decimal.NewFromInt(1))
	return score.Mul(decimal.NewFromInt(100))
}

func riskLevel(score decimal.Decimal) string {
	switch {
	case score.LessThan(decimal.NewFromInt(35)):
		return domain.RiskLevelLow
	case score.LessThan(decimal.NewFromInt(65)):
		return domain.RiskLevelModerate
	default:
		return domain.RiskLevelHigh
	}
}
