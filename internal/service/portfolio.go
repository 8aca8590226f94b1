// Package service implements the dashboard's business logic on top of the
// storage and provider clients.
package service

import (
	"fmt"
	"log/slog"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra/storage"

	"github.com/shopspring/decimal"
)

// PortfolioService computes summaries and history and executes trades.
type PortfolioService struct {
	store  *storage.Storage
	logger *slog.Logger
}

// NewPortfolioService creates a portfolio service.
func NewPortfolioService(store *storage.Storage) *PortfolioService {
	return &PortfolioService{
		store:  store,
		logger: slog.Default().With("module", "portfolio"),
	}
}

// Summary computes the portfolio's current valuation view.
func (s *PortfolioService) Summary(portfolioID uint) (domain.PortfolioSummary, error) {
	p, err := s.store.GetPortfolio(portfolioID)
	if err != nil {
		return domain.PortfolioSummary{}, err
	}
	if p == nil {
		return domain.PortfolioSummary{}, domain.ErrNotFound
	}

	summary := domain.PortfolioSummary{
		PortfolioID: p.ID,
		Name:        p.Name,
		ByAssetType: make(map[string]decimal.Decimal),
		AsOf:        time.Now(),
	}

	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for i := range p.Assets {
		totalValue = totalValue.Add(p.Assets[i].MarketValue())
		totalCost = totalCost.Add(p.Assets[i].CostBasis())
	}
	summary.TotalValue = totalValue
	summary.TotalCost = totalCost
	summary.TotalGainLoss = totalValue.Sub(totalCost)

	typeValues := make(map[string]decimal.Decimal)
	for i := range p.Assets {
		a := &p.Assets[i]
		value := a.MarketValue()
		weight := decimal.Zero
		if !totalValue.IsZero() {
			weight = value.Div(totalValue).Round(4)
		}
		summary.Holdings = append(summary.Holdings, domain.HoldingSummary{
			AssetID:      a.ID,
			Symbol:       a.Symbol,
			Name:         a.Name,
			AssetType:    a.AssetType,
			Quantity:     a.Quantity,
			CurrentPrice: a.CurrentPrice,
			Value:        value,
			Weight:       weight,
			GainLoss:     a.GainLoss(),
			GainLossPct:  a.GainLossPct().Round(2),
		})
		typeValues[a.AssetType] = typeValues[a.AssetType].Add(value)
	}

	if !totalValue.IsZero() {
		for assetType, value := range typeValues {
			summary.ByAssetType[assetType] = value.Div(totalValue).Round(4)
		}
	}

	return summary, nil
}

// History reconstructs the portfolio's daily value over the day range from
// stored quote points. Days without a quote fall back to the most recent
// earlier point, and to the purchase price before any quote exists.
func (s *PortfolioService) History(portfolioID uint, days int) (domain.HistorySeries, error) {
	p, err := s.store.GetPortfolio(portfolioID)
	if err != nil {
		return domain.HistorySeries{}, err
	}
	if p == nil {
		return domain.HistorySeries{}, domain.ErrNotFound
	}
	if days <= 0 {
		days = 30
	}

	// Per-symbol quote points, oldest first.
	history := make(map[string][]domain.QuotePoint)
	for i := range p.Assets {
		symbol := p.Assets[i].Symbol
		if _, ok := history[symbol]; ok {
			continue
		}
		points, err := s.store.GetQuoteHistory(symbol, days)
		if err != nil {
			return domain.HistorySeries{}, err
		}
		history[symbol] = points
	}

	series := domain.HistorySeries{PortfolioID: p.ID, Days: days}
	today := time.Now().Truncate(24 * time.Hour)
	for d := days - 1; d >= 0; d-- {
		day := today.AddDate(0, 0, -d)
		value := decimal.Zero
		for i := range p.Assets {
			a := &p.Assets[i]
			value = value.Add(a.Quantity.Mul(priceOn(history[a.Symbol], day, a.PurchasePrice)))
		}
		series.Points = append(series.Points, domain.HistoryPoint{Date: day, Value: value})
	}

	return series, nil
}

// priceOn returns the last quoted price on or before the end of day, or the
// fallback when no quote precedes it.
func priceOn(points []domain.QuotePoint, day time.Time, fallback decimal.Decimal) decimal.Decimal {
	endOfDay := day.AddDate(0, 0, 1)
	price := fallback
	for _, pt := range points {
		if pt.At.Before(endOfDay) {
			price = pt.Price
		} else {
			break
		}
	}
	return price
}

// AddAsset attaches a new asset to the portfolio and logs the action.
func (s *PortfolioService) AddAsset(portfolioID uint, asset *domain.Asset) error {
	p, err := s.store.GetPortfolio(portfolioID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}

	asset.PortfolioID = portfolioID
	if asset.CurrentPrice.IsZero() {
		asset.CurrentPrice = asset.PurchasePrice
	}
	if err := s.store.CreateAsset(asset); err != nil {
		return err
	}

	s.recordAction(domain.ActionKindSystem,
		fmt.Sprintf("added %s to portfolio %q", asset.Symbol, p.Name))
	return nil
}

// ExecuteTrade runs a trade and logs it. The caller re-fetches the affected
// portfolio afterwards; this method does not refresh any cached view.
func (s *PortfolioService) ExecuteTrade(portfolioID uint, trade *domain.Trade) error {
	p, err := s.store.GetPortfolio(portfolioID)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.ErrNotFound
	}

	trade.PortfolioID = portfolioID
	if err := s.store.ExecuteTrade(trade); err != nil {
		return err
	}

	asset, _ := s.store.GetAsset(trade.AssetID)
	symbol := "?"
	if asset != nil {
		symbol = asset.Symbol
	}
	s.recordAction(domain.ActionKindTrade,
		fmt.Sprintf("%s %s %s @ %s", trade.TradeType, trade.Quantity, symbol, trade.Price))
	return nil
}

func (s *PortfolioService) recordAction(kind, detail string) {
	if err := s.store.RecordAction(kind, detail); err != nil {
		s.logger.Warn("failed to record action", slog.Any("error", err))
	}
}
