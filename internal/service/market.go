package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/state"

	"github.com/shopspring/decimal"
)

// QuoteProvider is the slice of the quotes client the market service needs.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (domain.Quote, error)
	GetQuotes(ctx context.Context, symbols []string) ([]domain.Quote, error)
}

// indexNames maps the tracked proxy ETFs to their index names.
var indexNames = map[string]string{
	"SPY": "S&P 500",
	"QQQ": "NASDAQ 100",
	"DIA": "Dow Jones Industrial Average",
}

var defaultIndexSymbols = []string{"SPY", "QQQ", "DIA"}

// sectorETFs are the proxy ETFs used to derive sector performance.
var sectorETFs = map[string]string{
	"XLK": "Technology",
	"XLF": "Financials",
	"XLV": "Healthcare",
	"XLE": "Energy",
}

// MarketService assembles the market overview, cached behind a state slice.
type MarketService struct {
	provider QuoteProvider
	cache    *state.Slice[domain.MarketSnapshot]
	ttl      time.Duration
	logger   *slog.Logger
}

// NewMarketService creates a market service with the given cache TTL.
func NewMarketService(provider QuoteProvider, ttl time.Duration) *MarketService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MarketService{
		provider: provider,
		cache:    state.NewSlice[domain.MarketSnapshot]("market", state.WithSequenceGuard()),
		ttl:      ttl,
		logger:   slog.Default().With("module", "market"),
	}
}

// Snapshot returns the market overview, reusing the cached one while fresh.
// A provider failure falls back to the stale snapshot when one exists.
func (s *MarketService) Snapshot(ctx context.Context) (domain.MarketSnapshot, error) {
	if cached, ok := s.cache.Data(); ok && time.Since(cached.Timestamp) < s.ttl {
		return cached, nil
	}

	op := s.cache.Dispatch(ctx)
	snap, err := s.build(ctx)
	if err != nil {
		op.Reject(err)
		if stale, ok := s.cache.Data(); ok {
			s.logger.Warn("serving stale market snapshot", slog.Any("error", err))
			return stale, nil
		}
		return domain.MarketSnapshot{}, err
	}
	op.Fulfill(snap)
	return snap, nil
}

func (s *MarketService) build(ctx context.Context) (domain.MarketSnapshot, error) {
	quotes, err := s.provider.GetQuotes(ctx, defaultIndexSymbols)
	if err != nil {
		return domain.MarketSnapshot{}, err
	}
	if len(quotes) == 0 {
		return domain.MarketSnapshot{}, domain.ErrProviderUnavailable
	}

	snap := domain.MarketSnapshot{Timestamp: time.Now()}
	for _, q := range quotes {
		snap.Indices = append(snap.Indices, domain.IndexQuote{
			Symbol:    q.Symbol,
			Name:      indexNames[q.Symbol],
			Value:     q.Price,
			PrevClose: q.Open,
			ChangePct: q.ChangePct,
			At:        q.At,
		})
	}

	// Sector performance is best-effort; a failed ETF quote just drops the
	// sector from the snapshot.
	sectorSymbols := make([]string, 0, len(sectorETFs))
	for symbol := range sectorETFs {
		sectorSymbols = append(sectorSymbols, symbol)
	}
	if sectorQuotes, err := s.provider.GetQuotes(ctx, sectorSymbols); err == nil {
		for _, q := range sectorQuotes {
			snap.Sectors = append(snap.Sectors, domain.SectorPerformance{
				Sector:    sectorETFs[q.Symbol],
				ChangePct: q.ChangePct,
			})
		}
	}

	snap.Indicators = defaultIndicators()
	return snap, nil
}

// defaultIndicators returns the macro data points shown on the dashboard.
// These come from a static table until an indicators provider is wired.
func defaultIndicators() []domain.EconomicIndicator {
	return []domain.EconomicIndicator{
		{Name: "CPI YoY", Value: decimal.NewFromFloat(3.2), Previous: decimal.NewFromFloat(3.4), Category: "inflation"},
		{Name: "Fed Funds Rate", Value: decimal.NewFromFloat(5.25), Previous: decimal.NewFromFloat(5.25), Category: "interest_rate"},
		{Name: "Unemployment Rate", Value: decimal.NewFromFloat(3.9), Previous: decimal.NewFromFloat(3.8), Category: "employment"},
	}
}

// Quotes fetches current quotes for explicit symbols, bypassing the cache.
func (s *MarketService) Quotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	return s.provider.GetQuotes(ctx, symbols)
}

// Analyze derives the trend and outlook view from the current snapshot.
func (s *MarketService) Analyze(ctx context.Context) (domain.MarketAnalysis, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return domain.MarketAnalysis{}, err
	}

	avg := decimal.Zero
	var topMover domain.IndexQuote
	for _, idx := range snap.Indices {
		avg = avg.Add(idx.ChangePct)
		if idx.ChangePct.Abs().GreaterThan(topMover.ChangePct.Abs()) {
			topMover = idx
		}
	}
	if n := len(snap.Indices); n > 0 {
		avg = avg.Div(decimal.NewFromInt(int64(n)))
	}

	analysis := domain.MarketAnalysis{Timestamp: snap.Timestamp}
	switch {
	case avg.GreaterThan(decimal.NewFromFloat(0.25)):
		analysis.Trend = "up"
	case avg.LessThan(decimal.NewFromFloat(-0.25)):
		analysis.Trend = "down"
	default:
		analysis.Trend = "mixed"
	}

	switch {
	case avg.GreaterThan(decimal.NewFromFloat(0.5)):
		analysis.Outlook.ShortTerm = "bullish"
	case avg.LessThan(decimal.NewFromFloat(-0.5)):
		analysis.Outlook.ShortTerm = "bearish"
	default:
		analysis.Outlook.ShortTerm = "neutral"
	}
	analysis.Outlook.MediumTerm = mediumTermOutlook(snap.Sectors)

	if topMover.Symbol != "" {
		analysis.KeyDrivers = append(analysis.KeyDrivers,
			fmt.Sprintf("%s %s%%", topMover.Name, topMover.ChangePct.Round(2)))
	}
	if sector := strongestSector(snap.Sectors); sector != "" {
		analysis.KeyDrivers = append(analysis.KeyDrivers, sector)
	}

	analysis.Summary = fmt.Sprintf(
		"Major indices are %s on average (%s%%); short-term outlook %s, medium-term %s.",
		analysis.Trend, avg.Round(2), analysis.Outlook.ShortTerm, analysis.Outlook.MediumTerm)

	return analysis, nil
}

// mediumTermOutlook reads market breadth: the share of sectors in the green.
func mediumTermOutlook(sectors []domain.SectorPerformance) string {
	if len(sectors) == 0 {
		return "neutral"
	}
	positive := 0
	for _, s := range sectors {
		if s.ChangePct.IsPositive() {
			positive++
		}
	}
	ratio := float64(positive) / float64(len(sectors))
	switch {
	case ratio >= 0.75:
		return "bullish"
	case ratio <= 0.25:
		return "bearish"
	default:
		return "neutral"
	}
}

func strongestSector(sectors []domain.SectorPerformance) string {
	var best domain.SectorPerformance
	for _, s := range sectors {
		if s.ChangePct.Abs().GreaterThan(best.ChangePct.Abs()) {
			best = s
		}
	}
	if best.Sector == "" {
		return ""
	}
	direction := "leading"
	if best.ChangePct.IsNegative() {
		direction = "lagging"
	}
	return fmt.Sprintf("%s %s (%s%%)", best.Sector, direction, best.ChangePct.Round(2))
}

// FormatAnalysis renders the analysis as plain text for prompt enrichment.
func FormatAnalysis(a domain.MarketAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Market trend: %s. Short-term outlook: %s. Medium-term outlook: %s.",
		a.Trend, a.Outlook.ShortTerm, a.Outlook.MediumTerm)
	if len(a.KeyDrivers) > 0 {
		fmt.Fprintf(&b, " Key drivers: %s.", strings.Join(a.KeyDrivers, "; "))
	}
	return b.String()
}
