package state

import "portfolio_go/internal/domain"

// Store bundles every slice the dashboard consumes. It is constructed
// explicitly and passed by reference to each consumer; there is no ambient
// singleton.
type Store struct {
	Portfolios *Collection[domain.Portfolio]
	Summary    *Slice[domain.PortfolioSummary]
	History    *Slice[domain.HistorySeries]
	Risk       *Slice[domain.RiskReport]
	Optimize   *Slice[domain.OptimizationPlan]
	Market     *Slice[domain.MarketSnapshot]
	News       *Slice[domain.NewsDigest]
	Actions    *Collection[domain.ActionEntry]
	Chat       *ChatSlice
}

// NewStore constructs a store. Options (e.g. WithSequenceGuard) apply to
// every slice except chat, whose transcript is strictly append-only.
func NewStore(opts ...Option) *Store {
	return &Store{
		Portfolios: NewCollection[domain.Portfolio]("portfolios", opts...),
		Summary:    NewSlice[domain.PortfolioSummary]("summary", opts...),
		History:    NewSlice[domain.HistorySeries]("history", opts...),
		Risk:       NewSlice[domain.RiskReport]("risk", opts...),
		Optimize:   NewSlice[domain.OptimizationPlan]("optimize", opts...),
		Market:     NewSlice[domain.MarketSnapshot]("market", opts...),
		News:       NewSlice[domain.NewsDigest]("news", opts...),
		Actions:    NewCollection[domain.ActionEntry]("actions", opts...),
		Chat:       NewChatSlice(),
	}
}
