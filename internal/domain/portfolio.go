package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset classes tracked by the dashboard.
const (
	AssetTypeEquity      = "equity"
	AssetTypeBond        = "bond"
	AssetTypeAlternative = "alternative"
	AssetTypeCash        = "cash"
)

// Trade sides and statuses.
const (
	TradeTypeBuy  = "buy"
	TradeTypeSell = "sell"

	TradeStatusExecuted = "executed"
	TradeStatusPending  = "pending"
	TradeStatusFailed   = "failed"
)

// Portfolio is a named collection of assets owned by the user.
type Portfolio struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"index" json:"name"`
	Description string    `json:"description,omitempty"`
	Assets      []Asset   `gorm:"foreignKey:PortfolioID" json:"assets,omitempty"`
	Trades      []Trade   `gorm:"foreignKey:PortfolioID" json:"trades,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Asset is a single holding inside a portfolio.
type Asset struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PortfolioID   uint            `gorm:"index" json:"portfolio_id"`
	Symbol        string          `gorm:"index" json:"symbol"`
	Name          string          `json:"name"`
	AssetType     string          `gorm:"index" json:"asset_type"` // equity, bond, alternative, cash
	Quantity      decimal.Decimal `gorm:"type:text" json:"quantity"`
	PurchasePrice decimal.Decimal `gorm:"type:text" json:"purchase_price"`
	CurrentPrice  decimal.Decimal `gorm:"type:text" json:"current_price"`
	LogoPath      string          `json:"logo_path,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MarketValue returns quantity * current price.
func (a *Asset) MarketValue() decimal.Decimal {
	return a.Quantity.Mul(a.CurrentPrice)
}

// CostBasis returns quantity * purchase price.
func (a *Asset) CostBasis() decimal.Decimal {
	return a.Quantity.Mul(a.PurchasePrice)
}

// GainLoss returns the unrealized gain (or loss, negative) on the holding.
func (a *Asset) GainLoss() decimal.Decimal {
	return a.MarketValue().Sub(a.CostBasis())
}

// GainLossPct returns the unrealized gain as a percentage of cost basis.
// Returns zero when the cost basis is zero.
func (a *Asset) GainLossPct() decimal.Decimal {
	basis := a.CostBasis()
	if basis.IsZero() {
		return decimal.Zero
	}
	return a.GainLoss().Div(basis).Mul(decimal.NewFromInt(100))
}

// Trade is a buy or sell executed against one asset.
type Trade struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	PortfolioID   uint            `gorm:"index" json:"portfolio_id"`
	AssetID       uint            `gorm:"index" json:"asset_id"`
	TradeType     string          `json:"trade_type"` // buy, sell
	Quantity      decimal.Decimal `gorm:"type:text" json:"quantity"`
	Price         decimal.Decimal `gorm:"type:text" json:"price"`
	Commission    decimal.Decimal `gorm:"type:text" json:"commission"`
	ExecutionTime time.Time       `json:"execution_time"`
	Status        string          `json:"status"` // executed, pending, failed
}

// Total returns the gross value of the trade including commission.
func (t *Trade) Total() decimal.Decimal {
	return t.Quantity.Mul(t.Price).Add(t.Commission)
}

// ActionEntry is one row of the dashboard's action log.
type ActionEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      string    `gorm:"index" json:"kind"` // trade, chat, analysis, system
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Action kinds recorded by the services.
const (
	ActionKindTrade    = "trade"
	ActionKindChat     = "chat"
	ActionKindAnalysis = "analysis"
	ActionKindSystem   = "system"
)

// PortfolioSummary is the computed view of one portfolio used by the
// dashboard page and by the risk/optimization services.
type PortfolioSummary struct {
	PortfolioID   uint                       `json:"portfolio_id"`
	Name          string                     `json:"name"`
	TotalValue    decimal.Decimal            `json:"total_value"`
	TotalCost     decimal.Decimal            `json:"total_cost"`
	TotalGainLoss decimal.Decimal            `json:"total_gain_loss"`
	Holdings      []HoldingSummary           `json:"holdings"`
	ByAssetType   map[string]decimal.Decimal `json:"by_asset_type"` // value share per type, 0..1
	AsOf          time.Time                  `json:"as_of"`
}

// HoldingSummary is one asset's row within a PortfolioSummary.
type HoldingSummary struct {
	AssetID      uint            `json:"asset_id"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	AssetType    string          `json:"asset_type"`
	Quantity     decimal.Decimal `json:"quantity"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Value        decimal.Decimal `json:"value"`
	Weight       decimal.Decimal `json:"weight"` // share of portfolio value, 0..1
	GainLoss     decimal.Decimal `json:"gain_loss"`
	GainLossPct  decimal.Decimal `json:"gain_loss_pct"`
}

// HistoryPoint is one day of portfolio value history.
type HistoryPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// HistorySeries is the portfolio value over a day range.
type HistorySeries struct {
	PortfolioID uint           `json:"portfolio_id"`
	Days        int            `json:"days"`
	Points      []HistoryPoint `json:"points"`
}
