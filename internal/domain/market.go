package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a current price snapshot for a single tradable symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"current_price"`
	Open      decimal.Decimal `json:"open_price"`
	High      decimal.Decimal `json:"high_price"`
	Low       decimal.Decimal `json:"low_price"`
	Volume    int64           `json:"volume"`
	ChangePct decimal.Decimal `json:"change_pct"`
	Source    string          `json:"source,omitempty"` // provider that served the quote
	At        time.Time       `json:"timestamp"`
}

// IndexQuote is a market index (tracked via its proxy ETF symbol).
type IndexQuote struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Value     decimal.Decimal `json:"current_value"`
	PrevClose decimal.Decimal `json:"prev_close"`
	ChangePct decimal.Decimal `json:"change_pct"`
	At        time.Time       `json:"updated_at"`
}

// SectorPerformance is one sector's daily move.
type SectorPerformance struct {
	Sector    string          `json:"sector"`
	ChangePct decimal.Decimal `json:"change_pct"`
}

// EconomicIndicator is a macro data point shown on the dashboard.
type EconomicIndicator struct {
	Name     string          `json:"name"`
	Value    decimal.Decimal `json:"value"`
	Previous decimal.Decimal `json:"previous_value"`
	Category string          `json:"category"` // inflation, interest_rate, employment
}

// MarketSnapshot aggregates everything the market page renders.
type MarketSnapshot struct {
	Stocks     []Quote             `json:"stocks,omitempty"`
	Indices    []IndexQuote        `json:"indices"`
	Sectors    []SectorPerformance `json:"sectors,omitempty"`
	Indicators []EconomicIndicator `json:"economic_indicators,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// QuotePoint is a persisted quote observation, used to build history series.
type QuotePoint struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Symbol    string          `gorm:"index:idx_quote_symbol_at" json:"symbol"`
	Price     decimal.Decimal `gorm:"type:text" json:"price"`
	ChangePct decimal.Decimal `gorm:"type:text" json:"change_pct"`
	Volume    int64           `json:"volume"`
	At        time.Time       `gorm:"index:idx_quote_symbol_at" json:"at"`
}

// NewsArticle is one scored news item.
type NewsArticle struct {
	Title       string          `json:"title"`
	Summary     string          `json:"summary"`
	Source      string          `json:"source"`
	URL         string          `json:"url"`
	PublishedAt time.Time       `json:"published_at"`
	Sentiment   decimal.Decimal `json:"sentiment"`       // -1..1
	Label       string          `json:"sentiment_label"` // positive, negative, neutral
}

// NewsDigest is the news endpoint payload: articles plus the aggregate mood.
type NewsDigest struct {
	Articles         []NewsArticle   `json:"articles"`
	AverageSentiment decimal.Decimal `json:"average_sentiment"`
	Label            string          `json:"sentiment_label"`
	Timestamp        time.Time       `json:"timestamp"`
}
