package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/state"

	"github.com/shopspring/decimal"
)

// Client drives the backend API and settles the results into its state store.
// Every Fetch method dispatches an operation and resolves it in a background
// goroutine; callers observe progress through the store's slices or by
// awaiting the returned operation.
type Client struct {
	transport Transport
	store     *state.Store
}

// NewClient creates a client with a fresh store. Options apply to every slice
// (pass state.WithSequenceGuard for the corrected ordering behavior).
func NewClient(transport Transport, opts ...state.Option) *Client {
	return &Client{
		transport: transport,
		store:     state.NewStore(opts...),
	}
}

// Store exposes the state the views render from.
func (c *Client) Store() *state.Store {
	return c.store
}

func portfolioPath(id uint, suffix string) string {
	return "/api/portfolio/" + strconv.FormatUint(uint64(id), 10) + suffix
}

// FetchPortfolios refreshes the portfolio list.
func (c *Client) FetchPortfolios(ctx context.Context) *state.Operation[[]domain.Portfolio] {
	op := c.store.Portfolios.DispatchFetch(ctx)
	go func() {
		var portfolios []domain.Portfolio
		err := c.transport.Do(op.Context(), http.MethodGet, "/api/portfolio", nil, nil, &portfolios)
		if err != nil {
			op.Reject(err)
			return
		}
		op.Fulfill(portfolios)
	}()
	return op
}

// CreatePortfolio creates a portfolio and appends it to the list slice.
func (c *Client) CreatePortfolio(ctx context.Context, name, description string) *state.Operation[domain.Portfolio] {
	op := c.store.Portfolios.DispatchAppend(ctx)
	go func() {
		var created domain.Portfolio
		body := domain.Portfolio{Name: name, Description: description}
		err := c.transport.Do(op.Context(), http.MethodPost, "/api/portfolio", nil, body, &created)
		if err != nil {
			op.Reject(err)
			return
		}
		op.Fulfill(created)
	}()
	return op
}

// FetchSummary refreshes the summary slice for one portfolio.
func (c *Client) FetchSummary(ctx context.Context, portfolioID uint) *state.Operation[domain.PortfolioSummary] {
	return c.store.Summary.Run(ctx, func(ctx context.Context) (domain.PortfolioSummary, error) {
		var summary domain.PortfolioSummary
		err := c.transport.Do(ctx, http.MethodGet, portfolioPath(portfolioID, "/summary"), nil, nil, &summary)
		return summary, err
	})
}

// FetchHistory refreshes the value history slice.
func (c *Client) FetchHistory(ctx context.Context, portfolioID uint, days int) *state.Operation[domain.HistorySeries] {
	return c.store.History.Run(ctx, func(ctx context.Context) (domain.HistorySeries, error) {
		query := url.Values{}
		if days > 0 {
			query.Set("days", strconv.Itoa(days))
		}
		var series domain.HistorySeries
		err := c.transport.Do(ctx, http.MethodGet, portfolioPath(portfolioID, "/history"), query, nil, &series)
		return series, err
	})
}

// FetchRisk refreshes the risk report slice.
func (c *Client) FetchRisk(ctx context.Context, portfolioID uint) *state.Operation[domain.RiskReport] {
	return c.store.Risk.Run(ctx, func(ctx context.Context) (domain.RiskReport, error) {
		var report domain.RiskReport
		err := c.transport.Do(ctx, http.MethodGet, portfolioPath(portfolioID, "/risk"), nil, nil, &report)
		return report, err
	})
}

// FetchOptimization refreshes the optimization plan slice.
func (c *Client) FetchOptimization(ctx context.Context, portfolioID uint, targetRisk decimal.Decimal, constraints *domain.OptimizationConstraints) *state.Operation[domain.OptimizationPlan] {
	return c.store.Optimize.Run(ctx, func(ctx context.Context) (domain.OptimizationPlan, error) {
		body := map[string]any{"target_risk": targetRisk}
		if constraints != nil {
			body["constraints"] = constraints
		}
		var plan domain.OptimizationPlan
		err := c.transport.Do(ctx, http.MethodPost, portfolioPath(portfolioID, "/optimize"), nil, body, &plan)
		return plan, err
	})
}

// FetchMarket refreshes the market snapshot slice.
func (c *Client) FetchMarket(ctx context.Context) *state.Operation[domain.MarketSnapshot] {
	return c.store.Market.Run(ctx, func(ctx context.Context) (domain.MarketSnapshot, error) {
		var snap domain.MarketSnapshot
		err := c.transport.Do(ctx, http.MethodGet, "/api/market/data", nil, nil, &snap)
		return snap, err
	})
}

// FetchNews refreshes the news digest slice.
func (c *Client) FetchNews(ctx context.Context, days int) *state.Operation[domain.NewsDigest] {
	return c.store.News.Run(ctx, func(ctx context.Context) (domain.NewsDigest, error) {
		query := url.Values{}
		if days > 0 {
			query.Set("days", strconv.Itoa(days))
		}
		var digest domain.NewsDigest
		err := c.transport.Do(ctx, http.MethodGet, "/api/market/news", query, nil, &digest)
		return digest, err
	})
}

// FetchActions refreshes the action log slice.
func (c *Client) FetchActions(ctx context.Context, limit int) *state.Operation[[]domain.ActionEntry] {
	op := c.store.Actions.DispatchFetch(ctx)
	go func() {
		query := url.Values{}
		if limit > 0 {
			query.Set("limit", strconv.Itoa(limit))
		}
		var entries []domain.ActionEntry
		err := c.transport.Do(op.Context(), http.MethodGet, "/api/actions", query, nil, &entries)
		if err != nil {
			op.Reject(err)
			return
		}
		op.Fulfill(entries)
	}()
	return op
}

// ClearActions clears the log on the backend, then resets the local slice.
func (c *Client) ClearActions(ctx context.Context) error {
	if err := c.transport.Do(ctx, http.MethodDelete, "/api/actions", nil, nil, nil); err != nil {
		return err
	}
	c.store.Actions.Clear()
	return nil
}

// ExecuteTrade submits a trade. It does not touch any cached slice: callers
// re-fetch the portfolio views they care about after it returns.
func (c *Client) ExecuteTrade(ctx context.Context, portfolioID uint, trade domain.Trade) (domain.Trade, error) {
	var executed domain.Trade
	err := c.transport.Do(ctx, http.MethodPost, portfolioPath(portfolioID, "/trades"), nil, trade, &executed)
	return executed, err
}

// AddAsset adds a holding. Like trades, cached views are refreshed by the
// caller afterwards.
func (c *Client) AddAsset(ctx context.Context, portfolioID uint, asset domain.Asset) (domain.Asset, error) {
	var created domain.Asset
	err := c.transport.Do(ctx, http.MethodPost, portfolioPath(portfolioID, "/assets"), nil, asset, &created)
	return created, err
}

// SendChat appends the user message to the transcript optimistically, sends
// the whole transcript and settles the reply into the chat slice. A failed
// send surfaces as a synthetic assistant message.
func (c *Client) SendChat(ctx context.Context, content string, portfolioID *uint) *state.Operation[string] {
	op, transcript := c.store.Chat.Send(ctx, content)
	go func() {
		var reply domain.ChatReply
		req := domain.ChatRequest{Messages: transcript, PortfolioID: portfolioID}
		err := c.transport.Do(op.Context(), http.MethodPost, "/api/chat", nil, req, &reply)
		if err != nil {
			op.Reject(err)
			return
		}
		op.Fulfill(reply.Response)
	}()
	return op
}

// ResetChat clears the local transcript. Conversations are client-state only;
// there is nothing to clear on the backend.
func (c *Client) ResetChat() {
	c.store.Chat.Reset()
}
