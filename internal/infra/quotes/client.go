// Package quotes fetches market prices from upstream providers. The REST
// client tries a Polygon-style endpoint first and falls back to an Alpha
// Vantage-style endpoint; the stream worker pushes live quotes over a
// websocket connection.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"github.com/shopspring/decimal"
)

// polygonPrevResponse is the Polygon-style previous-day aggregate response.
type polygonPrevResponse struct {
	Ticker  string `json:"ticker"`
	Status  string `json:"status"`
	Results []struct {
		Close  float64 `json:"c"`
		Open   float64 `json:"o"`
		High   float64 `json:"h"`
		Low    float64 `json:"l"`
		Volume float64 `json:"v"`
	} `json:"results"`
}

// globalQuoteResponse is the Alpha Vantage-style GLOBAL_QUOTE response.
type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// Client fetches quotes over REST with a provider fallback chain.
type Client struct {
	baseURL     string
	fallbackURL string
	key         string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a quote client from config.
func NewClient(cfg *infra.Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &Client{
		baseURL:     strings.TrimRight(cfg.API.Quotes.BaseURL, "/"),
		fallbackURL: strings.TrimRight(cfg.API.Quotes.FallbackURL, "/"),
		key:         cfg.API.Quotes.Key,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		logger: slog.Default().With("module", "quotes"),
	}
}

// GetQuote fetches the current quote for one symbol, trying the primary
// provider first and the fallback on any failure.
func (c *Client) GetQuote(ctx context.Context, symbol string) (domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || strings.ContainsAny(symbol, "/\\ ") {
		return domain.Quote{}, domain.ErrInvalidSymbol
	}

	quote, primaryErr := c.fetchPrimary(ctx, symbol)
	if primaryErr == nil {
		return quote, nil
	}
	c.logger.Warn("primary quote provider failed, trying fallback",
		slog.String("symbol", symbol), slog.Any("error", primaryErr))

	quote, fallbackErr := c.fetchFallback(ctx, symbol)
	if fallbackErr == nil {
		return quote, nil
	}

	return domain.Quote{}, domain.NewTransportError("fetch quote",
		fmt.Sprintf("all quote providers failed for %s", symbol), fallbackErr)
}

// GetQuotes fetches quotes for several symbols, skipping the ones that fail.
// It returns an error only when every symbol failed.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) ([]domain.Quote, error) {
	quotes := make([]domain.Quote, 0, len(symbols))
	var lastErr error
	for _, symbol := range symbols {
		q, err := c.GetQuote(ctx, symbol)
		if err != nil {
			lastErr = err
			continue
		}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return quotes, nil
}

func (c *Client) fetchPrimary(ctx context.Context, symbol string) (domain.Quote, error) {
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?apiKey=%s", c.baseURL, symbol, c.key)
	body, err := c.get(ctx, url)
	if err != nil {
		return domain.Quote{}, err
	}

	var resp polygonPrevResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("failed to parse primary response: %w", err)
	}
	if len(resp.Results) == 0 {
		return domain.Quote{}, fmt.Errorf("no results for %s", symbol)
	}

	r := resp.Results[0]
	closeP := decimal.NewFromFloat(r.Close)
	openP := decimal.NewFromFloat(r.Open)
	var changePct decimal.Decimal
	if !openP.IsZero() {
		changePct = closeP.Sub(openP).Div(openP).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return domain.Quote{
		Symbol:    symbol,
		Price:     closeP,
		Open:      openP,
		High:      decimal.NewFromFloat(r.High),
		Low:       decimal.NewFromFloat(r.Low),
		Volume:    int64(r.Volume),
		ChangePct: changePct,
		Source:    "primary",
		At:        time.Now(),
	}, nil
}

func (c *Client) fetchFallback(ctx context.Context, symbol string) (domain.Quote, error) {
	if c.fallbackURL == "" {
		return domain.Quote{}, domain.ErrProviderUnavailable
	}

	url := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", c.fallbackURL, symbol, c.key)
	body, err := c.get(ctx, url)
	if err != nil {
		return domain.Quote{}, err
	}

	var resp globalQuoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Quote{}, fmt.Errorf("failed to parse fallback response: %w", err)
	}
	gq := resp.GlobalQuote
	if gq.Price == "" {
		return domain.Quote{}, fmt.Errorf("empty fallback quote for %s", symbol)
	}

	price, err := decimal.NewFromString(gq.Price)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("bad price %q: %w", gq.Price, err)
	}
	openP, _ := decimal.NewFromString(gq.Open)
	highP, _ := decimal.NewFromString(gq.High)
	lowP, _ := decimal.NewFromString(gq.Low)
	changePct, _ := decimal.NewFromString(strings.TrimSuffix(gq.ChangePercent, "%"))
	volume, _ := strconv.ParseInt(gq.Volume, 10, 64)

	return domain.Quote{
		Symbol:    symbol,
		Price:     price,
		Open:      openP,
		High:      highP,
		Low:       lowP,
		Volume:    volume,
		ChangePct: changePct,
		Source:    "fallback",
		At:        time.Now(),
	}, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Poller periodically refreshes quotes for the tracked symbols and invokes
// the callback with each successful batch.
type Poller struct {
	client   *Client
	symbols  []string
	interval time.Duration
	onUpdate func([]domain.Quote)
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewPoller creates a quote poller.
func NewPoller(client *Client, symbols []string, intervalSec int, onUpdate func([]domain.Quote)) *Poller {
	interval := 60 * time.Second
	if intervalSec > 0 {
		interval = time.Duration(intervalSec) * time.Second
	}
	return &Poller{
		client:   client,
		symbols:  symbols,
		interval: interval,
		onUpdate: onUpdate,
	}
}

// Start begins polling. The first fetch happens immediately.
func (p *Poller) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	p.poll(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
	return nil
}

func (p *Poller) poll(ctx context.Context) {
	quotes, err := p.client.GetQuotes(ctx, p.symbols)
	if err != nil {
		slog.Warn("quote poll failed", slog.Any("error", err))
		return
	}
	if p.onUpdate != nil && len(quotes) > 0 {
		p.onUpdate(quotes)
	}
}

// Stop halts polling and waits for the worker to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}
