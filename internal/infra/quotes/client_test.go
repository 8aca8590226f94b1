package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"github.com/shopspring/decimal"
)

func newTestClient(primary, fallback string) *Client {
	cfg := &infra.Config{}
	cfg.API.Quotes.BaseURL = primary
	cfg.API.Quotes.FallbackURL = fallback
	cfg.API.Quotes.Key = "test-key"
	return NewClient(cfg)
}

func TestClient_PrimaryProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v2/aggs/ticker/AAPL/prev") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"ticker":"AAPL","status":"OK","results":[{"c":150.0,"o":148.0,"h":151.0,"l":147.5,"v":1000000}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")

	quote, err := client.GetQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Price.Equal(decimal.NewFromInt(150)) {
		t.Errorf("expected price 150, got %v", quote.Price)
	}
	if quote.Source != "primary" {
		t.Errorf("expected primary source, got %s", quote.Source)
	}
	// (150-148)/148*100 = 1.35
	if !quote.ChangePct.Equal(decimal.NewFromFloat(1.35)) {
		t.Errorf("expected change 1.35, got %v", quote.ChangePct)
	}
}

func TestClient_FallbackProvider(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer primary.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Global Quote":{"01. symbol":"MSFT","02. open":"410.00","03. high":"416.00","04. low":"409.00","05. price":"415.50","06. volume":"2000000","10. change percent":"1.34%"}}`)
	}))
	defer fallback.Close()

	client := newTestClient(primary.URL, fallback.URL)

	quote, err := client.GetQuote(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Source != "fallback" {
		t.Errorf("expected fallback source, got %s", quote.Source)
	}
	if !quote.Price.Equal(decimal.NewFromFloat(415.50)) {
		t.Errorf("expected price 415.50, got %v", quote.Price)
	}
	if quote.Volume != 2000000 {
		t.Errorf("expected volume 2000000, got %d", quote.Volume)
	}
}

func TestClient_AllProvidersFail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, server.URL)

	_, err := client.GetQuote(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected error when all providers fail")
	}
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T", err)
	}
	if !strings.Contains(te.Message, "AAPL") {
		t.Errorf("message should name the symbol, got %q", te.Message)
	}
}

func TestClient_RejectsInvalidSymbol(t *testing.T) {
	client := newTestClient("http://localhost:0", "")

	if _, err := client.GetQuote(context.Background(), "A B/C"); err != domain.ErrInvalidSymbol {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}
}

func TestClient_GetQuotesSkipsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "BAD") {
			http.Error(w, "unknown", http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"results":[{"c":10.0,"o":10.0,"h":10.0,"l":10.0,"v":1}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")

	quotes, err := client.GetQuotes(context.Background(), []string{"AAPL", "BAD", "MSFT"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 2 {
		t.Errorf("expected 2 quotes, got %d", len(quotes))
	}
}

func TestPoller_InvokesCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"c":10.0,"o":10.0,"h":10.0,"l":10.0,"v":1}]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL, "")

	var mu sync.Mutex
	var got []domain.Quote
	poller := NewPoller(client, []string{"AAPL"}, 3600, func(quotes []domain.Quote) {
		mu.Lock()
		defer mu.Unlock()
		got = quotes
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := poller.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poller.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Symbol != "AAPL" {
		t.Errorf("expected immediate first poll, got %v", got)
	}
}
