package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"portfolio_go/internal/infra"

	"github.com/shopspring/decimal"
)

func TestScoreSentiment_Positive(t *testing.T) {
	score := ScoreSentiment("Stocks rally as tech earnings beat expectations, strong growth ahead")
	if !score.IsPositive() {
		t.Errorf("expected positive score, got %v", score)
	}
	if SentimentLabel(score) != "positive" {
		t.Errorf("expected positive label, got %s", SentimentLabel(score))
	}
}

func TestScoreSentiment_Negative(t *testing.T) {
	score := ScoreSentiment("Markets plunge on recession fear, banks downgrade outlook")
	if !score.IsNegative() {
		t.Errorf("expected negative score, got %v", score)
	}
	if SentimentLabel(score) != "negative" {
		t.Errorf("expected negative label, got %s", SentimentLabel(score))
	}
}

func TestScoreSentiment_NeutralWhenNoKeywords(t *testing.T) {
	score := ScoreSentiment("Company announces quarterly shareholder meeting date")
	if !score.IsZero() {
		t.Errorf("expected zero score, got %v", score)
	}
	if SentimentLabel(score) != "neutral" {
		t.Errorf("expected neutral label, got %s", SentimentLabel(score))
	}
}

func TestScoreSentiment_MixedIsBounded(t *testing.T) {
	score := ScoreSentiment("gains and losses")
	if score.Abs().GreaterThan(decimal.NewFromInt(1)) {
		t.Errorf("score must stay within [-1,1], got %v", score)
	}
}

func TestClient_GetNews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("expected a query term")
		}
		fmt.Fprint(w, `{"status":"ok","articles":[
			{"title":"Tech stocks rally on strong earnings","description":"Broad gains across the sector","url":"https://example.com/1","publishedAt":"2026-08-29T10:00:00Z","source":{"name":"Example Wire"}},
			{"title":"Energy shares slump","description":"Crude selloff drags the sector","url":"https://example.com/2","publishedAt":"2026-08-29T11:00:00Z","source":{"name":"Example Wire"}}
		]}`)
	}))
	defer server.Close()

	cfg := &infra.Config{}
	cfg.API.News.BaseURL = server.URL
	cfg.API.News.Key = "test"
	client := NewClient(cfg)

	digest, err := client.GetNews(context.Background(), []string{"AAPL"}, []string{"market"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(digest.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(digest.Articles))
	}
	if digest.Articles[0].Label != "positive" {
		t.Errorf("expected first article positive, got %s", digest.Articles[0].Label)
	}
	if digest.Articles[1].Label != "negative" {
		t.Errorf("expected second article negative, got %s", digest.Articles[1].Label)
	}
}

func TestClient_GetNews_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := &infra.Config{}
	cfg.API.News.BaseURL = server.URL
	client := NewClient(cfg)

	if _, err := client.GetNews(context.Background(), nil, nil, 3); err == nil {
		t.Error("expected error on provider failure")
	}
}
