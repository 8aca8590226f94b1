// Package news fetches market news and scores each article with a keyword
// sentiment model.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"github.com/shopspring/decimal"
)

// apiResponse is the NewsAPI-style everything response.
type apiResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Client fetches news articles from a NewsAPI-style provider.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a news client from config.
func NewClient(cfg *infra.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.API.News.BaseURL, "/"),
		key:     cfg.API.News.Key,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: slog.Default().With("module", "news"),
	}
}

// GetNews fetches articles matching the symbols and topics over the last
// days, scores each one and returns the digest.
func (c *Client) GetNews(ctx context.Context, symbols, topics []string, days int) (domain.NewsDigest, error) {
	if days <= 0 {
		days = 3
	}

	terms := append(append([]string{}, symbols...), topics...)
	if len(terms) == 0 {
		terms = []string{"stock market"}
	}

	query := url.Values{}
	query.Set("q", strings.Join(terms, " OR "))
	query.Set("from", time.Now().AddDate(0, 0, -days).Format("2006-01-02"))
	query.Set("sortBy", "publishedAt")
	query.Set("apiKey", c.key)

	reqURL := fmt.Sprintf("%s/v2/everything?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.NewsDigest{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewsDigest{}, domain.NewTransportError("fetch news", "news provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewsDigest{}, domain.NewTransportError("fetch news",
			fmt.Sprintf("news provider returned %s", resp.Status), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewsDigest{}, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return domain.NewsDigest{}, fmt.Errorf("failed to parse news response: %w", err)
	}

	articles := make([]domain.NewsArticle, 0, len(parsed.Articles))
	for _, a := range parsed.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		score := ScoreSentiment(a.Title + " " + a.Description)
		articles = append(articles, domain.NewsArticle{
			Title:       a.Title,
			Summary:     a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: published,
			Sentiment:   score,
			Label:       SentimentLabel(score),
		})
	}

	avg := averageSentiment(articles)
	return domain.NewsDigest{
		Articles:         articles,
		AverageSentiment: avg,
		Label:            SentimentLabel(avg),
		Timestamp:        time.Now(),
	}, nil
}

func averageSentiment(articles []domain.NewsArticle) decimal.Decimal {
	if len(articles) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, a := range articles {
		sum = sum.Add(a.Sentiment)
	}
	return sum.Div(decimal.NewFromInt(int64(len(articles)))).Round(4)
}
