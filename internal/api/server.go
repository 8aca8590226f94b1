// Package api exposes the dashboard over HTTP and JSON.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"
	"portfolio_go/internal/infra/storage"
	"portfolio_go/internal/service"
)

// NewsProvider is the slice of the news client the server needs.
type NewsProvider interface {
	GetNews(ctx context.Context, symbols, topics []string, days int) (domain.NewsDigest, error)
}

// Deps carries everything the server serves from.
type Deps struct {
	Config    *infra.Config
	Store     *storage.Storage
	Portfolio *service.PortfolioService
	Risk      *service.RiskService
	Optimizer *service.OptimizerService
	Market    *service.MarketService
	Chat      *service.ChatService
	News      NewsProvider
	Metrics   *infra.Metrics
}

// Server is the HTTP front of the dashboard backend.
type Server struct {
	deps   Deps
	logger *slog.Logger
	srv    *http.Server
}

// NewServer creates the HTTP server, routes wired.
func NewServer(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: slog.Default().With("module", "api"),
	}
	s.srv = &http.Server{
		Addr:         deps.Config.Server.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler builds the routed handler with middleware applied. Exposed so tests
// can drive it through httptest without binding a socket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/portfolio", s.handleListPortfolios)
	mux.HandleFunc("POST /api/portfolio", s.handleCreatePortfolio)
	mux.HandleFunc("GET /api/portfolio/{id}", s.handleGetPortfolio)
	mux.HandleFunc("GET /api/portfolio/{id}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/portfolio/{id}/history", s.handleHistory)
	mux.HandleFunc("GET /api/portfolio/{id}/risk", s.handleRisk)
	mux.HandleFunc("POST /api/portfolio/{id}/optimize", s.handleOptimize)
	mux.HandleFunc("POST /api/portfolio/{id}/assets", s.handleAddAsset)
	mux.HandleFunc("GET /api/portfolio/{id}/trades", s.handleListTrades)
	mux.HandleFunc("POST /api/portfolio/{id}/trades", s.handleExecuteTrade)

	mux.HandleFunc("GET /api/market/data", s.handleMarketData)
	mux.HandleFunc("GET /api/market/news", s.handleMarketNews)
	mux.HandleFunc("GET /api/market/analysis", s.handleMarketAnalysis)

	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /api/actions", s.handleListActions)
	mux.HandleFunc("DELETE /api/actions", s.handleClearActions)

	return s.withCORS(s.withLogging(mux))
}

// Start begins serving. Blocks until the listener fails or Shutdown runs.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", slog.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
