package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"portfolio_go/internal/domain"

	"github.com/shopspring/decimal"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"app":     s.deps.Config.App.Name,
		"version": s.deps.Config.App.Version,
		"metrics": s.deps.Metrics.Snapshot(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Metrics.Snapshot())
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	return uint(id), err
}

// respondError maps domain errors onto HTTP statuses.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "resource not found")
	case errors.Is(err, domain.ErrNoAssets),
		errors.Is(err, domain.ErrInsufficientShares),
		errors.Is(err, domain.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, "%s", err.Error())
	case errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, "%s", err.Error())
	default:
		var te *domain.TransportError
		if errors.As(err, &te) {
			writeError(w, http.StatusBadGateway, "%s", te.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "%s", err.Error())
	}
}

// ======================================================================================
// Portfolio Handlers
// ======================================================================================

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	portfolios, err := s.deps.Store.ListPortfolios(offset, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolios)
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var p domain.Portfolio
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "portfolio name is required")
		return
	}
	if err := s.deps.Store.CreatePortfolio(&p); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	p, err := s.deps.Store.GetPortfolio(id)
	if err != nil {
		respondError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "portfolio %d not found", id)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	summary, err := s.deps.Portfolio.Summary(id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days <= 0 {
		days = s.deps.Config.Dashboard.HistoryDays
	}
	series, err := s.deps.Portfolio.History(id, days)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	threshold := decimal.Zero
	if raw := r.URL.Query().Get("risk_threshold"); raw != "" {
		threshold, err = decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid risk threshold")
			return
		}
	}
	report, err := s.deps.Risk.AnalyzeWithThreshold(id, threshold)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type optimizeRequest struct {
	TargetRisk  decimal.Decimal                 `json:"target_risk"`
	Constraints *domain.OptimizationConstraints `json:"constraints,omitempty"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// target_risk may also arrive as a query parameter.
	if req.TargetRisk.IsZero() {
		if raw := r.URL.Query().Get("target_risk"); raw != "" {
			tr, err := decimal.NewFromString(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid target risk")
				return
			}
			req.TargetRisk = tr
		}
	}
	constraints := domain.OptimizationConstraints{}
	if req.Constraints != nil {
		constraints = *req.Constraints
	}
	plan, err := s.deps.Optimizer.Optimize(id, req.TargetRisk, constraints)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleAddAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	var asset domain.Asset
	if err := json.NewDecoder(r.Body).Decode(&asset); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if asset.Symbol == "" {
		writeError(w, http.StatusBadRequest, "asset symbol is required")
		return
	}
	if err := s.deps.Portfolio.AddAsset(id, &asset); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	trades, err := s.deps.Store.ListTrades(id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid portfolio id")
		return
	}
	var trade domain.Trade
	if err := json.NewDecoder(r.Body).Decode(&trade); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if trade.Quantity.IsZero() || trade.Quantity.IsNegative() {
		writeError(w, http.StatusBadRequest, "trade quantity must be positive")
		return
	}
	if err := s.deps.Portfolio.ExecuteTrade(id, &trade); err != nil {
		respondError(w, err)
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordTrade()
	}
	writeJSON(w, http.StatusCreated, trade)
}

// ======================================================================================
// Market Handlers
// ======================================================================================

func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Market.Snapshot(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	// Individual stock quotes ride along when requested; failures there do not
	// sink the snapshot.
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		if stocks, err := s.deps.Market.Quotes(r.Context(), strings.Split(raw, ",")); err == nil {
			snap.Stocks = stocks
		}
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	symbols, err := s.deps.Store.ListSymbols()
	if err != nil {
		respondError(w, err)
		return
	}
	digest, err := s.deps.News.GetNews(r.Context(), symbols, s.deps.Config.API.News.Topics, days)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, digest)
}

func (s *Server) handleMarketAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.deps.Market.Analyze(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// ======================================================================================
// Chat and Action Handlers
// ======================================================================================

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordChatCall()
	}
	reply, err := s.deps.Chat.Respond(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.deps.Store.ListActions(limit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleClearActions(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.ClearActions(); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
