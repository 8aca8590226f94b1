package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra/llm"
	"portfolio_go/internal/infra/storage"
)

const systemPrompt = `You are a personal investment assistant for a portfolio dashboard.
Answer questions about the user's holdings, markets and investing concepts.
Be concise and factual. You do not give personalized financial advice;
frame recommendations as educational information.`

// marketKeywords trigger prompt enrichment with the current market analysis.
var marketKeywords = []string{"market", "economy", "news", "sentiment", "outlook"}

// ChatService answers chat requests through the language model, enriching
// prompts with portfolio and market context when relevant.
type ChatService struct {
	completer llm.Completer
	market    *MarketService
	portfolio *PortfolioService
	store     *storage.Storage
	logger    *slog.Logger
}

// NewChatService creates a chat service. market and portfolio may be nil, in
// which case the corresponding enrichment is skipped.
func NewChatService(completer llm.Completer, market *MarketService, portfolio *PortfolioService, store *storage.Storage) *ChatService {
	return &ChatService{
		completer: completer,
		market:    market,
		portfolio: portfolio,
		store:     store,
		logger:    slog.Default().With("module", "chat"),
	}
}

// Respond answers the transcript's latest user message.
func (s *ChatService) Respond(ctx context.Context, req domain.ChatRequest) (domain.ChatReply, error) {
	if s.completer == nil {
		return domain.ChatReply{}, fmt.Errorf("chat is not configured: missing language model credentials")
	}
	if len(req.Messages) == 0 {
		return domain.ChatReply{}, fmt.Errorf("empty transcript")
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != domain.RoleUser {
		return domain.ChatReply{}, fmt.Errorf("last message must be from the user")
	}

	system := systemPrompt
	var actions []string

	if s.market != nil && mentionsMarket(last.Content) {
		if analysis, err := s.market.Analyze(ctx); err == nil {
			system += "\n\nCurrent market context: " + FormatAnalysis(analysis)
			actions = append(actions, "Analyzed market conditions")
		} else {
			s.logger.Warn("market enrichment skipped", slog.Any("error", err))
		}
	}

	if s.portfolio != nil && req.PortfolioID != nil {
		if summary, err := s.portfolio.Summary(*req.PortfolioID); err == nil {
			system += "\n\nUser portfolio context: " + formatSummary(summary)
			actions = append(actions, "Reviewed portfolio holdings")
		} else {
			s.logger.Warn("portfolio enrichment skipped", slog.Any("error", err))
		}
	}

	response, err := s.completer.Complete(ctx, system, req.Messages)
	if err != nil {
		return domain.ChatReply{}, err
	}

	s.recordAction(last.Content)

	return domain.ChatReply{
		Response:     response,
		ActionsTaken: actions,
		Timestamp:    time.Now(),
	}, nil
}

func mentionsMarket(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range marketKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// formatSummary renders a compact holdings overview for prompt enrichment.
func formatSummary(s domain.PortfolioSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Portfolio %q worth %s (gain/loss %s).",
		s.Name, s.TotalValue.Round(2), s.TotalGainLoss.Round(2))
	for _, h := range s.Holdings {
		fmt.Fprintf(&b, " %s: %s shares at %s.", h.Symbol, h.Quantity, h.CurrentPrice)
	}
	return b.String()
}

func (s *ChatService) recordAction(question string) {
	if s.store == nil {
		return
	}
	if len(question) > 120 {
		question = question[:117] + "..."
	}
	if err := s.store.RecordAction(domain.ActionKindChat, "asked: "+question); err != nil {
		s.logger.Warn("failed to record action", slog.Any("error", err))
	}
}
