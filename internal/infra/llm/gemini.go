// Package llm wraps the Gemini API behind the small surface the chat service
// needs: replay a transcript, send the newest user message, return the reply
// text.
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"portfolio_go/internal/domain"
	"portfolio_go/internal/infra"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// Completer is the contract the chat service depends on. Tests substitute a
// fake; production uses *Client.
type Completer interface {
	Complete(ctx context.Context, system string, transcript []domain.Message) (string, error)
}

// Client is the Gemini-backed Completer.
type Client struct {
	model  string
	gen    *genai.Client
	logger *slog.Logger
}

// NewClient creates a Gemini client from config. The API key falls back to
// the GEMINI_API_KEY environment variable when unset.
func NewClient(ctx context.Context, cfg *infra.Config) (*Client, error) {
	var cc *genai.ClientConfig
	if cfg.API.Gemini.Key != "" {
		cc = &genai.ClientConfig{APIKey: cfg.API.Gemini.Key}
	}
	gen, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := cfg.API.Gemini.Model
	if model == "" {
		model = defaultModel
	}

	return &Client{
		model:  model,
		gen:    gen,
		logger: slog.Default().With("module", "llm"),
	}, nil
}

// Complete replays the transcript (all but the last message) as chat history,
// sends the last user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, system string, transcript []domain.Message) (string, error) {
	if len(transcript) == 0 {
		return "", fmt.Errorf("empty transcript")
	}

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	history := make([]*genai.Content, 0, len(transcript)-1)
	for _, msg := range transcript[:len(transcript)-1] {
		role := genai.RoleUser
		if msg.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	chat, err := c.gen.Chats.Create(ctx, c.model, config, history)
	if err != nil {
		return "", domain.NewTransportError("chat", "failed to start chat session", err)
	}

	last := transcript[len(transcript)-1]
	resp, err := chat.Send(ctx, &genai.Part{Text: last.Content})
	if err != nil {
		return "", domain.NewTransportError("chat", err.Error(), err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", domain.NewTransportError("chat", "model returned no response", nil)
	}

	c.logger.Debug("chat completion served", slog.Int("history", len(history)))
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
