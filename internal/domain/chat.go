package domain

import "time"

// Chat message roles. The transcript alternates user/assistant in the happy
// path but may contain consecutive assistant entries after a failed send.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the POST /api/chat body: the whole transcript so far,
// last entry being the new user message.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	PortfolioID *uint     `json:"portfolio_id,omitempty"`
}

// ChatReply is the chat endpoint response.
type ChatReply struct {
	Response     string    `json:"response"`
	ActionsTaken []string  `json:"actions_taken,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
