// Package ai abstracts the chat-completion backends that generate the
// agent's spoken lines. Providers are registered by name and selected at
// boot; the dialogue layer only ever sees the Provider interface.
package ai

import "context"

// Message is one chat turn sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider produces the next assistant utterance from a bounded context.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
