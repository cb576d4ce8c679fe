package domain

import "context"

// Chat message roles as used by the completion provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation passed to the completion provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the single-shot completion contract: prompt in, text out.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// ChatStreamer opens an incremental token stream over a conversation.
type ChatStreamer interface {
	StreamChat(ctx context.Context, messages []ChatMessage, system string) (ChatStream, error)
}

// ChatStream yields response chunks until io.EOF. Close releases the
// underlying connection; it must be called even after an error.
type ChatStream interface {
	Recv() (string, error)
	Close() error
}
