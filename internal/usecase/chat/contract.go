package chat

import (
	"context"

	"github.com/feedloop-io/feedloop/internal/domain"
	"github.com/feedloop-io/feedloop/internal/usecase/search"
)

// Retriever finds the feedback documents relevant to a chat message.
type Retriever interface {
	Hybrid(ctx context.Context, req search.Request) ([]domain.SearchHit, error)
}

// Embedder vectorizes the latest user message for retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Streamer produces streamed chat completions.
type Streamer interface {
	StreamChat(ctx context.Context, messages []domain.ChatMessage, system string) (domain.ChatStream, error)
}
