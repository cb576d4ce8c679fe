// Package chat implements retrieval-augmented conversation: the latest user
// message is embedded, the tenant's feedback is searched, and the hits are
// injected into the system prompt of a streamed completion.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/feedloop-io/feedloop/internal/domain"
	"github.com/feedloop-io/feedloop/internal/metrics"
	"github.com/feedloop-io/feedloop/internal/usecase/search"
)

const systemTemplate = `You are a smart assistant who helps users analyze feedback for their company. Here is the user profile:
- Name: %s

Here is the feedback list the company has received:
%s

Rules:
- Format the results in markdown
- If you don't know the answer, just say you don't know. Don't try to make up an answer
- Answer concisely & in detail`

// Request is one chat turn. Messages holds the whole conversation so far;
// the last entry must be the user's new message.
type Request struct {
	TenantID string
	UserName string
	Messages []domain.ChatMessage
}

// Service answers questions about a tenant's feedback.
type Service struct {
	retriever    Retriever
	embed        Embedder
	streamer     Streamer
	contextLimit int
}

// New creates a chat service. contextLimit caps how many retrieved documents
// feed the system prompt.
func New(retriever Retriever, embed Embedder, streamer Streamer, contextLimit int) *Service {
	if contextLimit <= 0 {
		contextLimit = 40
	}
	return &Service{
		retriever:    retriever,
		embed:        embed,
		streamer:     streamer,
		contextLimit: contextLimit,
	}
}

// Stream opens a streamed answer for the conversation's latest message.
// The caller owns the returned stream and must Close it.
func (s *Service) Stream(ctx context.Context, req Request) (domain.ChatStream, error) {
	stream, err := s.stream(ctx, req)
	if err != nil {
		metrics.ChatStreamsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ChatStreamsTotal.WithLabelValues("ok").Inc()
	return stream, nil
}

func (s *Service) stream(ctx context.Context, req Request) (domain.ChatStream, error) {
	if strings.TrimSpace(req.TenantID) == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}
	last, err := lastUserMessage(req.Messages)
	if err != nil {
		return nil, err
	}

	embResult, err := s.embed.Embed(ctx, last)
	if err != nil {
		return nil, fmt.Errorf("vectorize message: %w", err)
	}

	hits, err := s.retriever.Hybrid(ctx, search.Request{
		TenantID: req.TenantID,
		Query:    last,
		Vector:   embResult.Embedding,
		Limit:    s.contextLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	system := fmt.Sprintf(systemTemplate, req.UserName, contextBlock(hits))

	stream, err := s.streamer.StreamChat(ctx, req.Messages, system)
	if err != nil {
		return nil, fmt.Errorf("open chat stream: %w", err)
	}
	return stream, nil
}

func lastUserMessage(messages []domain.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: at least one message is required", domain.ErrValidation)
	}
	last := messages[len(messages)-1]
	if last.Role != domain.RoleUser {
		return "", fmt.Errorf("%w: last message must come from the user", domain.ErrValidation)
	}
	if strings.TrimSpace(last.Content) == "" {
		return "", fmt.Errorf("%w: last message is empty", domain.ErrValidation)
	}
	return last.Content, nil
}

func contextBlock(hits []domain.SearchHit) string {
	if len(hits) == 0 {
		return "(no feedback recorded yet)"
	}
	var b strings.Builder
	for _, h := range hits {
		b.WriteString("- ")
		b.WriteString(h.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
