// Package feedloop is the embedded SDK for the feedloop retrieval core. It
// wires the same services the API server runs, minus the HTTP layer: collect
// feedback, search it, chat over it, summarize it.
package feedloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feedloop-io/feedloop/internal/db"
	dbRedis "github.com/feedloop-io/feedloop/internal/db/redis"
	"github.com/feedloop-io/feedloop/internal/domain"
	feedbackrepo "github.com/feedloop-io/feedloop/internal/repository/feedback"
	indexrepo "github.com/feedloop-io/feedloop/internal/repository/index"
	keywordrepo "github.com/feedloop-io/feedloop/internal/repository/keyword"
	searchrepo "github.com/feedloop-io/feedloop/internal/repository/search"
	openaiTransport "github.com/feedloop-io/feedloop/internal/transport/openai"
	chatuc "github.com/feedloop-io/feedloop/internal/usecase/chat"
	ingestuc "github.com/feedloop-io/feedloop/internal/usecase/ingest"
	searchuc "github.com/feedloop-io/feedloop/internal/usecase/search"
	summaryuc "github.com/feedloop-io/feedloop/internal/usecase/summary"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultDimensions       = 768
	defaultKeyPrefix        = "feedloop:"
	defaultIndexName        = "feedback"
	defaultEmbedModel       = "text-embedding-3-small"
	defaultChatModel        = "gpt-4o-mini"
	defaultSearchLimit      = 10
	maxSearchLimit          = 100
	defaultContextLimit     = 40
)

// Re-exported domain types, so SDK callers never import internal packages.
type (
	// Feedback is one stored feedback record.
	Feedback = domain.Feedback
	// SearchHit is one hybrid search result.
	SearchHit = domain.SearchHit
	// KeywordCount is one keyword frequency entry.
	KeywordCount = domain.KeywordCount
	// ChatMessage is one conversation turn.
	ChatMessage = domain.ChatMessage
	// ChatStream delivers a streamed answer chunk by chunk.
	ChatStream = domain.ChatStream
	// Sentiment is a classification label.
	Sentiment = domain.Sentiment
)

// Chat message roles.
const (
	RoleSystem    = domain.RoleSystem
	RoleUser      = domain.RoleUser
	RoleAssistant = domain.RoleAssistant
)

// Client is the feedloop SDK entry point.
type Client struct {
	store      db.Store
	ingestSvc  *ingestuc.Service
	searchSvc  *searchuc.Service
	chatSvc    *chatuc.Service
	summarySvc *summaryuc.Service

	feedbacks *feedbackrepo.Repo
	keywords  *keywordrepo.Repo
	index     *indexrepo.Repo
}

// New creates a feedloop Client and connects to the store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dimensions: defaultDimensions,
		keyPrefix:  defaultKeyPrefix,
		indexName:  defaultIndexName,
		embedModel: defaultEmbedModel,
		chatModel:  defaultChatModel,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("feedloop: store address required (use WithRedis)")
	}
	if cfg.apiKey == "" {
		return nil, errors.New("feedloop: model provider credentials required (use WithOpenAI)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("feedloop: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("feedloop: store not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.apiKey,
		BaseURL:    cfg.baseURL,
		Model:      cfg.embedModel,
		Dimensions: cfg.dimensions,
		Logger:     cfg.logger,
	})
	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:  cfg.apiKey,
		BaseURL: cfg.baseURL,
		Model:   cfg.chatModel,
		Logger:  cfg.logger,
	})

	indexRepo := indexrepo.New(store, cfg.keyPrefix, cfg.indexName, cfg.dimensions)
	if cfg.hnswM > 0 || cfg.hnswEF > 0 {
		indexRepo = indexRepo.WithHNSW(indexrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEF,
		})
	}
	searchRepo := searchrepo.New(store, cfg.keyPrefix, cfg.indexName)
	feedbackRepo := feedbackrepo.New(store, cfg.keyPrefix)
	keywordRepo := keywordrepo.New(store, cfg.keyPrefix)

	searchSvc := searchuc.New(
		searchRepo, indexRepo, embedder,
		cfg.dimensions, defaultSearchLimit, maxSearchLimit,
	)
	ingestSvc := ingestuc.New(feedbackRepo, keywordRepo, indexRepo, completer, embedder, ingestuc.Config{})
	chatSvc := chatuc.New(searchSvc, embedder, completer, defaultContextLimit)
	summarySvc := summaryuc.New(feedbackRepo, completer, 0, defaultContextLimit)

	return &Client{
		store:      store,
		ingestSvc:  ingestSvc,
		searchSvc:  searchSvc,
		chatSvc:    chatSvc,
		summarySvc: summarySvc,
		feedbacks:  feedbackRepo,
		keywords:   keywordRepo,
		index:      indexRepo,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Collect runs the full ingestion pipeline for one piece of feedback and
// returns the stored record, sentiment and advisory included.
func (c *Client) Collect(ctx context.Context, tenantID, text string, rate int) (Feedback, error) {
	return c.ingestSvc.Collect(ctx, ingestuc.Request{
		TenantID:    tenantID,
		Rate:        rate,
		Description: text,
	})
}

// Search runs a hybrid search over the tenant's documents. limit <= 0 uses
// the default.
func (c *Client) Search(ctx context.Context, tenantID, query string, limit int) ([]SearchHit, error) {
	return c.searchSvc.Hybrid(ctx, searchuc.Request{
		TenantID: tenantID,
		Query:    query,
		Limit:    limit,
	})
}

// Chat opens a retrieval-augmented answer stream for the conversation. The
// caller must Close the returned stream.
func (c *Client) Chat(ctx context.Context, tenantID, userName string, messages []ChatMessage) (ChatStream, error) {
	return c.chatSvc.Stream(ctx, chatuc.Request{
		TenantID: tenantID,
		UserName: userName,
		Messages: messages,
	})
}

// Summary condenses the tenant's recent feedback, optionally filtered by
// sentiment ("" or "all" means no filter).
func (c *Client) Summary(ctx context.Context, tenantID string, sentiment Sentiment) (string, error) {
	return c.summarySvc.Summarize(ctx, tenantID, sentiment)
}

// Feedbacks lists the tenant's feedback records, newest first. limit <= 0
// returns all.
func (c *Client) Feedbacks(ctx context.Context, tenantID string, sentiment Sentiment, limit int) ([]Feedback, error) {
	return c.feedbacks.ListRecent(ctx, tenantID, sentiment, limit)
}

// TopKeywords returns the tenant's most frequent feedback keywords.
func (c *Client) TopKeywords(ctx context.Context, tenantID string, limit int) ([]KeywordCount, error) {
	return c.keywords.Top(ctx, tenantID, limit)
}

// DeleteFeedback removes one record and its search document.
func (c *Client) DeleteFeedback(ctx context.Context, tenantID, id string) error {
	if err := c.feedbacks.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	return c.index.DeleteByID(ctx, domain.FeedbackDocID(id))
}

// DeleteTenant wipes the tenant's search documents and keyword counters.
// Returns the number of documents removed.
func (c *Client) DeleteTenant(ctx context.Context, tenantID string) (int, error) {
	deleted, err := c.index.DeleteByTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	if err := c.keywords.DeleteTenant(ctx, tenantID); err != nil {
		return deleted, err
	}
	return deleted, nil
}
