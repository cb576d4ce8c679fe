package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/feedloop-io/feedloop/internal/domain"
	chatuc "github.com/feedloop-io/feedloop/internal/usecase/chat"
	healthuc "github.com/feedloop-io/feedloop/internal/usecase/health"
	ingestuc "github.com/feedloop-io/feedloop/internal/usecase/ingest"
	searchuc "github.com/feedloop-io/feedloop/internal/usecase/search"
)

// mockCollector implements Collector with a func field.
type mockCollector struct {
	collectFunc func(ctx context.Context, req ingestuc.Request) (domain.Feedback, error)
}

func (m *mockCollector) Collect(ctx context.Context, req ingestuc.Request) (domain.Feedback, error) {
	return m.collectFunc(ctx, req)
}

// mockChat implements ChatService with a func field.
type mockChat struct {
	streamFunc func(ctx context.Context, req chatuc.Request) (domain.ChatStream, error)
}

func (m *mockChat) Stream(ctx context.Context, req chatuc.Request) (domain.ChatStream, error) {
	return m.streamFunc(ctx, req)
}

// mockSearcher implements Searcher with a func field.
type mockSearcher struct {
	hybridFunc func(ctx context.Context, req searchuc.Request) ([]domain.SearchHit, error)
}

func (m *mockSearcher) Hybrid(ctx context.Context, req searchuc.Request) ([]domain.SearchHit, error) {
	return m.hybridFunc(ctx, req)
}

// mockSummarizer implements Summarizer with a func field.
type mockSummarizer struct {
	summarizeFunc func(ctx context.Context, tenantID string, sentiment domain.Sentiment) (string, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, tenantID string, sentiment domain.Sentiment) (string, error) {
	return m.summarizeFunc(ctx, tenantID, sentiment)
}

// mockHealth implements HealthService with a func field.
type mockHealth struct {
	checkFunc func(ctx context.Context) healthuc.Report
}

func (m *mockHealth) Check(ctx context.Context) healthuc.Report {
	return m.checkFunc(ctx)
}

// mockFeedbacks implements FeedbackStore with func fields.
type mockFeedbacks struct {
	getFunc        func(ctx context.Context, tenantID, id string) (domain.Feedback, error)
	deleteFunc     func(ctx context.Context, tenantID, id string) error
	listRecentFunc func(ctx context.Context, tenantID string, sentiment domain.Sentiment, limit int) ([]domain.Feedback, error)
}

func (m *mockFeedbacks) Get(ctx context.Context, tenantID, id string) (domain.Feedback, error) {
	return m.getFunc(ctx, tenantID, id)
}

func (m *mockFeedbacks) Delete(ctx context.Context, tenantID, id string) error {
	return m.deleteFunc(ctx, tenantID, id)
}

func (m *mockFeedbacks) ListRecent(
	ctx context.Context, tenantID string, sentiment domain.Sentiment, limit int,
) ([]domain.Feedback, error) {
	return m.listRecentFunc(ctx, tenantID, sentiment, limit)
}

// mockKeywords implements KeywordStore with func fields.
type mockKeywords struct {
	topFunc          func(ctx context.Context, tenantID string, limit int) ([]domain.KeywordCount, error)
	deleteTenantFunc func(ctx context.Context, tenantID string) error
}

func (m *mockKeywords) Top(ctx context.Context, tenantID string, limit int) ([]domain.KeywordCount, error) {
	return m.topFunc(ctx, tenantID, limit)
}

func (m *mockKeywords) DeleteTenant(ctx context.Context, tenantID string) error {
	return m.deleteTenantFunc(ctx, tenantID)
}

// mockDocuments implements DocumentAdmin with func fields.
type mockDocuments struct {
	deleteByIDFunc     func(ctx context.Context, id string) error
	deleteByTenantFunc func(ctx context.Context, tenantID string) (int, error)
	countByTenantFunc  func(ctx context.Context, tenantID string) (int, error)
}

func (m *mockDocuments) DeleteByID(ctx context.Context, id string) error {
	return m.deleteByIDFunc(ctx, id)
}

func (m *mockDocuments) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	return m.deleteByTenantFunc(ctx, tenantID)
}

func (m *mockDocuments) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	return m.countByTenantFunc(ctx, tenantID)
}

// fixture bundles the mocks behind a routed test server.
type fixture struct {
	ingest    *mockCollector
	chat      *mockChat
	search    *mockSearcher
	summary   *mockSummarizer
	health    *mockHealth
	feedbacks *mockFeedbacks
	keywords  *mockKeywords
	documents *mockDocuments
	router    chi.Router
}

func newFixture() *fixture {
	return newFixtureStreamTimeout(time.Second)
}

func newFixtureStreamTimeout(streamTimeout time.Duration) *fixture {
	f := &fixture{
		ingest:    &mockCollector{},
		chat:      &mockChat{},
		search:    &mockSearcher{},
		summary:   &mockSummarizer{},
		health:    &mockHealth{},
		feedbacks: &mockFeedbacks{},
		keywords:  &mockKeywords{},
		documents: &mockDocuments{},
	}

	srv := NewServer(
		f.ingest, f.chat, f.search, f.summary, f.health,
		f.feedbacks, f.keywords, f.documents,
		streamTimeout, zap.NewNop(),
	)

	f.router = chi.NewRouter()
	srv.Routes(f.router)
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}
