package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/feedloop-io/feedloop/internal/domain"
	searchuc "github.com/feedloop-io/feedloop/internal/usecase/search"
)

const defaultKeywordLimit = 50

// handleSummary handles GET /api/team/{teamID}/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	sentiment := sentimentFilter(r.URL.Query().Get("sentiment"))

	text, err := s.summary.Summarize(r.Context(), teamID, sentiment)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "Success to summarized data", text)
}

// handleKeywords handles GET /api/team/{teamID}/keywords.
func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	limit := defaultKeywordLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	counts, err := s.keywords.Top(r.Context(), teamID, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if counts == nil {
		counts = []domain.KeywordCount{}
	}

	writeData(w, http.StatusOK, "Success to get keywords", counts)
}

// handleDeleteDocuments handles DELETE /api/team/{teamID}/documents. It wipes
// the tenant's search documents and keyword counters; stored feedback records
// are untouched.
func (s *Server) handleDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")

	deleted, err := s.documents.DeleteByTenant(r.Context(), teamID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := s.keywords.DeleteTenant(r.Context(), teamID); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "Success to delete documents", map[string]int{
		"deleted": deleted,
	})
}

// handleSearch handles GET /api/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	teamID := q.Get("teamId")
	query := q.Get("q")
	if teamID == "" || query == "" {
		writeError(w, http.StatusBadRequest, "q and teamId query parameters are required")
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	hits, err := s.search.Hybrid(r.Context(), searchuc.Request{
		TenantID: teamID,
		Query:    query,
		Limit:    limit,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}

	writeData(w, http.StatusOK, "Success to search documents", hits)
}
