package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/feedloop-io/feedloop/internal/domain"
	ingestuc "github.com/feedloop-io/feedloop/internal/usecase/ingest"
	searchuc "github.com/feedloop-io/feedloop/internal/usecase/search"
)

// relatedLimit is how many similar documents accompany a feedback detail.
const relatedLimit = 6

type collectRequest struct {
	TeamID string `json:"teamId"`
	Rate   int    `json:"rate"`
	Text   string `json:"text"`
}

// handleCollect handles POST /api/feedback.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	var req collectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" || req.TeamID == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: text and teamId are required.")
		return
	}

	fb, err := s.ingest.Collect(r.Context(), ingestuc.Request{
		TenantID:    req.TeamID,
		Rate:        req.Rate,
		Description: req.Text,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "Success send feedback", fb)
}

// handleGetFeedback handles GET /api/feedback/{feedbackID}. The response
// carries the record plus the most similar indexed documents.
func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "feedbackID")
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		writeError(w, http.StatusBadRequest, "teamId query parameter is required")
		return
	}

	fb, err := s.feedbacks.Get(r.Context(), teamID, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	relateds, err := s.search.Hybrid(r.Context(), searchuc.Request{
		TenantID: teamID,
		Query:    fb.Description,
		Limit:    relatedLimit,
	})
	if err != nil {
		// The record itself is the payload, related hits are garnish.
		s.logger.Warn("related documents lookup failed")
		relateds = nil
	}

	writeData(w, http.StatusOK, "Success to get feedback", map[string]any{
		"feedback": fb,
		"relateds": relateds,
	})
}

// handleDeleteFeedback handles DELETE /api/feedback/{feedbackID}. It removes
// both the record and its search document.
func (s *Server) handleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "feedbackID")
	teamID := r.URL.Query().Get("teamId")
	if teamID == "" {
		writeError(w, http.StatusBadRequest, "teamId query parameter is required")
		return
	}

	if err := s.feedbacks.Delete(r.Context(), teamID, id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := s.documents.DeleteByID(r.Context(), domain.FeedbackDocID(id)); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeData(w, http.StatusOK, "Success to delete feedback", nil)
}

// handleListFeedbacks handles GET /api/team/{teamID}/feedbacks.
func (s *Server) handleListFeedbacks(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	sentiment := sentimentFilter(r.URL.Query().Get("sentiment"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.feedbacks.ListRecent(r.Context(), teamID, sentiment, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if records == nil {
		records = []domain.Feedback{}
	}

	writeData(w, http.StatusOK, "Success to get team", records)
}

func sentimentFilter(raw string) domain.Sentiment {
	if raw == "" || raw == "all" {
		return ""
	}
	return domain.NormalizeSentiment(raw)
}
