package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/feedloop-io/feedloop/internal/domain"
	chatuc "github.com/feedloop-io/feedloop/internal/usecase/chat"
)

type chatRequest struct {
	TeamID   string               `json:"teamId"`
	UserName string               `json:"userName"`
	Messages []domain.ChatMessage `json:"messages"`
}

// handleChat handles POST /api/chat. The answer streams back as plain text
// chunks; errors after the first byte can only terminate the stream early.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.streamTimeout)
	defer cancel()

	stream, err := s.chat.Stream(ctx, chatuc.Request{
		TenantID: req.TeamID,
		UserName: req.UserName,
		Messages: req.Messages,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	defer func() { _ = stream.Close() }()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// Headers are gone, all we can do is cut the stream and log.
			s.logger.Warn("chat stream interrupted", zap.Error(err))
			return
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return
		}
		flusher.Flush()
	}
}
