// Handles the data directory history endpoint.

package handlers

import (
	"context"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/storage/git"
)

// HistoryHandler handles commit history requests.
type HistoryHandler struct {
	history *git.History
}

// NewHistoryHandler creates a new history handler. history may be nil when
// history tracking is disabled.
func NewHistoryHandler(history *git.History) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// GetHistory returns the data directory's commit log, newest first.
// When history tracking is disabled the list is empty.
func (h *HistoryHandler) GetHistory(ctx context.Context, req *dto.HistoryRequest) (*dto.HistoryResponse, error) {
	if h.history == nil {
		return &dto.HistoryResponse{Commits: []dto.HistoryCommit{}}, nil
	}

	commits, err := h.history.Log(ctx, req.Limit)
	if err != nil {
		return nil, dto.InternalWithError("Failed to read history", err)
	}

	resp := &dto.HistoryResponse{Commits: make([]dto.HistoryCommit, len(commits))}
	for i, c := range commits {
		resp.Commits[i] = commitToResponse(c)
	}
	return resp, nil
}
