// Handles reading log submission and reporting endpoints.

package handlers

import (
	"context"
	"fmt"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/storage"
	"github.com/finoptiv/shelf/internal/storage/library"
)

// LogHandler handles reading log requests.
type LogHandler struct {
	log     *library.LogService
	maxRows int
}

// NewLogHandler creates a new reading log handler. maxRows limits the rows
// accepted in one submission. Use 0 to disable the limit.
func NewLogHandler(log *library.LogService, maxRows int) *LogHandler {
	return &LogHandler{log: log, maxRows: maxRows}
}

// SubmitLog appends a batch of reading rows stamped with today's date.
// The whole batch is validated before anything is written.
func (h *LogHandler) SubmitLog(ctx context.Context, req *dto.SubmitLogRequest) (*dto.SubmitLogResponse, error) {
	if h.maxRows > 0 && len(req.Entries) > h.maxRows {
		return nil, dto.BadRequest(fmt.Sprintf("too many rows in one submission, max %d", h.maxRows))
	}

	batch := make([]library.EntryInput, len(req.Entries))
	for i, e := range req.Entries {
		batch[i] = library.EntryInput{
			BookTitle: e.BookTitle,
			Pages:     e.Pages,
			Minutes:   e.Minutes,
		}
	}

	entries, err := h.log.AppendEntries(batch)
	if err != nil {
		return nil, mapLibraryError(err, "Failed to record reading log")
	}
	return &dto.SubmitLogResponse{Entries: entriesToResponse(entries)}, nil
}

// ListLog returns raw log entries, all of them or one day's worth.
func (h *LogHandler) ListLog(ctx context.Context, req *dto.ListLogRequest) (*dto.ListLogResponse, error) {
	entries := make([]dto.LogEntry, 0, h.log.Count())
	if req.Date == "" {
		for e := range h.log.All() {
			entries = append(entries, entryToResponse(e))
		}
		return &dto.ListLogResponse{Entries: entries}, nil
	}

	date, err := storage.ParseDate(req.Date)
	if err != nil {
		return nil, dto.BadRequest(err.Error())
	}
	for e := range h.log.ForDate(date) {
		entries = append(entries, entryToResponse(e))
	}
	return &dto.ListLogResponse{Entries: entries}, nil
}

// DailyReport aggregates one day's reading per book, in the order each book
// first appears in the log. An empty date means today.
func (h *LogHandler) DailyReport(ctx context.Context, req *dto.DailyReportRequest) (*dto.DailyReportResponse, error) {
	date := storage.Today()
	if req.Date != "" {
		var err error
		date, err = storage.ParseDate(req.Date)
		if err != nil {
			return nil, dto.BadRequest(err.Error())
		}
	}

	groups := h.log.AggregateFor(date)
	resp := &dto.DailyReportResponse{
		Date:   string(date),
		Groups: make([]dto.DailyGroup, len(groups)),
	}
	for i, g := range groups {
		resp.Groups[i] = dailyGroupToResponse(g)
	}
	return resp, nil
}
