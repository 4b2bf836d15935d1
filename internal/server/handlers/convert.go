package handlers

import (
	"github.com/maruel/ksid"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/storage/git"
	"github.com/finoptiv/shelf/internal/storage/library"
)

// --- ID decoding helpers ---

func decodeID(s, field string) (ksid.ID, error) {
	id, err := ksid.Parse(s)
	if err != nil {
		return 0, dto.BadRequest("invalid_" + field)
	}
	return id, nil
}

// --- Storage to DTO conversions ---

func bookToResponse(b *library.Book) dto.Book {
	return dto.Book{
		ID:       b.ID.String(),
		Title:    b.Title,
		Author:   b.Author,
		Genre:    b.Genre,
		Pages:    b.Pages,
		Status:   string(b.Status),
		Created:  int64(b.Created),
		Modified: int64(b.Modified),
	}
}

func booksToResponse(books []*library.Book) []dto.Book {
	result := make([]dto.Book, len(books))
	for i, b := range books {
		result[i] = bookToResponse(b)
	}
	return result
}

func entryToResponse(e *library.Entry) dto.LogEntry {
	return dto.LogEntry{
		ID:        e.ID.String(),
		Date:      string(e.Date),
		BookTitle: e.BookTitle,
		Pages:     e.Pages,
		Minutes:   e.Minutes,
	}
}

func entriesToResponse(entries []*library.Entry) []dto.LogEntry {
	result := make([]dto.LogEntry, len(entries))
	for i, e := range entries {
		result[i] = entryToResponse(e)
	}
	return result
}

func dailyGroupToResponse(g library.DailyGroup) dto.DailyGroup {
	return dto.DailyGroup{
		BookTitle:    g.BookTitle,
		TotalPages:   g.TotalPages,
		TotalMinutes: g.TotalMinutes,
	}
}

func commitToResponse(c *git.Commit) dto.HistoryCommit {
	return dto.HistoryCommit{
		Hash:    c.Hash,
		Message: c.Message,
		Author:  c.Author,
		Date:    c.Date.Unix(),
	}
}
