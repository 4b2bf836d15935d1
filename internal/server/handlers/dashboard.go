// Handles the dashboard KPI endpoint.

package handlers

import (
	"context"
	"math"
	"sort"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/storage/library"
)

// topGenreCount caps the genre breakdown on the dashboard.
const topGenreCount = 5

// DashboardHandler handles dashboard KPI requests.
type DashboardHandler struct {
	books *library.BookService
	log   *library.LogService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(books *library.BookService, log *library.LogService) *DashboardHandler {
	return &DashboardHandler{books: books, log: log}
}

// GetDashboard computes catalog and reading log KPIs.
func (h *DashboardHandler) GetDashboard(ctx context.Context, req *dto.GetDashboardRequest) (*dto.GetDashboardResponse, error) {
	stats := h.books.Stats()
	totals := h.log.Totals()

	var percentRead float64
	if stats.Total > 0 {
		percentRead = round1(float64(stats.Read) / float64(stats.Total) * 100)
	}

	return &dto.GetDashboardResponse{
		TotalBooks:     stats.Total,
		BooksRead:      stats.Read,
		BooksReading:   stats.Reading,
		PercentRead:    percentRead,
		TotalPagesRead: totals.Pages,
		TotalMinutes:   totals.Minutes,
		TotalHours:     round1(float64(totals.Minutes) / 60),
		TopGenres:      topGenres(stats.ByGenre),
	}, nil
}

// topGenres returns the most common genres, largest first. Ties break
// alphabetically so the order is stable.
func topGenres(byGenre map[string]int) []dto.GenreCount {
	genres := make([]dto.GenreCount, 0, len(byGenre))
	for genre, count := range byGenre {
		genres = append(genres, dto.GenreCount{Genre: genre, Count: count})
	}
	sort.Slice(genres, func(i, j int) bool {
		if genres[i].Count != genres[j].Count {
			return genres[i].Count > genres[j].Count
		}
		return genres[i].Genre < genres[j].Genre
	})
	if len(genres) > topGenreCount {
		genres = genres[:topGenreCount]
	}
	return genres
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
