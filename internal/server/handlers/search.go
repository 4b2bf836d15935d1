// Handles catalog search endpoints.

package handlers

import (
	"context"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/storage/library"
)

// SearchHandler handles search-related HTTP requests.
type SearchHandler struct {
	books *library.BookService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(books *library.BookService) *SearchHandler {
	return &SearchHandler{books: books}
}

// Search performs a case-insensitive substring search over title, author
// and genre.
func (h *SearchHandler) Search(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	matches := h.books.Search(req.Query)
	return &dto.SearchResponse{
		Query: req.Query,
		Books: booksToResponse(matches),
	}, nil
}
