// Handles catalog CRUD endpoints.

package handlers

import (
	"context"

	"github.com/finoptiv/shelf/internal/server/dto"
	"github.com/finoptiv/shelf/internal/storage/library"
)

// BookHandler handles book catalog requests.
type BookHandler struct {
	books *library.BookService
}

// NewBookHandler creates a new book handler.
func NewBookHandler(books *library.BookService) *BookHandler {
	return &BookHandler{books: books}
}

// ListBooks returns the whole catalog in file order.
func (h *BookHandler) ListBooks(ctx context.Context, req *dto.ListBooksRequest) (*dto.ListBooksResponse, error) {
	books := make([]dto.Book, 0, h.books.Count())
	for b := range h.books.All() {
		books = append(books, bookToResponse(b))
	}
	return &dto.ListBooksResponse{Books: books}, nil
}

// GetBook returns a single book by ID.
func (h *BookHandler) GetBook(ctx context.Context, req *dto.GetBookRequest) (*dto.GetBookResponse, error) {
	id, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	b, err := h.books.Get(id)
	if err != nil {
		return nil, mapLibraryError(err, "Failed to get book")
	}
	return &dto.GetBookResponse{Book: bookToResponse(b)}, nil
}

// CreateBook adds a book to the catalog.
func (h *BookHandler) CreateBook(ctx context.Context, req *dto.CreateBookRequest) (*dto.CreateBookResponse, error) {
	b, err := h.books.Add(req.Title, req.Author, req.Genre, req.Pages, library.Status(req.Status))
	if err != nil {
		return nil, mapLibraryError(err, "Failed to create book")
	}
	return &dto.CreateBookResponse{Book: bookToResponse(b)}, nil
}

// UpdateBook overwrites all editable fields of a book.
func (h *BookHandler) UpdateBook(ctx context.Context, req *dto.UpdateBookRequest) (*dto.UpdateBookResponse, error) {
	id, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	b, err := h.books.Update(id, req.Title, req.Author, req.Genre, req.Pages, library.Status(req.Status))
	if err != nil {
		return nil, mapLibraryError(err, "Failed to update book")
	}
	return &dto.UpdateBookResponse{Book: bookToResponse(b)}, nil
}

// DeleteBook removes a book from the catalog.
func (h *BookHandler) DeleteBook(ctx context.Context, req *dto.DeleteBookRequest) (*dto.DeleteBookResponse, error) {
	id, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	if err := h.books.Delete(id); err != nil {
		return nil, mapLibraryError(err, "Failed to delete book")
	}
	return &dto.DeleteBookResponse{Ok: true}, nil
}

// SetBookStatus changes only a book's reading status.
func (h *BookHandler) SetBookStatus(ctx context.Context, req *dto.SetBookStatusRequest) (*dto.SetBookStatusResponse, error) {
	id, err := decodeID(req.ID, "id")
	if err != nil {
		return nil, err
	}
	b, err := h.books.SetStatus(id, library.Status(req.Status))
	if err != nil {
		return nil, mapLibraryError(err, "Failed to update status")
	}
	return &dto.SetBookStatusResponse{Book: bookToResponse(b)}, nil
}
