package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/finoptiv/shelf/internal/server/dto"
)

func TestBookHandler_CRUD(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestEnv(t)
	h := NewBookHandler(svc.Books)

	created, err := h.CreateBook(ctx, &dto.CreateBookRequest{
		Title:  "Dune",
		Author: "Frank Herbert",
		Genre:  "Science Fiction",
		Pages:  412,
	})
	if err != nil {
		t.Fatalf("CreateBook failed: %v", err)
	}
	if created.Book.Status != "Not Started" {
		t.Errorf("Status = %q, want %q", created.Book.Status, "Not Started")
	}
	id := created.Book.ID

	t.Run("Get", func(t *testing.T) {
		resp, err := h.GetBook(ctx, &dto.GetBookRequest{ID: id})
		if err != nil {
			t.Fatalf("GetBook failed: %v", err)
		}
		if resp.Book.Title != "Dune" {
			t.Errorf("Title = %q, want %q", resp.Book.Title, "Dune")
		}
	})

	t.Run("GetInvalidID", func(t *testing.T) {
		_, err := h.GetBook(ctx, &dto.GetBookRequest{ID: "not-a-ksid!!"})
		var ews dto.ErrorWithStatus
		if !errors.As(err, &ews) || ews.StatusCode() != 400 {
			t.Errorf("expected 400, got %v", err)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		missing, err := h.CreateBook(ctx, &dto.CreateBookRequest{Title: "Temp", Author: "A", Genre: "G", Pages: 1})
		if err != nil {
			t.Fatalf("CreateBook failed: %v", err)
		}
		if _, err := h.DeleteBook(ctx, &dto.DeleteBookRequest{ID: missing.Book.ID}); err != nil {
			t.Fatalf("DeleteBook failed: %v", err)
		}
		_, err = h.GetBook(ctx, &dto.GetBookRequest{ID: missing.Book.ID})
		var ews dto.ErrorWithStatus
		if !errors.As(err, &ews) || ews.StatusCode() != 404 {
			t.Errorf("expected 404, got %v", err)
		}
	})

	t.Run("DuplicateTitle", func(t *testing.T) {
		_, err := h.CreateBook(ctx, &dto.CreateBookRequest{Title: "Dune", Author: "Other", Genre: "Other", Pages: 1})
		var ews dto.ErrorWithStatus
		if !errors.As(err, &ews) || ews.StatusCode() != 409 {
			t.Errorf("expected 409, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		resp, err := h.UpdateBook(ctx, &dto.UpdateBookRequest{
			ID:     id,
			Title:  "Dune",
			Author: "Frank Herbert",
			Genre:  "Science Fiction",
			Pages:  604,
			Status: "Reading",
		})
		if err != nil {
			t.Fatalf("UpdateBook failed: %v", err)
		}
		if resp.Book.Pages != 604 || resp.Book.Status != "Reading" {
			t.Errorf("got pages=%d status=%q", resp.Book.Pages, resp.Book.Status)
		}
	})

	t.Run("SetStatus", func(t *testing.T) {
		resp, err := h.SetBookStatus(ctx, &dto.SetBookStatusRequest{ID: id, Status: "Read"})
		if err != nil {
			t.Fatalf("SetBookStatus failed: %v", err)
		}
		if resp.Book.Status != "Read" {
			t.Errorf("Status = %q, want %q", resp.Book.Status, "Read")
		}
	})

	t.Run("SetStatusInvalid", func(t *testing.T) {
		_, err := h.SetBookStatus(ctx, &dto.SetBookStatusRequest{ID: id, Status: "Finished"})
		var ews dto.ErrorWithStatus
		if !errors.As(err, &ews) || ews.StatusCode() != 400 {
			t.Errorf("expected 400, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		resp, err := h.ListBooks(ctx, &dto.ListBooksRequest{})
		if err != nil {
			t.Fatalf("ListBooks failed: %v", err)
		}
		if len(resp.Books) != 1 {
			t.Errorf("got %d books, want 1", len(resp.Books))
		}
	})
}

func TestSearchHandler(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestEnv(t)
	bh := NewBookHandler(svc.Books)
	sh := NewSearchHandler(svc.Books)

	seed := []dto.CreateBookRequest{
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", Pages: 412},
		{Title: "Hyperion", Author: "Dan Simmons", Genre: "Science Fiction", Pages: 482},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", Pages: 310},
	}
	for i := range seed {
		if _, err := bh.CreateBook(ctx, &seed[i]); err != nil {
			t.Fatalf("CreateBook failed: %v", err)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{"dune", 1},
		{"science", 2},
		{"tolkien", 1},
		{"nothing here", 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := sh.Search(ctx, &dto.SearchRequest{Query: tt.query})
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(resp.Books) != tt.want {
				t.Errorf("Search(%q) = %d books, want %d", tt.query, len(resp.Books), tt.want)
			}
			if resp.Query != tt.query {
				t.Errorf("Query = %q, want %q", resp.Query, tt.query)
			}
		})
	}
}
