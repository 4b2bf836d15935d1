package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestBooks(t *testing.T) *BookService {
	t.Helper()
	s, err := NewBookService(filepath.Join(t.TempDir(), "library.csv"), 0)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBookService(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		s := newTestBooks(t)
		b, err := s.Add("Dune", "Frank Herbert", "Science Fiction", 412, "")
		if err != nil {
			t.Fatal(err)
		}
		if b.ID.IsZero() {
			t.Error("Add() did not assign an ID")
		}
		if b.Status != StatusNotStarted {
			t.Errorf("Status = %q, want %q", b.Status, StatusNotStarted)
		}
		if b.Created.IsZero() || b.Modified.IsZero() {
			t.Error("timestamps not set")
		}
		if s.Count() != 1 {
			t.Errorf("Count() = %d, want 1", s.Count())
		}
	})

	t.Run("AddValidation", func(t *testing.T) {
		s := newTestBooks(t)
		tests := []struct {
			name   string
			title  string
			author string
			genre  string
			pages  int
			field  string
		}{
			{"empty title", "", "A", "G", 1, "title"},
			{"empty author", "T", "", "G", 1, "author"},
			{"empty genre", "T", "A", "", 1, "genre"},
			{"zero pages", "T", "A", "G", 0, "pages"},
			{"negative pages", "T", "A", "G", -5, "pages"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.Add(tt.title, tt.author, tt.genre, tt.pages, "")
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Add() error = %v, want ValidationError", err)
				}
				if verr.Field != tt.field {
					t.Errorf("Field = %q, want %q", verr.Field, tt.field)
				}
			})
		}
		if s.Count() != 0 {
			t.Errorf("Count() = %d, want 0 after rejected adds", s.Count())
		}
	})

	t.Run("AddRejectsBadStatus", func(t *testing.T) {
		s := newTestBooks(t)
		if _, err := s.Add("T", "A", "G", 1, "Finished"); err == nil {
			t.Error("Add() with unknown status succeeded, want error")
		}
	})

	t.Run("AddDuplicateTitle", func(t *testing.T) {
		s := newTestBooks(t)
		if _, err := s.Add("Dune", "Frank Herbert", "Science Fiction", 412, ""); err != nil {
			t.Fatal(err)
		}
		_, err := s.Add("Dune", "Someone Else", "Fantasy", 100, "")
		if !errors.Is(err, ErrDuplicateTitle) {
			t.Errorf("Add() error = %v, want ErrDuplicateTitle", err)
		}
		// Different case is a different title.
		if _, err := s.Add("DUNE", "Frank Herbert", "Science Fiction", 412, ""); err != nil {
			t.Errorf("Add() with different case failed: %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		s := newTestBooks(t)
		b, err := s.Add("Old Title", "A", "G", 10, "")
		if err != nil {
			t.Fatal(err)
		}
		updated, err := s.Update(b.ID, "New Title", "B", "H", 20, StatusReading)
		if err != nil {
			t.Fatal(err)
		}
		if updated.Title != "New Title" || updated.Pages != 20 || updated.Status != StatusReading {
			t.Errorf("Update() = %+v", updated)
		}
		if updated.Modified.Before(b.Modified) {
			t.Error("Modified not bumped")
		}
		// The old title is free again.
		if _, err := s.Add("Old Title", "A", "G", 10, ""); err != nil {
			t.Errorf("Add() of freed title failed: %v", err)
		}
	})

	t.Run("UpdateKeepOwnTitle", func(t *testing.T) {
		s := newTestBooks(t)
		b, err := s.Add("Same", "A", "G", 10, "")
		if err != nil {
			t.Fatal(err)
		}
		// Keeping the same title is not a duplicate.
		if _, err := s.Update(b.ID, "Same", "B", "G", 11, StatusRead); err != nil {
			t.Errorf("Update() keeping title failed: %v", err)
		}
	})

	t.Run("UpdateDuplicateTitle", func(t *testing.T) {
		s := newTestBooks(t)
		if _, err := s.Add("First", "A", "G", 10, ""); err != nil {
			t.Fatal(err)
		}
		b, err := s.Add("Second", "A", "G", 10, "")
		if err != nil {
			t.Fatal(err)
		}
		_, err = s.Update(b.ID, "First", "A", "G", 10, StatusRead)
		if !errors.Is(err, ErrDuplicateTitle) {
			t.Errorf("Update() error = %v, want ErrDuplicateTitle", err)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newTestBooks(t)
		b, err := s.Add("T", "A", "G", 10, "")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(b.ID); err != nil {
			t.Fatal(err)
		}
		_, err = s.Update(b.ID, "T", "A", "G", 10, StatusRead)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := newTestBooks(t)
		a, err := s.Add("Keep", "A", "G", 10, "")
		if err != nil {
			t.Fatal(err)
		}
		b, err := s.Add("Drop", "A", "G", 10, "")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Delete(b.ID); err != nil {
			t.Fatal(err)
		}
		if s.Count() != 1 {
			t.Errorf("Count() = %d, want 1", s.Count())
		}
		if _, err := s.Get(a.ID); err != nil {
			t.Errorf("Get(kept) failed: %v", err)
		}
		if err := s.Delete(b.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Delete() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("SetStatus", func(t *testing.T) {
		s := newTestBooks(t)
		b, err := s.Add("T", "A", "G", 10, "")
		if err != nil {
			t.Fatal(err)
		}
		got, err := s.SetStatus(b.ID, StatusRead)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != StatusRead {
			t.Errorf("Status = %q, want %q", got.Status, StatusRead)
		}
		if _, err := s.SetStatus(b.ID, "Unknown"); err == nil {
			t.Error("SetStatus() with bad status succeeded, want error")
		}
	})

	t.Run("SetStatusIdempotentFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "library.csv")
		s, err := NewBookService(path, 0)
		if err != nil {
			t.Fatal(err)
		}
		b, err := s.Add("T", "A", "G", 10, StatusReading)
		if err != nil {
			t.Fatal(err)
		}
		before, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := s.SetStatus(b.ID, StatusReading); err != nil {
			t.Fatal(err)
		}
		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(before) != string(after) {
			t.Errorf("file changed after same-status update:\nbefore: %q\nafter:  %q", before, after)
		}
	})

	t.Run("Search", func(t *testing.T) {
		s := newTestBooks(t)
		seed := []struct {
			title, author, genre string
		}{
			{"Dune", "Frank Herbert", "Science Fiction"},
			{"Hyperion", "Dan Simmons", "Science Fiction"},
			{"The Hobbit", "J.R.R. Tolkien", "Fantasy"},
		}
		for _, b := range seed {
			if _, err := s.Add(b.title, b.author, b.genre, 100, ""); err != nil {
				t.Fatal(err)
			}
		}
		tests := []struct {
			query string
			want  int
		}{
			{"dune", 1},    // title, case-insensitive
			{"herbert", 1}, // author alone
			{"science", 2}, // genre
			{"o", 3},       // substring across fields
			{"nothing here", 0},
			{"", 0}, // empty query matches nothing
		}
		for _, tt := range tests {
			if got := len(s.Search(tt.query)); got != tt.want {
				t.Errorf("Search(%q) = %d books, want %d", tt.query, got, tt.want)
			}
		}
	})

	t.Run("Stats", func(t *testing.T) {
		s := newTestBooks(t)
		if _, err := s.Add("A", "x", "Fantasy", 10, StatusRead); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Add("B", "x", "Fantasy", 10, StatusReading); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Add("C", "x", "Horror", 10, ""); err != nil {
			t.Fatal(err)
		}
		st := s.Stats()
		if st.Total != 3 || st.Read != 1 || st.Reading != 1 || st.NotStarted != 1 {
			t.Errorf("Stats() = %+v", st)
		}
		if st.ByGenre["Fantasy"] != 2 || st.ByGenre["Horror"] != 1 {
			t.Errorf("ByGenre = %v", st.ByGenre)
		}
	})

	t.Run("MaxBooks", func(t *testing.T) {
		s, err := NewBookService(filepath.Join(t.TempDir(), "library.csv"), 2)
		if err != nil {
			t.Fatal(err)
		}
		for _, title := range []string{"A", "B"} {
			if _, err := s.Add(title, "x", "G", 10, ""); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := s.Add("C", "x", "G", 10, ""); err == nil {
			t.Error("Add() over quota succeeded, want error")
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "library.csv")
		s, err := NewBookService(path, 0)
		if err != nil {
			t.Fatal(err)
		}
		b, err := s.Add("Dune", "Frank Herbert", "Science Fiction", 412, StatusReading)
		if err != nil {
			t.Fatal(err)
		}

		reloaded, err := NewBookService(path, 0)
		if err != nil {
			t.Fatal(err)
		}
		got, err := reloaded.Get(b.ID)
		if err != nil {
			t.Fatal(err)
		}
		if *got != *b {
			t.Errorf("reloaded = %+v, want %+v", got, b)
		}
	})

	t.Run("LegacyFileWithoutIDs", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "library.csv")
		content := "Title,Author,Genre,Pages,Status\nDune,Frank Herbert,Science Fiction,412,Read\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := NewBookService(path, 0)
		if err != nil {
			t.Fatal(err)
		}
		if s.Count() != 1 {
			t.Fatalf("Count() = %d, want 1", s.Count())
		}
		got := s.Search("Dune")
		if len(got) != 1 {
			t.Fatalf("Search() = %d books, want 1", len(got))
		}
		if got[0].ID.IsZero() {
			t.Error("legacy row was not assigned an ID")
		}
		if got[0].Status != StatusRead || got[0].Pages != 412 {
			t.Errorf("legacy row = %+v", got[0])
		}
	})

	t.Run("LegacyFileMissingColumns", func(t *testing.T) {
		// A catalog without the Pages column still loads and serves, with
		// Pages backfilled to zero. Only edits to such a row are rejected.
		dir := t.TempDir()
		path := filepath.Join(dir, "library.csv")
		content := "Title,Author,Genre,Status\nDune,Frank Herbert,Science Fiction,Read\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		s, err := NewBookService(path, 0)
		if err != nil {
			t.Fatalf("NewBookService() = %v, want nil", err)
		}
		if s.Count() != 1 {
			t.Fatalf("Count() = %d, want 1", s.Count())
		}
		got := s.Search("Dune")
		if len(got) != 1 {
			t.Fatalf("Search() = %d books, want 1", len(got))
		}
		if got[0].Pages != 0 || got[0].Status != StatusRead {
			t.Errorf("backfilled row = %+v", got[0])
		}
		// Repairing the row through a normal edit works.
		if _, err := s.Update(got[0].ID, got[0].Title, got[0].Author, got[0].Genre, 412, got[0].Status); err != nil {
			t.Errorf("Update() = %v", err)
		}
	})
}
