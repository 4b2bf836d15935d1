// Handles the book catalog backed by library.csv.

package library

import (
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/maruel/ksid"

	"github.com/finoptiv/shelf/internal/csvdb"
	"github.com/finoptiv/shelf/internal/storage"
)

// Status is a book's reading status.
type Status string

// The three reading states a book moves through.
const (
	StatusNotStarted Status = "Not Started"
	StatusReading    Status = "Reading"
	StatusRead       Status = "Read"
)

// Validate checks that the status is one of the known values.
func (s Status) Validate() error {
	switch s {
	case StatusNotStarted, StatusReading, StatusRead:
		return nil
	}
	return &ValidationError{Field: "status", Reason: fmt.Sprintf("must be one of %q, %q, %q", StatusNotStarted, StatusReading, StatusRead)}
}

// Book is one catalog entry.
type Book struct {
	ID       ksid.ID      `json:"id"`
	Title    string       `json:"title"`
	Author   string       `json:"author"`
	Genre    string       `json:"genre"`
	Pages    int          `json:"pages"`
	Status   Status       `json:"status"`
	Created  storage.Time `json:"created"`
	Modified storage.Time `json:"modified"`
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() *Book {
	c := *b
	return &c
}

// GetID returns the book's ID.
func (b *Book) GetID() ksid.ID {
	return b.ID
}

// Validate checks that the book is well-formed.
func (b *Book) Validate() error {
	if b.Title == "" {
		return missingField("title")
	}
	if b.Author == "" {
		return missingField("author")
	}
	if b.Genre == "" {
		return missingField("genre")
	}
	if b.Pages <= 0 {
		return &ValidationError{Field: "pages", Reason: "must be positive"}
	}
	return b.Status.Validate()
}

// MarshalRecord implements [csvdb.Row].
func (b *Book) MarshalRecord() []string {
	return []string{
		b.ID.String(),
		b.Title,
		b.Author,
		b.Genre,
		strconv.Itoa(b.Pages),
		string(b.Status),
		b.Created.String(),
		b.Modified.String(),
	}
}

var bookColumns = []string{"ID", "Title", "Author", "Genre", "Pages", "Status", "Created", "Modified"}

func decodeBook(fields map[string]string) (*Book, error) {
	b := &Book{
		Title:  fields["Title"],
		Author: fields["Author"],
		Genre:  fields["Genre"],
		Status: Status(fields["Status"]),
	}
	if s := fields["ID"]; s != "" {
		id, err := ksid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("bad ID: %w", err)
		}
		b.ID = id
	}
	if s := fields["Pages"]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("bad Pages: %w", err)
		}
		b.Pages = n
	}
	// Hand-edited files may leave the status blank.
	if b.Status == "" {
		b.Status = StatusNotStarted
	}
	var err error
	if b.Created, err = storage.ParseTime(fields["Created"]); err != nil {
		return nil, fmt.Errorf("bad Created: %w", err)
	}
	if b.Modified, err = storage.ParseTime(fields["Modified"]); err != nil {
		return nil, fmt.Errorf("bad Modified: %w", err)
	}
	return b, nil
}

// Stats summarizes the catalog for the dashboard.
type Stats struct {
	Total      int            `json:"total"`
	Read       int            `json:"read"`
	Reading    int            `json:"reading"`
	NotStarted int            `json:"not_started"`
	ByGenre    map[string]int `json:"by_genre"`
}

// BookService handles catalog CRUD and search.
type BookService struct {
	table    *csvdb.Table[*Book]
	byTitle  *csvdb.UniqueIndex[string, *Book]
	maxBooks int
}

// NewBookService creates a book service over the given CSV file.
// maxBooks limits the catalog size. Use 0 to disable the limit.
func NewBookService(tablePath string, maxBooks int) (*BookService, error) {
	table, err := csvdb.NewTable(tablePath, bookColumns, decodeBook)
	if err != nil {
		return nil, err
	}
	byTitle := csvdb.NewUniqueIndex(table, func(b *Book) string { return b.Title })
	return &BookService{table: table, byTitle: byTitle, maxBooks: maxBooks}, nil
}

// Path returns the backing file path.
func (s *BookService) Path() string {
	return s.table.Path()
}

// Count returns the number of books in the catalog.
func (s *BookService) Count() int {
	return s.table.Len()
}

// Get retrieves a book by ID.
func (s *BookService) Get(id ksid.ID) (*Book, error) {
	b := s.table.Get(id)
	if b == nil {
		return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return b, nil
}

// All returns an iterator over all books in catalog order.
func (s *BookService) All() iter.Seq[*Book] {
	return s.table.All()
}

// Add adds a new book. An empty status defaults to Not Started.
// Titles must be unique (case-sensitive exact match).
func (s *BookService) Add(title, author, genre string, pages int, status Status) (*Book, error) {
	if status == "" {
		status = StatusNotStarted
	}
	now := storage.Now()
	b := &Book{
		ID:       ksid.NewID(),
		Title:    title,
		Author:   author,
		Genre:    genre,
		Pages:    pages,
		Status:   status,
		Created:  now,
		Modified: now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if existing := s.byTitle.Get(title); existing != nil {
		return nil, fmt.Errorf("%q: %w", title, ErrDuplicateTitle)
	}
	if s.maxBooks > 0 && s.table.Len() >= s.maxBooks {
		return nil, &ValidationError{Field: "title", Reason: fmt.Sprintf("catalog is full (%d books)", s.maxBooks)}
	}
	if err := s.table.Append(b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// Update overwrites all editable fields of a book.
func (s *BookService) Update(id ksid.ID, title, author, genre string, pages int, status Status) (*Book, error) {
	prev := s.table.Get(id)
	if prev == nil {
		return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	b := prev.Clone()
	b.Title = title
	b.Author = author
	b.Genre = genre
	b.Pages = pages
	b.Status = status
	b.Modified = storage.Now()
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if existing := s.byTitle.Get(title); existing != nil && existing.ID != id {
		return nil, fmt.Errorf("%q: %w", title, ErrDuplicateTitle)
	}
	if _, err := s.table.Update(b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// SetStatus updates only the reading status. Setting the status a book
// already has still rewrites the file, to identical content.
func (s *BookService) SetStatus(id ksid.ID, status Status) (*Book, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}
	prev := s.table.Get(id)
	if prev == nil {
		return nil, fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	b := prev.Clone()
	if b.Status != status {
		b.Status = status
		b.Modified = storage.Now()
	}
	if _, err := s.table.Update(b); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// Delete removes a book from the catalog.
func (s *BookService) Delete(id ksid.ID) error {
	ok, err := s.table.Delete(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("book %s: %w", id, ErrNotFound)
	}
	return nil
}

// Search returns books whose title, author or genre contains the query,
// case-insensitively. An empty query matches nothing.
func (s *BookService) Search(query string) []*Book {
	if query == "" {
		return nil
	}
	q := strings.ToLower(query)
	var out []*Book
	for b := range s.table.All() {
		if strings.Contains(strings.ToLower(b.Title), q) ||
			strings.Contains(strings.ToLower(b.Author), q) ||
			strings.Contains(strings.ToLower(b.Genre), q) {
			out = append(out, b)
		}
	}
	return out
}

// Stats computes catalog counts for the dashboard.
func (s *BookService) Stats() Stats {
	st := Stats{ByGenre: map[string]int{}}
	for b := range s.table.All() {
		st.Total++
		switch b.Status {
		case StatusRead:
			st.Read++
		case StatusReading:
			st.Reading++
		case StatusNotStarted:
			st.NotStarted++
		}
		st.ByGenre[b.Genre]++
	}
	return st
}

// WriteCSV writes the catalog as CSV to w.
func (s *BookService) WriteCSV(w io.Writer) error {
	return s.table.WriteCSV(w)
}
