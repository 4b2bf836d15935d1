// Handles the append-only reading log backed by daily_log.csv.

package library

import (
	"fmt"
	"io"
	"iter"
	"strconv"

	"github.com/maruel/ksid"

	"github.com/finoptiv/shelf/internal/csvdb"
	"github.com/finoptiv/shelf/internal/storage"
)

// Entry is one reading log row: pages and minutes spent on one book during
// one day. The book title is free text and may not match any catalog entry.
type Entry struct {
	ID        ksid.ID      `json:"id"`
	Date      storage.Date `json:"date"`
	BookTitle string       `json:"book_title"`
	Pages     int          `json:"pages"`
	Minutes   int          `json:"minutes"`
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// GetID returns the entry's ID.
func (e *Entry) GetID() ksid.ID {
	return e.ID
}

// Validate checks that the entry is well-formed.
func (e *Entry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Reason: err.Error()}
	}
	if e.BookTitle == "" {
		return missingField("book_title")
	}
	if e.Pages <= 0 {
		return &ValidationError{Field: "pages", Reason: "must be positive"}
	}
	if e.Minutes <= 0 {
		return &ValidationError{Field: "minutes", Reason: "must be positive"}
	}
	return nil
}

// MarshalRecord implements [csvdb.Row].
func (e *Entry) MarshalRecord() []string {
	return []string{
		e.ID.String(),
		e.Date.String(),
		e.BookTitle,
		strconv.Itoa(e.Pages),
		strconv.Itoa(e.Minutes),
	}
}

var entryColumns = []string{"ID", "Date", "Book Title", "Pages Read", "Time Spent (min)"}

func decodeEntry(fields map[string]string) (*Entry, error) {
	e := &Entry{
		Date:      storage.Date(fields["Date"]),
		BookTitle: fields["Book Title"],
	}
	if s := fields["ID"]; s != "" {
		id, err := ksid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("bad ID: %w", err)
		}
		e.ID = id
	}
	if s := fields["Pages Read"]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("bad Pages Read: %w", err)
		}
		e.Pages = n
	}
	if s := fields["Time Spent (min)"]; s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("bad Time Spent (min): %w", err)
		}
		e.Minutes = n
	}
	return e, nil
}

// EntryInput is one row of a log submission before the service stamps it.
type EntryInput struct {
	BookTitle string
	Pages     int
	Minutes   int
}

// DailyGroup is the aggregated reading for one book on one day.
type DailyGroup struct {
	BookTitle    string `json:"book_title"`
	TotalPages   int    `json:"total_pages"`
	TotalMinutes int    `json:"total_minutes"`
}

// Totals is the lifetime reading volume.
type Totals struct {
	Entries int `json:"entries"`
	Pages   int `json:"pages"`
	Minutes int `json:"minutes"`
}

// LogService handles the append-only reading log.
type LogService struct {
	table  *csvdb.Table[*Entry]
	byDate *csvdb.Index[storage.Date, *Entry]
}

// NewLogService creates a log service over the given CSV file.
func NewLogService(tablePath string) (*LogService, error) {
	table, err := csvdb.NewTable(tablePath, entryColumns, decodeEntry)
	if err != nil {
		return nil, err
	}
	byDate := csvdb.NewIndex(table, func(e *Entry) storage.Date { return e.Date })
	return &LogService{table: table, byDate: byDate}, nil
}

// Path returns the backing file path.
func (s *LogService) Path() string {
	return s.table.Path()
}

// Count returns the number of log entries.
func (s *LogService) Count() int {
	return s.table.Len()
}

// AppendEntries stamps each row with today's date and appends the whole
// batch with a single write. Any invalid row rejects the entire batch.
func (s *LogService) AppendEntries(batch []EntryInput) ([]*Entry, error) {
	today := storage.Today()
	rows := make([]*Entry, len(batch))
	for i, in := range batch {
		rows[i] = &Entry{
			ID:        ksid.NewID(),
			Date:      today,
			BookTitle: in.BookTitle,
			Pages:     in.Pages,
			Minutes:   in.Minutes,
		}
		if err := rows[i].Validate(); err != nil {
			return nil, err
		}
	}
	if err := s.table.AppendBatch(rows); err != nil {
		return nil, err
	}
	out := make([]*Entry, len(rows))
	for i, e := range rows {
		out[i] = e.Clone()
	}
	return out, nil
}

// All returns an iterator over all entries in log order.
func (s *LogService) All() iter.Seq[*Entry] {
	return s.table.All()
}

// ForDate returns an iterator over the entries logged on the given day, in
// log order.
func (s *LogService) ForDate(date storage.Date) iter.Seq[*Entry] {
	return s.byDate.Iter(date)
}

// AggregateFor groups one day's entries by book title, summing pages and
// minutes. Groups appear in order of each title's first entry that day.
func (s *LogService) AggregateFor(date storage.Date) []DailyGroup {
	var groups []DailyGroup
	pos := map[string]int{}
	for e := range s.byDate.Iter(date) {
		i, ok := pos[e.BookTitle]
		if !ok {
			i = len(groups)
			pos[e.BookTitle] = i
			groups = append(groups, DailyGroup{BookTitle: e.BookTitle})
		}
		groups[i].TotalPages += e.Pages
		groups[i].TotalMinutes += e.Minutes
	}
	return groups
}

// Totals sums the whole log for the dashboard.
func (s *LogService) Totals() Totals {
	var t Totals
	for e := range s.table.All() {
		t.Entries++
		t.Pages += e.Pages
		t.Minutes += e.Minutes
	}
	return t
}

// WriteCSV writes the log as CSV to w.
func (s *LogService) WriteCSV(w io.Writer) error {
	return s.table.WriteCSV(w)
}
