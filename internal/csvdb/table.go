package csvdb

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/maruel/ksid"
)

// Row is implemented by types stored in a [Table].
type Row[T any] interface {
	// Clone returns a deep copy of the row.
	Clone() T
	// GetID returns the row's unique identifier.
	GetID() ksid.ID
	// Validate checks that the row is well-formed. Enforced on mutations,
	// not on load, so incomplete legacy files remain readable.
	Validate() error
	// MarshalRecord encodes the row as CSV fields, one per table column.
	MarshalRecord() []string
}

// DecodeFunc constructs a row from CSV fields keyed by column name.
// Columns absent from the file are absent from the map; decoders must treat
// them as empty values.
type DecodeFunc[T any] func(fields map[string]string) (T, error)

// TableObserver is notified of table mutations. Used to keep secondary
// indexes synchronized.
type TableObserver[T any] interface {
	OnAppend(row T)
	OnUpdate(prev, curr T)
	OnDelete(row T)
}

var (
	errZeroID      = errors.New("row has zero ID")
	errDuplicateID = errors.New("duplicate row ID")
)

// Table handles storage and in-memory caching for a single CSV table.
type Table[T Row[T]] struct {
	path    string
	columns []string
	decode  DecodeFunc[T]

	mu        sync.RWMutex
	rows      []T
	byID      map[ksid.ID]int
	extraCols []string
	extras    map[ksid.ID][]string
	observers []TableObserver[T]
}

// NewTable creates a new Table and loads all data from the file.
//
// columns is the canonical header; the ID column must be included. A missing
// or empty file yields an empty table. Rows loaded without an ID are assigned
// one and the file is rewritten once.
func NewTable[T Row[T]](path string, columns []string, decode DecodeFunc[T]) (*Table[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	t := &Table[T]{
		path:    path,
		columns: columns,
		decode:  decode,
		byID:    map[ksid.ID]int{},
		extras:  map[ksid.ID][]string{},
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table[T]) load() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open table file %s: %w", t.path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file is an empty store.
			return nil
		}
		return fmt.Errorf("failed to read header of %s: %w", t.path, err)
	}

	known := make(map[string]bool, len(t.columns))
	for _, c := range t.columns {
		known[c] = true
	}
	// Unknown columns are preserved across rewrites.
	var extraIdx []int
	for i, c := range header {
		if !known[c] {
			t.extraCols = append(t.extraCols, c)
			extraIdx = append(extraIdx, i)
		}
	}

	assigned := false
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read %s line %d: %w", t.path, line, err)
		}
		fields := make(map[string]string, len(header))
		for i, c := range header {
			if i < len(rec) {
				fields[c] = rec[i]
			}
		}
		row, err := t.decode(fields)
		if err != nil {
			return fmt.Errorf("failed to decode %s line %d: %w", t.path, line, err)
		}
		// Validate is deliberately not enforced here. Hand-edited or legacy
		// files with missing columns still load; mutations enforce it.
		id := row.GetID()
		if id.IsZero() {
			// Legacy file without IDs: assign and persist below.
			id = ksid.NewID()
			row = t.withID(row, id)
			assigned = true
		}
		if _, ok := t.byID[id]; ok {
			return fmt.Errorf("%w in %s line %d: %s", errDuplicateID, t.path, line, id)
		}
		var extra []string
		for _, i := range extraIdx {
			if i < len(rec) {
				extra = append(extra, rec[i])
			} else {
				extra = append(extra, "")
			}
		}
		if len(extra) > 0 {
			t.extras[id] = extra
		}
		t.byID[id] = len(t.rows)
		t.rows = append(t.rows, row)
	}

	if assigned {
		return t.persistLocked()
	}
	return nil
}

// withID rebuilds a decoded row with the given ID by round-tripping through
// the decoder. Decoders accept the ID under the "ID" column name.
func (t *Table[T]) withID(row T, id ksid.ID) T {
	rec := row.MarshalRecord()
	fields := make(map[string]string, len(t.columns))
	for i, c := range t.columns {
		if i < len(rec) {
			fields[c] = rec[i]
		}
	}
	fields["ID"] = id.String()
	out, err := t.decode(fields)
	if err != nil {
		// The record came from MarshalRecord; re-decoding cannot fail.
		return row
	}
	return out
}

// persistLocked rewrites the whole backing file. Callers must hold mu.
func (t *Table[T]) persistLocked() error {
	tmp := t.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	w := csv.NewWriter(f)
	err = t.writeRowsLocked(w)
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, t.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace table file: %w", err)
	}
	return nil
}

func (t *Table[T]) writeRowsLocked(w *csv.Writer) error {
	header := make([]string, 0, len(t.columns)+len(t.extraCols))
	header = append(header, t.columns...)
	header = append(header, t.extraCols...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range t.rows {
		rec := row.MarshalRecord()
		if len(rec) != len(t.columns) {
			return fmt.Errorf("row %s encoded %d fields, want %d", row.GetID(), len(rec), len(t.columns))
		}
		extra := t.extras[row.GetID()]
		for i := range t.extraCols {
			if i < len(extra) {
				rec = append(rec, extra[i])
			} else {
				rec = append(rec, "")
			}
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteCSV writes the current table contents as CSV to w.
func (t *Table[T]) WriteCSV(out io.Writer) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.writeRowsLocked(csv.NewWriter(out))
}

// Path returns the backing file path.
func (t *Table[T]) Path() string {
	return t.path
}

// Len returns the number of rows.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Get returns a clone of the row with the given ID, or the zero value if
// not found.
func (t *Table[T]) Get(id ksid.ID) T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	i, ok := t.byID[id]
	if !ok {
		var zero T
		return zero
	}
	return t.rows[i].Clone()
}

// All returns an iterator over clones of all rows in insertion order.
func (t *Table[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()
		for _, row := range t.rows {
			if !yield(row.Clone()) {
				return
			}
		}
	}
}

// Append adds a new row to the table and persists the whole file.
func (t *Table[T]) Append(row T) error {
	return t.AppendBatch([]T{row})
}

// AppendBatch adds rows to the table with a single persist for the whole
// batch.
func (t *Table[T]) AppendBatch(rows []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[ksid.ID]bool, len(rows))
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return err
		}
		id := row.GetID()
		if id.IsZero() {
			return errZeroID
		}
		if _, ok := t.byID[id]; ok || seen[id] {
			return fmt.Errorf("%w: %s", errDuplicateID, id)
		}
		seen[id] = true
	}

	prevLen := len(t.rows)
	for _, row := range rows {
		t.byID[row.GetID()] = len(t.rows)
		t.rows = append(t.rows, row)
	}
	if err := t.persistLocked(); err != nil {
		// Roll back the in-memory state.
		for _, row := range t.rows[prevLen:] {
			delete(t.byID, row.GetID())
		}
		t.rows = t.rows[:prevLen]
		return err
	}
	for _, row := range rows {
		for _, o := range t.observers {
			o.OnAppend(row.Clone())
		}
	}
	return nil
}

// Update replaces the row with the same ID and persists the whole file.
// Returns a clone of the previous row, or the zero value if no row with that
// ID exists (in which case nothing is written).
func (t *Table[T]) Update(row T) (T, error) {
	var zero T
	if err := row.Validate(); err != nil {
		return zero, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byID[row.GetID()]
	if !ok {
		return zero, nil
	}
	prev := t.rows[i]
	t.rows[i] = row
	if err := t.persistLocked(); err != nil {
		t.rows[i] = prev
		return zero, err
	}
	for _, o := range t.observers {
		o.OnUpdate(prev.Clone(), row.Clone())
	}
	return prev.Clone(), nil
}

// Delete removes the row with the given ID and persists the whole file.
// Returns false if no row with that ID exists.
func (t *Table[T]) Delete(id ksid.ID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.byID[id]
	if !ok {
		return false, nil
	}
	removed := t.rows[i]
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	delete(t.byID, id)
	for j := i; j < len(t.rows); j++ {
		t.byID[t.rows[j].GetID()] = j
	}
	if err := t.persistLocked(); err != nil {
		// Reload from the rewritten-or-not file to get back to a
		// consistent state.
		t.rows = append(t.rows[:i:i], append([]T{removed}, t.rows[i:]...)...)
		t.byID[id] = i
		for j := i; j < len(t.rows); j++ {
			t.byID[t.rows[j].GetID()] = j
		}
		return false, err
	}
	delete(t.extras, id)
	for _, o := range t.observers {
		o.OnDelete(removed.Clone())
	}
	return true, nil
}

// Replace replaces all rows with the provided slice and persists it.
func (t *Table[T]) Replace(rows []T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	byID := make(map[ksid.ID]int, len(rows))
	for i, row := range rows {
		if err := row.Validate(); err != nil {
			return err
		}
		id := row.GetID()
		if id.IsZero() {
			return errZeroID
		}
		if _, ok := byID[id]; ok {
			return fmt.Errorf("%w: %s", errDuplicateID, id)
		}
		byID[id] = i
	}

	oldRows, oldByID := t.rows, t.byID
	t.rows, t.byID = rows, byID
	if err := t.persistLocked(); err != nil {
		t.rows, t.byID = oldRows, oldByID
		return err
	}
	for _, row := range oldRows {
		for _, o := range t.observers {
			o.OnDelete(row.Clone())
		}
	}
	for _, row := range rows {
		for _, o := range t.observers {
			o.OnAppend(row.Clone())
		}
	}
	return nil
}

// AddObserver registers an observer and replays OnAppend for all existing
// rows so indexes built after load see the full table.
func (t *Table[T]) AddObserver(o TableObserver[T]) {
	t.mu.Lock()
	t.observers = append(t.observers, o)
	rows := make([]T, len(t.rows))
	for i, row := range t.rows {
		rows[i] = row.Clone()
	}
	t.mu.Unlock()
	for _, row := range rows {
		o.OnAppend(row)
	}
}
