package csvdb

import (
	"testing"

	"github.com/maruel/ksid"
)

func TestUniqueIndex(t *testing.T) {
	t.Run("GetByKey", func(t *testing.T) {
		tbl := newTestTable(t)
		row := testRow{ID: ksid.NewID(), Name: "findme", Count: 1}
		if err := tbl.Append(row); err != nil {
			t.Fatal(err)
		}
		idx := NewUniqueIndex(tbl, func(r testRow) string { return r.Name })
		if got := idx.Get("findme"); got != row {
			t.Errorf("Get() = %+v, want %+v", got, row)
		}
		if got := idx.Get("absent"); !got.GetID().IsZero() {
			t.Errorf("Get(absent) = %+v, want zero", got)
		}
	})

	t.Run("FollowsUpdates", func(t *testing.T) {
		tbl := newTestTable(t)
		idx := NewUniqueIndex(tbl, func(r testRow) string { return r.Name })
		row := testRow{ID: ksid.NewID(), Name: "before"}
		if err := tbl.Append(row); err != nil {
			t.Fatal(err)
		}
		row.Name = "after"
		if _, err := tbl.Update(row); err != nil {
			t.Fatal(err)
		}
		if got := idx.Get("before"); !got.GetID().IsZero() {
			t.Errorf("Get(before) = %+v, want zero", got)
		}
		if got := idx.Get("after"); got.ID != row.ID {
			t.Errorf("Get(after) = %+v, want %+v", got, row)
		}
	})

	t.Run("FollowsDeletes", func(t *testing.T) {
		tbl := newTestTable(t)
		idx := NewUniqueIndex(tbl, func(r testRow) string { return r.Name })
		row := testRow{ID: ksid.NewID(), Name: "gone"}
		if err := tbl.Append(row); err != nil {
			t.Fatal(err)
		}
		if _, err := tbl.Delete(row.ID); err != nil {
			t.Fatal(err)
		}
		if got := idx.Get("gone"); !got.GetID().IsZero() {
			t.Errorf("Get() = %+v, want zero after delete", got)
		}
	})
}

func TestIndex(t *testing.T) {
	t.Run("IterInInsertionOrder", func(t *testing.T) {
		tbl := newTestTable(t)
		idx := NewIndex(tbl, func(r testRow) int { return r.Count })
		names := []string{"a", "b", "c"}
		for _, name := range names {
			if err := tbl.Append(testRow{ID: ksid.NewID(), Name: name, Count: 5}); err != nil {
				t.Fatal(err)
			}
		}
		if err := tbl.Append(testRow{ID: ksid.NewID(), Name: "other", Count: 6}); err != nil {
			t.Fatal(err)
		}
		var got []string
		for row := range idx.Iter(5) {
			got = append(got, row.Name)
		}
		if len(got) != len(names) {
			t.Fatalf("Iter() yielded %d rows, want %d", len(got), len(names))
		}
		for i := range names {
			if got[i] != names[i] {
				t.Errorf("Iter()[%d] = %q, want %q", i, got[i], names[i])
			}
		}
	})

	t.Run("Count", func(t *testing.T) {
		tbl := newTestTable(t)
		idx := NewIndex(tbl, func(r testRow) int { return r.Count })
		for range 3 {
			if err := tbl.Append(testRow{ID: ksid.NewID(), Name: "n", Count: 1}); err != nil {
				t.Fatal(err)
			}
		}
		if n := idx.Count(1); n != 3 {
			t.Errorf("Count(1) = %d, want 3", n)
		}
		if n := idx.Count(2); n != 0 {
			t.Errorf("Count(2) = %d, want 0", n)
		}
	})

	t.Run("KeyMigrationOnUpdate", func(t *testing.T) {
		tbl := newTestTable(t)
		idx := NewIndex(tbl, func(r testRow) int { return r.Count })
		row := testRow{ID: ksid.NewID(), Name: "m", Count: 1}
		if err := tbl.Append(row); err != nil {
			t.Fatal(err)
		}
		row.Count = 2
		if _, err := tbl.Update(row); err != nil {
			t.Fatal(err)
		}
		if n := idx.Count(1); n != 0 {
			t.Errorf("Count(1) = %d, want 0", n)
		}
		if n := idx.Count(2); n != 1 {
			t.Errorf("Count(2) = %d, want 1", n)
		}
	})
}
