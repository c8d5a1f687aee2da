package vectorindex

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFlat_InsertEstablishesDimension(t *testing.T) {
	idx := New()

	if err := idx.Insert(1, []float32{1, 0, 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got := idx.Dimensions(); got != 3 {
		t.Errorf("Dimensions: got %d, want 3", got)
	}

	err := idx.Insert(2, []float32{1, 0})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Insert with wrong dimension: got %v, want ErrDimensionMismatch", err)
	}
	if got := idx.Count(); got != 1 {
		t.Errorf("Count after failed insert: got %d, want 1", got)
	}
}

func TestFlat_SearchOrdersByDistance(t *testing.T) {
	idx := New()
	vectors := map[int64][]float32{
		1: {0, 0},
		2: {3, 0},
		3: {1, 0},
	}
	for _, id := range []int64{1, 2, 3} {
		if err := idx.Insert(id, vectors[id]); err != nil {
			t.Fatalf("Insert %d: %v", id, err)
		}
	}

	hits, err := idx.Search([]float32{0.9, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("Search: got %d hits, want 3", len(hits))
	}

	wantOrder := []int64{3, 1, 2}
	for i, want := range wantOrder {
		if hits[i].ID != want {
			t.Errorf("hit %d: got id %d, want %d", i, hits[i].ID, want)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("hits not ascending: %v then %v", hits[i-1].Distance, hits[i].Distance)
		}
	}
}

func TestFlat_SearchTiesBreakByInsertionOrder(t *testing.T) {
	idx := New()
	// Two vectors equidistant from the query.
	if err := idx.Insert(7, []float32{1, 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Insert(9, []float32{-1, 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	hits, err := idx.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].ID != 7 || hits[1].ID != 9 {
		t.Errorf("tie break: got order [%d %d], want [7 9]", hits[0].ID, hits[1].ID)
	}
}

func TestFlat_SearchEmptyIndex(t *testing.T) {
	idx := New()
	hits, err := idx.Search([]float32{1, 2}, 5)
	if err != nil {
		t.Fatalf("Search on empty index: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Search on empty index: got %d hits, want 0", len(hits))
	}
}

func TestFlat_SearchClampsK(t *testing.T) {
	idx := New()
	if err := idx.Insert(1, []float32{1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	hits, err := idx.Search([]float32{0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("Search: got %d hits, want 1", len(hits))
	}
}

func TestFlat_RemoveLastUndoesInsert(t *testing.T) {
	idx := New()
	if err := idx.Insert(0, []float32{1, 0}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Insert(1, []float32{0, 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if idx.RemoveLast(0) {
		t.Error("RemoveLast(0): removed an id that was not the last insert")
	}
	if !idx.RemoveLast(1) {
		t.Error("RemoveLast(1): expected removal of the last insert")
	}
	if idx.Count() != 1 {
		t.Errorf("Count: got %d, want 1", idx.Count())
	}

	// Undoing the only insert leaves the dimension unestablished again.
	if !idx.RemoveLast(0) {
		t.Error("RemoveLast(0): expected removal of the last insert")
	}
	if idx.Dimensions() != 0 {
		t.Errorf("Dimensions after emptying: got %d, want 0", idx.Dimensions())
	}
	if idx.RemoveLast(0) {
		t.Error("RemoveLast on empty index: expected false")
	}
}

func TestFlat_RebuildReplacesContents(t *testing.T) {
	idx := New()
	for id := int64(1); id <= 3; id++ {
		if err := idx.Insert(id, []float32{float32(id), 0}); err != nil {
			t.Fatalf("Insert %d: %v", id, err)
		}
	}

	err := idx.Rebuild([]Entry{
		{ID: 1, Vector: []float32{1, 0}},
		{ID: 3, Vector: []float32{3, 0}},
	})
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	if got := idx.Count(); got != 2 {
		t.Errorf("Count after rebuild: got %d, want 2", got)
	}
	ids := idx.IDs()
	if ids[0] != 1 || ids[1] != 3 {
		t.Errorf("IDs after rebuild: got %v, want [1 3]", ids)
	}
}

func TestFlat_RebuildRejectsMixedDimensions(t *testing.T) {
	idx := New()
	if err := idx.Insert(1, []float32{1, 2}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	err := idx.Rebuild([]Entry{
		{ID: 1, Vector: []float32{1, 2}},
		{ID: 2, Vector: []float32{1, 2, 3}},
	})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("Rebuild: got %v, want ErrDimensionMismatch", err)
	}

	// Failed rebuild must leave the old contents in place.
	if got := idx.Count(); got != 1 {
		t.Errorf("Count after failed rebuild: got %d, want 1", got)
	}
}

func TestFlat_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.gob")

	idx := New()
	if err := idx.Insert(4, []float32{0.5, 0.25}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Insert(8, []float32{0.1, 0.9}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := New()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := loaded.Count(); got != 2 {
		t.Errorf("Count after load: got %d, want 2", got)
	}
	if got := loaded.Dimensions(); got != 2 {
		t.Errorf("Dimensions after load: got %d, want 2", got)
	}

	hits, err := loaded.Search([]float32{0.5, 0.25}, 1)
	if err != nil {
		t.Fatalf("Search after load: %v", err)
	}
	if hits[0].ID != 4 {
		t.Errorf("Search after load: got id %d, want 4", hits[0].ID)
	}
}

func TestFlat_LoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.gob")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	idx := New()
	if err := idx.Load(path); err == nil {
		t.Fatal("Load: expected error for corrupt file")
	}
}
