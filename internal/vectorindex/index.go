// Package vectorindex implements a flat, identifier-mapped vector index
// with exact nearest-neighbor search. Vectors carry an explicit int64 id
// that is stable across rebuilds; physical position is never exposed.
package vectorindex

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrDimensionMismatch is returned when a vector's length disagrees with
// the dimension established by the first insertion.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Entry pairs a document id with its embedding vector.
type Entry struct {
	ID     int64
	Vector []float32
}

// Hit is a single search result: the stored id and its squared Euclidean
// distance to the query vector. Lower is closer.
type Hit struct {
	ID       int64
	Distance float32
}

// Flat is a brute-force vector index. Search cost is O(n*d) per query,
// which is the intended trade-off for small per-project corpora.
//
// Flat is not safe for concurrent use; callers serialize access.
type Flat struct {
	dim     int
	ids     []int64
	vectors [][]float32
}

// New returns an empty index. The dimension is established by the first
// Insert or Rebuild.
func New() *Flat {
	return &Flat{}
}

// Count returns the number of stored vectors.
func (f *Flat) Count() int {
	return len(f.ids)
}

// Dimensions returns the established vector dimension, or 0 if the index
// is empty and no dimension has been established yet.
func (f *Flat) Dimensions() int {
	return f.dim
}

// IDs returns the stored ids in insertion order.
func (f *Flat) IDs() []int64 {
	out := make([]int64, len(f.ids))
	copy(out, f.ids)
	return out
}

// Insert appends a vector tagged with the given id. The first insertion
// into an empty index establishes the dimension; later insertions must
// match it exactly or ErrDimensionMismatch is returned.
func (f *Flat) Insert(id int64, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("insert id %d: empty vector", id)
	}
	if f.dim == 0 {
		f.dim = len(vector)
	} else if len(vector) != f.dim {
		return fmt.Errorf("insert id %d: got %d dimensions, index has %d: %w",
			id, len(vector), f.dim, ErrDimensionMismatch)
	}

	stored := make([]float32, len(vector))
	copy(stored, vector)
	f.ids = append(f.ids, id)
	f.vectors = append(f.vectors, stored)
	return nil
}

// RemoveLast undoes the most recent Insert if it stored the given id,
// and reports whether it did. It is not general removal, which needs a
// Rebuild; it only lets a caller abort a half-committed insertion.
func (f *Flat) RemoveLast(id int64) bool {
	n := len(f.ids)
	if n == 0 || f.ids[n-1] != id {
		return false
	}
	f.ids = f.ids[:n-1]
	f.vectors = f.vectors[:n-1]
	if n == 1 {
		f.dim = 0
	}
	return true
}

// Search returns the min(k, Count) stored vectors closest to query by
// squared Euclidean distance, ascending. Ties are broken by insertion
// order, earlier insertion first, so results are deterministic. An empty
// index yields an empty result, not an error.
func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(f.ids) == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("search: query has %d dimensions, index has %d: %w",
			len(query), f.dim, ErrDimensionMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]Hit, len(f.ids))
	for i, vec := range f.vectors {
		hits[i] = Hit{ID: f.ids[i], Distance: squaredDistance(query, vec)}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Rebuild replaces the whole index from the given entries. All entries
// must share one dimension. On error the index is left untouched, so a
// caller can stage a rebuild and only commit when it succeeds.
func (f *Flat) Rebuild(entries []Entry) error {
	dim := 0
	ids := make([]int64, 0, len(entries))
	vectors := make([][]float32, 0, len(entries))

	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("rebuild id %d: empty vector", e.ID)
		}
		if dim == 0 {
			dim = len(e.Vector)
		} else if len(e.Vector) != dim {
			return fmt.Errorf("rebuild id %d: got %d dimensions, want %d: %w",
				e.ID, len(e.Vector), dim, ErrDimensionMismatch)
		}
		stored := make([]float32, len(e.Vector))
		copy(stored, e.Vector)
		ids = append(ids, e.ID)
		vectors = append(vectors, stored)
	}

	f.dim = dim
	f.ids = ids
	f.vectors = vectors
	return nil
}

// Reset discards all vectors and the established dimension.
func (f *Flat) Reset() {
	f.dim = 0
	f.ids = nil
	f.vectors = nil
}

// flatFile is the on-disk representation. The id slice keeps vectors
// tagged across save/load.
type flatFile struct {
	Dim     int
	IDs     []int64
	Vectors [][]float32
}

// Save writes the index to the given path. The write goes through a
// temporary file and a rename, so a crash never leaves a torn index file.
func (f *Flat) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating index file: %w", err)
	}

	err = gob.NewEncoder(file).Encode(flatFile{
		Dim:     f.dim,
		IDs:     f.ids,
		Vectors: f.vectors,
	})
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

// Load reads an index previously written by Save, replacing the current
// contents. The caller decides how to treat a missing file.
func (f *Flat) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var data flatFile
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return fmt.Errorf("decoding index %s: %w", path, err)
	}
	if len(data.IDs) != len(data.Vectors) {
		return fmt.Errorf("decoding index %s: %d ids for %d vectors", path, len(data.IDs), len(data.Vectors))
	}
	for _, vec := range data.Vectors {
		if len(vec) != data.Dim {
			return fmt.Errorf("decoding index %s: vector dimension %d, want %d", path, len(vec), data.Dim)
		}
	}

	f.dim = data.Dim
	f.ids = data.IDs
	f.vectors = data.Vectors
	return nil
}

func squaredDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
