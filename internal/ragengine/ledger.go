package ragengine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// Record holds the per-document metadata kept alongside the vector index.
// RawText is retained so deletion can re-embed surviving documents without
// re-reading the original files.
type Record struct {
	DocumentName string
	FilePath     string
	IndexedAt    time.Time
	ProjectID    string
	RawText      string
}

// Ledger is the durable document_id -> Record mapping for one project.
// Every mutation is written through to the sidecar file immediately;
// mutation frequency is bounded by human upload/delete actions, so
// durability wins over write throughput.
//
// Ledger is not safe for concurrent use; the Engine serializes access.
type Ledger struct {
	path    string
	records map[int64]Record
	nextID  int64
	dim     int
}

// recordMeta is the sidecar representation of a Record minus its text.
type recordMeta struct {
	DocumentName string `json:"document_name"`
	FilePath     string `json:"file_path"`
	IndexedAt    string `json:"indexed_at"`
	ProjectID    string `json:"project_id"`
}

// ledgerFile is the JSON sidecar layout. Document ids are serialized as
// strings because JSON object keys cannot be integers.
type ledgerFile struct {
	Metadata     map[string]recordMeta `json:"metadata"`
	Documents    map[string]string     `json:"documents"`
	EmbeddingDim int                   `json:"embedding_dim"`
	IDCounter    int64                 `json:"id_counter"`
}

// LoadLedger reads the sidecar at path, or returns an empty ledger if the
// file does not exist. A missing id counter is reconstructed as
// max(existing ids)+1 so monotonic id assignment survives a crash that
// lost the counter but not the records.
func LoadLedger(path string) (*Ledger, error) {
	l := &Ledger{
		path:    path,
		records: make(map[int64]Record),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}

	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing metadata %s: %w", path, err)
	}

	for key, meta := range file.Metadata {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing metadata %s: bad document id %q", path, key)
		}
		indexedAt, _ := time.Parse(time.RFC3339, meta.IndexedAt)
		l.records[id] = Record{
			DocumentName: meta.DocumentName,
			FilePath:     meta.FilePath,
			IndexedAt:    indexedAt,
			ProjectID:    meta.ProjectID,
			RawText:      file.Documents[key],
		}
	}

	l.dim = file.EmbeddingDim
	l.nextID = file.IDCounter
	if l.nextID == 0 {
		for id := range l.records {
			if id+1 > l.nextID {
				l.nextID = id + 1
			}
		}
	}

	return l, nil
}

// NextID returns the id the next Put should use. The counter only
// advances when the record is actually stored.
func (l *Ledger) NextID() int64 {
	return l.nextID
}

// Dim returns the embedding dimension recorded in the sidecar.
func (l *Ledger) Dim() int {
	return l.dim
}

// SetDim records the embedding dimension. Persisted on the next mutation.
func (l *Ledger) SetDim(dim int) {
	l.dim = dim
}

// Put stores a record under the given id and persists the ledger. The id
// counter advances past id so ids are never reused, even after deletion.
// A failed write rolls the in-memory state back, so the record only
// becomes visible once it is durable.
func (l *Ledger) Put(id int64, rec Record) error {
	prev, existed := l.records[id]
	prevNext := l.nextID

	l.records[id] = rec
	if id+1 > l.nextID {
		l.nextID = id + 1
	}
	if err := l.save(); err != nil {
		if existed {
			l.records[id] = prev
		} else {
			delete(l.records, id)
		}
		l.nextID = prevNext
		return err
	}
	return nil
}

// Get returns the record for the given id.
func (l *Ledger) Get(id int64) (Record, bool) {
	rec, ok := l.records[id]
	return rec, ok
}

// Delete removes the record for the given id and persists the ledger.
// A failed write rolls the in-memory state back, so the record stays
// visible until its removal is durable.
func (l *Ledger) Delete(id int64) error {
	prev, existed := l.records[id]
	delete(l.records, id)
	if err := l.save(); err != nil {
		if existed {
			l.records[id] = prev
		}
		return err
	}
	return nil
}

// Len returns the number of stored records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// IDs returns all document ids in ascending order.
func (l *Ledger) IDs() []int64 {
	ids := make([]int64, 0, len(l.records))
	for id := range l.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Names returns all document names in id order.
func (l *Ledger) Names() []string {
	ids := l.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = l.records[id].DocumentName
	}
	return names
}

// FindByName resolves a document name to its id. With duplicate names
// rejected at ingestion, at most one record can match.
func (l *Ledger) FindByName(name string) (int64, bool) {
	for _, id := range l.IDs() {
		if l.records[id].DocumentName == name {
			return id, true
		}
	}
	return 0, false
}

// HasName reports whether any record carries the given document name.
func (l *Ledger) HasName(name string) bool {
	_, ok := l.FindByName(name)
	return ok
}

// Reset discards all records and the recorded dimension, then persists.
// The id counter is kept so ids stay monotonic across resets.
func (l *Ledger) Reset() error {
	l.records = make(map[int64]Record)
	l.dim = 0
	return l.save()
}

func (l *Ledger) save() error {
	file := ledgerFile{
		Metadata:     make(map[string]recordMeta, len(l.records)),
		Documents:    make(map[string]string, len(l.records)),
		EmbeddingDim: l.dim,
		IDCounter:    l.nextID,
	}
	for id, rec := range l.records {
		key := strconv.FormatInt(id, 10)
		file.Metadata[key] = recordMeta{
			DocumentName: rec.DocumentName,
			FilePath:     rec.FilePath,
			IndexedAt:    rec.IndexedAt.UTC().Format(time.RFC3339),
			ProjectID:    rec.ProjectID,
		}
		file.Documents[key] = rec.RawText
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing metadata file: %w", err)
	}
	return nil
}
