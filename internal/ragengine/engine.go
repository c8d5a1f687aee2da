// Package ragengine implements the per-project document index: text
// extraction, embedding, exact similarity search, grounded answer
// generation, and deletion with index/metadata consistency.
package ragengine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chrys/docquery/internal/embeddings"
	"github.com/chrys/docquery/internal/extract"
	"github.com/chrys/docquery/internal/llm"
	"github.com/chrys/docquery/internal/vectorindex"
)

const (
	indexFileName    = "index.gob"
	metadataFileName = "metadata.json"

	// NoDocumentsResponse is returned by Query when the project holds no
	// indexed documents. The completion service is never called in that case.
	NoDocumentsResponse = "I don't have any indexed documents to answer this question. Please upload documents first."

	// FallbackResponse is returned by Query when answering fails
	// internally (embedding or completion unavailable). Query never
	// surfaces an error to its caller.
	FallbackResponse = "Sorry, I cannot answer this question right now. Please try again later."

	defaultEmbedTimeout    = 60 * time.Second
	defaultCompleteTimeout = 120 * time.Second

	// maxContextPerDocument caps how much of each document's text is
	// included in the completion prompt.
	maxContextPerDocument = 8000
)

var (
	// ErrNotFound indicates a deletion target that is not in the ledger.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateName indicates an ingestion under a name that is
	// already indexed. Names stay unique so deletion is deterministic.
	ErrDuplicateName = errors.New("document name already indexed")

	// ErrEmptyDocument indicates extraction produced no text; nothing
	// was indexed.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// Source identifies one retrieved document in a query result. Score is a
// squared Euclidean distance: lower means more relevant.
type Source struct {
	DocumentName string  `json:"document_name"`
	Score        float32 `json:"score"`
}

// QueryResult is the answer to a query plus the documents it drew on,
// closest first.
type QueryResult struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
}

// Info describes the state of a project's index.
type Info struct {
	ProjectID     string `json:"project_id"`
	DocumentCount int    `json:"document_count"`
	DataDir       string `json:"data_dir"`
}

// Engine owns one project's vector index and metadata ledger. Queries may
// run concurrently; mutations are exclusive, because a rebuild temporarily
// invalidates the id-to-position mapping.
type Engine struct {
	mu sync.RWMutex

	projectID string
	dir       string
	index     *vectorindex.Flat
	ledger    *Ledger

	embedder embeddings.Embedder
	provider llm.Provider

	systemPrompt    string
	embedTimeout    time.Duration
	completeTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithSystemPrompt sets a custom system message used during answer
// generation.
func WithSystemPrompt(prompt string) Option {
	return func(e *Engine) { e.systemPrompt = prompt }
}

// WithTimeouts bounds the embedding and completion calls. Zero values
// keep the defaults.
func WithTimeouts(embed, complete time.Duration) Option {
	return func(e *Engine) {
		if embed > 0 {
			e.embedTimeout = embed
		}
		if complete > 0 {
			e.completeTimeout = complete
		}
	}
}

// NewEngine opens (or creates) the index for the given project directory
// and loads persisted state. A corrupt index or ledger file degrades to an
// empty store with a logged warning rather than refusing to start. If the
// loaded index and ledger disagree on document count, the index is rebuilt
// from the ledger's raw text.
func NewEngine(projectID, dir string, embedder embeddings.Embedder, provider llm.Provider, opts ...Option) (*Engine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}

	e := &Engine{
		projectID:       projectID,
		dir:             dir,
		index:           vectorindex.New(),
		embedder:        embedder,
		provider:        provider,
		embedTimeout:    defaultEmbedTimeout,
		completeTimeout: defaultCompleteTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	ledger, err := LoadLedger(filepath.Join(dir, metadataFileName))
	if err != nil {
		log.Printf("warning: project %s: %v; starting with empty metadata", projectID, err)
		ledger = &Ledger{path: filepath.Join(dir, metadataFileName), records: make(map[int64]Record)}
	}
	e.ledger = ledger

	if err := e.index.Load(filepath.Join(dir, indexFileName)); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: project %s: %v; starting with empty index", projectID, err)
		e.index.Reset()
	}

	if e.index.Count() != e.ledger.Len() {
		log.Printf("warning: project %s: index has %d vectors but metadata has %d records; rebuilding index from metadata",
			projectID, e.index.Count(), e.ledger.Len())
		if err := e.rebuildFromLedger(context.Background(), e.ledger.IDs()); err != nil {
			return nil, fmt.Errorf("recovering index for project %s: %w", projectID, err)
		}
	}

	return e, nil
}

// IndexDocument extracts, embeds, and stores the file at filePath under
// documentName. On success both the index and the ledger are persisted.
// On failure at any step the in-memory insertion is rolled back, so no
// partial record is observable and the same name can be re-ingested.
// A dimension mismatch against a non-empty index means the embedding
// model changed; the whole project store is reset to empty, because old
// vectors are no longer comparable.
func (e *Engine) IndexDocument(ctx context.Context, filePath, documentName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ledger.HasName(documentName) {
		return fmt.Errorf("%q: %w", documentName, ErrDuplicateName)
	}

	text, err := extract.Text(filePath)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%q: %w", documentName, ErrEmptyDocument)
	}

	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embedding %q: %w", documentName, err)
	}

	if dims := e.index.Dimensions(); dims != 0 && len(vectors[0]) != dims {
		return e.resetAfterDimensionChange(fmt.Errorf("%q: got %d dimensions, index has %d: %w",
			documentName, len(vectors[0]), dims, vectorindex.ErrDimensionMismatch))
	}

	id := e.ledger.NextID()
	if err := e.index.Insert(id, vectors[0]); err != nil {
		return err
	}

	rec := Record{
		DocumentName: documentName,
		FilePath:     filePath,
		IndexedAt:    time.Now().UTC(),
		ProjectID:    e.projectID,
		RawText:      text,
	}
	e.ledger.SetDim(e.index.Dimensions())
	if err := e.ledger.Put(id, rec); err != nil {
		e.index.RemoveLast(id)
		e.ledger.SetDim(e.index.Dimensions())
		return fmt.Errorf("persisting metadata for %q: %w", documentName, err)
	}
	if err := e.index.Save(filepath.Join(e.dir, indexFileName)); err != nil {
		e.index.RemoveLast(id)
		e.ledger.SetDim(e.index.Dimensions())
		if derr := e.ledger.Delete(id); derr != nil {
			log.Printf("project %s: rolling back metadata for %q: %v", e.projectID, documentName, derr)
		}
		return fmt.Errorf("persisting index: %w", err)
	}
	return nil
}

// resetAfterDimensionChange discards the entire project store. This is a
// deliberately destructive recovery: a dimension change means the
// embedding model changed, and mixing incomparable vectors would corrupt
// every search result.
func (e *Engine) resetAfterDimensionChange(cause error) error {
	log.Printf("project %s: %v; resetting index and metadata", e.projectID, cause)

	e.index.Reset()
	if err := e.ledger.Reset(); err != nil {
		return fmt.Errorf("resetting metadata after dimension change: %w", err)
	}
	if err := e.index.Save(filepath.Join(e.dir, indexFileName)); err != nil {
		return fmt.Errorf("persisting reset index: %w", err)
	}
	return fmt.Errorf("embedding dimension changed, project index was reset: %w", cause)
}

// Query answers queryText from the indexed documents. It never returns an
// error: an empty index yields NoDocumentsResponse, and internal failures
// are logged and yield FallbackResponse. Sources are ordered closest
// first; Score is a distance, not a similarity.
func (e *Engine) Query(ctx context.Context, queryText string, topK int) *QueryResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.index.Count() == 0 {
		return &QueryResult{Response: NoDocumentsResponse, Sources: []Source{}}
	}

	result, err := e.answer(ctx, queryText, topK)
	if err != nil {
		log.Printf("project %s: query failed: %v", e.projectID, err)
		return &QueryResult{Response: FallbackResponse, Sources: []Source{}}
	}
	return result
}

func (e *Engine) answer(ctx context.Context, queryText string, topK int) (*QueryResult, error) {
	if topK <= 0 {
		topK = 3
	}

	vectors, err := e.embed(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := e.index.Search(vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	sources := make([]Source, 0, len(hits))
	var contextText strings.Builder
	for _, hit := range hits {
		rec, ok := e.ledger.Get(hit.ID)
		if !ok {
			return nil, fmt.Errorf("index returned id %d with no metadata record", hit.ID)
		}
		sources = append(sources, Source{DocumentName: rec.DocumentName, Score: hit.Distance})
		contextText.WriteString("\n---\nDocument: ")
		contextText.WriteString(rec.DocumentName)
		contextText.WriteString("\n")
		contextText.WriteString(truncate(rec.RawText, maxContextPerDocument))
		contextText.WriteString("\n")
	}

	prompt := fmt.Sprintf("Based on the following documents, answer this question: %s\n\nDocuments:%s",
		queryText, contextText.String())

	messages := []llm.Message{}
	if e.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: e.systemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	completeCtx, cancel := context.WithTimeout(ctx, e.completeTimeout)
	defer cancel()
	resp, err := e.provider.Complete(completeCtx, llm.CompletionRequest{Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &QueryResult{Response: resp.Content, Sources: sources}, nil
}

// DeleteDocument removes the named document. The index does not support
// in-place removal without stale internal state, so the surviving
// documents are re-embedded into a fresh index which replaces the old one
// only after the rebuild succeeds and the metadata deletion is durable.
// A failure before that point leaves both stores untouched.
func (e *Engine) DeleteDocument(ctx context.Context, documentName string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.ledger.FindByName(documentName)
	if !ok {
		return fmt.Errorf("%q: %w", documentName, ErrNotFound)
	}

	survivors := make([]int64, 0, e.ledger.Len()-1)
	for _, other := range e.ledger.IDs() {
		if other != id {
			survivors = append(survivors, other)
		}
	}

	fresh, err := e.stageRebuild(ctx, survivors)
	if err != nil {
		return fmt.Errorf("rebuilding index after deleting %q: %w", documentName, err)
	}

	if err := e.ledger.Delete(id); err != nil {
		return fmt.Errorf("persisting metadata after deleting %q: %w", documentName, err)
	}
	e.index = fresh
	e.ledger.SetDim(fresh.Dimensions())
	if err := e.index.Save(filepath.Join(e.dir, indexFileName)); err != nil {
		return fmt.Errorf("persisting index after deleting %q: %w", documentName, err)
	}
	return nil
}

// stageRebuild re-embeds the given ledger entries into a fresh index.
// The live index is untouched; the caller swaps the fresh one in once
// the accompanying ledger change is durable.
func (e *Engine) stageRebuild(ctx context.Context, ids []int64) (*vectorindex.Flat, error) {
	fresh := vectorindex.New()

	if len(ids) > 0 {
		texts := make([]string, len(ids))
		for i, id := range ids {
			rec, ok := e.ledger.Get(id)
			if !ok {
				return nil, fmt.Errorf("ledger record %d disappeared during rebuild", id)
			}
			texts[i] = rec.RawText
		}

		vectors, err := e.embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("re-embedding %d documents: %w", len(ids), err)
		}

		entries := make([]vectorindex.Entry, len(ids))
		for i, id := range ids {
			entries[i] = vectorindex.Entry{ID: id, Vector: vectors[i]}
		}
		if err := fresh.Rebuild(entries); err != nil {
			return nil, err
		}
	}

	return fresh, nil
}

// rebuildFromLedger is the load-time recovery path: rebuild and persist
// the index so it matches the ledger again.
func (e *Engine) rebuildFromLedger(ctx context.Context, ids []int64) error {
	fresh, err := e.stageRebuild(ctx, ids)
	if err != nil {
		return err
	}
	e.index = fresh
	e.ledger.SetDim(fresh.Dimensions())
	return e.index.Save(filepath.Join(e.dir, indexFileName))
}

// CollectionInfo reports the project's indexed document count.
func (e *Engine) CollectionInfo() Info {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Info{
		ProjectID:     e.projectID,
		DocumentCount: e.index.Count(),
		DataDir:       e.dir,
	}
}

// DocumentNames returns the indexed document names in ingestion order.
func (e *Engine) DocumentNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Names()
}

// Clear empties the project's index and metadata and persists both.
func (e *Engine) Clear() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.index.Reset()
	if err := e.ledger.Reset(); err != nil {
		return fmt.Errorf("clearing metadata: %w", err)
	}
	if err := e.index.Save(filepath.Join(e.dir, indexFileName)); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}
	return nil
}

func (e *Engine) embed(ctx context.Context, texts []string) ([][]float32, error) {
	embedCtx, cancel := context.WithTimeout(ctx, e.embedTimeout)
	defer cancel()

	vectors, err := e.embedder.Embed(embedCtx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// truncate caps s at max bytes, backing off to a rune boundary so the
// cut never splits a multi-byte character.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
