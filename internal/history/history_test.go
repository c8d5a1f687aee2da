package history

import (
	"context"
	"testing"
	"time"

	"github.com/chrys/docquery/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:        "test-1",
		ProjectID: "local_20260101_120000_demo",
		Action:    ActionIngest,
		Document:  "doc1.txt",
		Detail:    "indexed from /tmp/doc1.txt",
		Success:   true,
	}

	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}

	if got.ProjectID != entry.ProjectID {
		t.Errorf("ProjectID = %q, want %q", got.ProjectID, entry.ProjectID)
	}
	if got.Action != ActionIngest {
		t.Errorf("Action = %q, want %q", got.Action, ActionIngest)
	}
	if got.Document != "doc1.txt" {
		t.Errorf("Document = %q, want %q", got.Document, "doc1.txt")
	}
	if got.Detail != entry.Detail {
		t.Errorf("Detail = %q, want %q", got.Detail, entry.Detail)
	}
	if !got.Success {
		t.Error("Success = false, want true")
	}
	if got.Timestamp.IsZero() {
		t.Error("Timestamp should be populated")
	}
}

func TestLogGeneratesUUID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{
		ProjectID: "proj-1",
		Action:    ActionQuery,
		Detail:    "what is the q3 revenue",
		Success:   true,
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{ProjectID: "proj-1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID, got empty string")
	}
}

func TestQueryFilterByProject(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, proj := range []string{"proj-a", "proj-b", "proj-a"} {
		if err := store.Log(ctx, Entry{
			ProjectID: proj,
			Action:    ActionIngest,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{ProjectID: "proj-a"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries for proj-a, got %d", len(entries))
	}
}

func TestQueryFilterByAction(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	actions := []Action{ActionIngest, ActionDelete, ActionIngest}
	for _, a := range actions {
		if err := store.Log(ctx, Entry{
			ProjectID: "proj-1",
			Action:    a,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{Action: ActionIngest})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 ingest entries, got %d", len(entries))
	}
}

func TestQueryFilterByDocument(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, doc := range []string{"a.txt", "b.txt"} {
		if err := store.Log(ctx, Entry{
			ProjectID: "proj-1",
			Action:    ActionIngest,
			Document:  doc,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{Document: "a.txt"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry for a.txt, got %d", len(entries))
	}
}

func TestQueryLimitOffset(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Log(ctx, Entry{
			ProjectID: "proj-1",
			Action:    ActionQuery,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	entries, err := store.Query(ctx, QueryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with limit, got %d", len(entries))
	}

	entries, err = store.Query(ctx, QueryFilter{Limit: 2, Offset: 3})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries with offset, got %d", len(entries))
	}
}

func TestFailureRecorded(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{
		ProjectID: "proj-1",
		Action:    ActionIngest,
		Document:  "broken.pdf",
		Detail:    "extracting text: unexpected EOF",
		Success:   false,
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{Document: "broken.pdf"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Success {
		t.Error("Success = true, want false")
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Log(ctx, Entry{
			ProjectID: "proj-1",
			Action:    ActionQuery,
			Success:   true,
		}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	// Delete entries before far in the future (should delete all).
	deleted, err := store.DeleteBefore(ctx, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 3 {
		t.Errorf("expected 3 deleted, got %d", deleted)
	}

	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 remaining entries, got %d", len(entries))
	}
}

func TestGetByIDNotFound(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if err == nil {
		t.Error("expected error for nonexistent ID, got nil")
	}
}
