// Package history records docquery operations in a local SQLite store so
// users can review what was ingested, queried, or deleted and when.
package history

import "time"

// Action describes what was done.
type Action string

const (
	ActionIngest         Action = "ingest"
	ActionQuery          Action = "query"
	ActionDelete         Action = "delete"
	ActionReset          Action = "reset"
	ActionClear          Action = "clear"
	ActionProjectCreated Action = "project_created"
	ActionProjectDeleted Action = "project_deleted"
)

// Entry is a single operation history record.
type Entry struct {
	ID        string
	Timestamp time.Time
	ProjectID string
	Action    Action
	Document  string
	Detail    string
	Success   bool
}
