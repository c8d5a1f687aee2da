package cmd

import (
	"testing"

	"github.com/chrys/docquery/internal/ragengine"
)

func TestQuerySucceeded(t *testing.T) {
	answered := &ragengine.QueryResult{Response: "Alpha revenue is $5M"}
	if !querySucceeded(answered) {
		t.Error("a real answer should count as success")
	}

	// An empty project is a designed outcome, not a failure.
	empty := &ragengine.QueryResult{Response: ragengine.NoDocumentsResponse}
	if !querySucceeded(empty) {
		t.Error("the no-documents answer should count as success")
	}

	degraded := &ragengine.QueryResult{Response: ragengine.FallbackResponse}
	if querySucceeded(degraded) {
		t.Error("the fallback answer should count as failure")
	}
}
