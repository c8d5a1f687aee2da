// Package embeddings provides the embedding-service collaborators used
// by the document index. Dimensionality is provider-determined and
// stable for a given provider/model pair; the index enforces agreement.
package embeddings

import "context"

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates one embedding vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the expected vector length for this model.
	Dimensions() int

	// Name returns the provider/model identifier.
	Name() string
}
