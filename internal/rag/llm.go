package rag

import "context"

// Embedder turns text into vectors of a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch preserves order and returns one vector per input.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// Completer turns a prompt into a text completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorIndex persists records and answers similarity queries.
type VectorIndex interface {
	// UpsertCollection writes records into the named collection. With recreate the
	// collection is dropped and rebuilt from records in one step.
	UpsertCollection(ctx context.Context, name string, records []IndexedRecord, recreate bool) error
	SimilaritySearch(ctx context.Context, name string, query []float32, k int) (RetrievalResult, error)
	Count(ctx context.Context, name string) (int, error)
}
