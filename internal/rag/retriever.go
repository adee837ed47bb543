package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
)

const DefaultTopK = 10

// Retriever embeds a question and looks up the nearest chunks of one collection.
type Retriever struct {
	embedder   Embedder
	index      VectorIndex
	collection string
	topK       int
	verbose    bool
}

func NewRetriever(embedder Embedder, index VectorIndex, collection string, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder:   embedder,
		index:      index,
		collection: collection,
		topK:       topK,
	}
}

// SetVerbose logs every retrieved passage score.
func (r *Retriever) SetVerbose(v bool) { r.verbose = v }

// Retrieve returns at most k passages ranked by similarity. An empty collection
// yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (RetrievalResult, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}
	if k <= 0 {
		k = r.topK
	}

	vec, err := r.embedder.Embed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	res, err := r.index.SimilaritySearch(ctx, r.collection, vec, k)
	if err != nil {
		return nil, err
	}
	if len(res) > k {
		res = res[:k]
	}
	// Vectors from different models are not comparable even at equal dimension.
	model := r.embedder.ModelName()
	for _, p := range res {
		if m := p.Metadata.EmbeddingModel; m != "" && m != model {
			return nil, &StorageError{
				Kind:       StorageModelMismatch,
				Collection: r.collection,
				Err:        fmt.Errorf("collection was embedded with %s, question embedded with %s", m, model),
			}
		}
	}

	if r.verbose {
		for i, p := range res {
			log.Printf("[DEBUG] passage %d score=%.4f page=%d seq=%d", i, p.Score, p.Metadata.SourcePage, p.Metadata.SequenceIndex)
		}
	}
	return res, nil
}
