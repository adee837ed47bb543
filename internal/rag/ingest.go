package rag

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/google/uuid"
)

// recordNamespace scopes deterministic record IDs.
var recordNamespace = uuid.MustParse("5b0b6f4e-3c1a-4d7e-9a61-2f8c0e7d4b19")

// Ingestor loads a document into one vector collection.
type Ingestor struct {
	chunker    *Chunker
	embedder   Embedder
	index      VectorIndex
	collection string
}

func NewIngestor(chunker *Chunker, embedder Embedder, index VectorIndex, collection string) *Ingestor {
	return &Ingestor{
		chunker:    chunker,
		embedder:   embedder,
		index:      index,
		collection: collection,
	}
}

// RecordID is stable for a collection, source and sequence index: re-ingesting
// the same document writes the same IDs, another document gets its own.
func RecordID(collection, source string, seq int) string {
	return uuid.NewSHA1(recordNamespace, []byte(collection+"#"+source+"#"+strconv.Itoa(seq))).String()
}

// Ingest splits, embeds and stores doc. With recreate the collection is
// rebuilt from scratch. Any failure aborts the run.
func (in *Ingestor) Ingest(ctx context.Context, doc Document, recreate bool) (IngestReport, error) {
	report := IngestReport{
		Collection:     in.collection,
		Pages:          len(doc.Pages),
		EmbeddingModel: in.embedder.ModelName(),
	}

	chunks := in.chunker.Split(doc)
	report.Chunks = len(chunks)
	log.Printf("document split into %d chunks (%d pages)", len(chunks), len(doc.Pages))
	if len(chunks) == 0 {
		log.Printf("warning: no text extracted from %s, 0 chunks processed", doc.Source)
	}

	var vectors [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		var err error
		vectors, err = in.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return report, in.incomplete(fmt.Errorf("embed chunks: %w", err))
		}
		if len(vectors) != len(chunks) {
			return report, in.incomplete(fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks)))
		}
	}

	records := make([]IndexedRecord, len(chunks))
	for i, c := range chunks {
		records[i] = IndexedRecord{
			ID:        RecordID(in.collection, doc.Source, c.SequenceIndex),
			Embedding: vectors[i],
			Text:      c.Text,
			Metadata: RecordMetadata{
				Source:         doc.Source,
				SourcePage:     c.SourcePage,
				SequenceIndex:  c.SequenceIndex,
				EmbeddingModel: report.EmbeddingModel,
			},
		}
	}

	if err := in.index.UpsertCollection(ctx, in.collection, records, recreate); err != nil {
		return report, in.incomplete(fmt.Errorf("store chunks: %w", err))
	}

	stored, err := in.index.Count(ctx, in.collection)
	if err != nil {
		return report, in.incomplete(fmt.Errorf("count stored chunks: %w", err))
	}
	report.Stored = stored

	log.Printf("ingestion finished: %d chunks stored in collection %q", stored, in.collection)
	return report, nil
}

func (in *Ingestor) incomplete(err error) error {
	log.Printf("ingestion incomplete for collection %q: %v", in.collection, err)
	return err
}
