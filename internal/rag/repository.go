package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const schemaSQL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS rag_collection (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL UNIQUE,
	embedding_model TEXT NOT NULL DEFAULT '',
	dimension       INT NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rag_embedding (
	id            TEXT PRIMARY KEY,
	collection_id BIGINT NOT NULL REFERENCES rag_collection(id) ON DELETE CASCADE,
	embedding     vector NOT NULL,
	document      TEXT NOT NULL,
	cmetadata     JSONB
);

CREATE INDEX IF NOT EXISTS rag_embedding_collection_idx ON rag_embedding (collection_id);
`

// PgRepository stores collections in Postgres with pgvector.
type PgRepository struct {
	db *pgxpool.Pool
}

func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

// EnsureSchema creates the extension and tables when missing.
func (r *PgRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return classifyStorageErr("", err)
	}
	return nil
}

func (r *PgRepository) UpsertCollection(ctx context.Context, name string, records []IndexedRecord, recreate bool) error {
	dim, err := uniformDimension(records)
	if err != nil {
		return &StorageError{Kind: StorageDimensionMismatch, Collection: name, Err: err}
	}
	model := ""
	if len(records) > 0 {
		model = records[0].Metadata.EmbeddingModel
	}

	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return classifyStorageErr(name, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serializes writers of the same collection; recreate is destructive.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
		return classifyStorageErr(name, err)
	}

	if recreate {
		if _, err := tx.Exec(ctx, `DELETE FROM rag_collection WHERE name = $1`, name); err != nil {
			return classifyStorageErr(name, err)
		}
	}

	var (
		collID      int64
		storedDim   int
		storedModel string
	)
	err = tx.QueryRow(ctx, `
		SELECT id, dimension, embedding_model
		FROM rag_collection
		WHERE name = $1
	`, name).Scan(&collID, &storedDim, &storedModel)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `
			INSERT INTO rag_collection (name, embedding_model, dimension)
			VALUES ($1, $2, $3)
			RETURNING id
		`, name, model, dim).Scan(&collID)
		if err != nil {
			return classifyStorageErr(name, err)
		}
	case err != nil:
		return classifyStorageErr(name, err)
	default:
		if err := checkCompatible(name, storedDim, storedModel, dim, model); err != nil {
			return err
		}
		if (storedDim == 0 && dim > 0) || (storedModel == "" && model != "") {
			if _, err := tx.Exec(ctx, `
				UPDATE rag_collection
				SET dimension = GREATEST(dimension, $2), embedding_model = COALESCE(NULLIF(embedding_model, ''), $3)
				WHERE id = $1
			`, collID, dim, model); err != nil {
				return classifyStorageErr(name, err)
			}
		}
	}

	if len(records) > 0 {
		batch := &pgx.Batch{}
		for _, rec := range records {
			meta, err := json.Marshal(rec.Metadata)
			if err != nil {
				return fmt.Errorf("encode metadata for %s: %w", rec.ID, err)
			}
			batch.Queue(`
				INSERT INTO rag_embedding (id, collection_id, embedding, document, cmetadata)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE
				SET collection_id = EXCLUDED.collection_id,
					embedding = EXCLUDED.embedding,
					document = EXCLUDED.document,
					cmetadata = EXCLUDED.cmetadata
			`, rec.ID, collID, pgvector.NewVector(rec.Embedding), rec.Text, meta)
		}

		br := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return classifyStorageErr(name, err)
			}
		}
		if err := br.Close(); err != nil {
			return classifyStorageErr(name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyStorageErr(name, err)
	}
	return nil
}

// SimilaritySearch faz a busca vetorial por distância de cosseno; score = 1 - distância.
func (r *PgRepository) SimilaritySearch(ctx context.Context, name string, query []float32, k int) (RetrievalResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	var (
		collID int64
		dim    int
		model  string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, dimension, embedding_model FROM rag_collection WHERE name = $1
	`, name).Scan(&collID, &dim, &model)
	if err != nil {
		return nil, classifyStorageErr(name, err)
	}
	if dim > 0 && len(query) != dim {
		return nil, &StorageError{
			Kind:       StorageDimensionMismatch,
			Collection: name,
			Err:        fmt.Errorf("query vector has %d dimensions, collection has %d", len(query), dim),
		}
	}

	vec := pgvector.NewVector(query)

	rows, err := r.db.Query(ctx, `
		SELECT e.document, e.cmetadata, 1 - (e.embedding <=> $2) AS score
		FROM rag_embedding e
		WHERE e.collection_id = $1
		ORDER BY e.embedding <=> $2, e.id
		LIMIT $3
	`, collID, vec, k)
	if err != nil {
		return nil, classifyStorageErr(name, err)
	}
	defer rows.Close()

	res := RetrievalResult{}
	for rows.Next() {
		var (
			p    Passage
			meta []byte
		)
		if err := rows.Scan(&p.Text, &meta, &p.Score); err != nil {
			return nil, classifyStorageErr(name, err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &p.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		if p.Metadata.EmbeddingModel == "" {
			p.Metadata.EmbeddingModel = model
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyStorageErr(name, err)
	}
	return res, nil
}

func (r *PgRepository) Count(ctx context.Context, name string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
		SELECT count(e.id)
		FROM rag_collection c
		LEFT JOIN rag_embedding e ON e.collection_id = c.id
		WHERE c.name = $1
		GROUP BY c.id
	`, name).Scan(&n)
	if err != nil {
		return 0, classifyStorageErr(name, err)
	}
	return n, nil
}

// checkCompatible rejects writes whose vectors come from another embedding
// model or have another dimension than what the collection already holds.
// Zero values mean "not recorded yet".
func checkCompatible(collection string, storedDim int, storedModel string, dim int, model string) error {
	if storedDim > 0 && dim > 0 && storedDim != dim {
		return &StorageError{
			Kind:       StorageDimensionMismatch,
			Collection: collection,
			Err:        fmt.Errorf("collection holds %d-dimensional vectors (%s), got %d (%s)", storedDim, storedModel, dim, model),
		}
	}
	if storedModel != "" && model != "" && storedModel != model {
		return &StorageError{
			Kind:       StorageModelMismatch,
			Collection: collection,
			Err:        fmt.Errorf("collection was embedded with %s, got vectors from %s", storedModel, model),
		}
	}
	return nil
}

func uniformDimension(records []IndexedRecord) (int, error) {
	dim := 0
	for i, rec := range records {
		if len(rec.Embedding) == 0 {
			return 0, fmt.Errorf("record %s has no embedding", rec.ID)
		}
		if i == 0 {
			dim = len(rec.Embedding)
			continue
		}
		if len(rec.Embedding) != dim {
			return 0, fmt.Errorf("record %s has %d dimensions, expected %d", rec.ID, len(rec.Embedding), dim)
		}
	}
	return dim, nil
}

// classifyStorageErr maps driver errors onto StorageError kinds.
func classifyStorageErr(collection string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}

	kind := StorageQueryFailed
	var (
		pgErr      *pgconn.PgError
		connectErr *pgconn.ConnectError
		netErr     net.Error
	)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		kind = StorageCollectionMissing
		err = errors.New("no such collection")
	case errors.As(err, &pgErr):
		switch {
		case pgErr.Code == "42P01": // undefined_table: nothing was ever ingested
			kind = StorageCollectionMissing
		case strings.Contains(pgErr.Message, "different vector dimensions"):
			kind = StorageDimensionMismatch
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			kind = StorageUnavailable
		}
	case errors.As(err, &connectErr), errors.As(err, &netErr):
		kind = StorageUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = StorageUnavailable
	}
	return &StorageError{Kind: kind, Collection: collection, Err: err}
}
