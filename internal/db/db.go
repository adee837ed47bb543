package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/josinaldojr/pdfrag/internal/rag"
)

// NewPool parses databaseURL and checks the server is reachable. The pool is
// the one long-lived resource of a run; callers close it on shutdown.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, &rag.ConfigurationError{Key: "DATABASE_URL", Reason: "invalid connection string: " + err.Error()}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, &rag.StorageError{Kind: rag.StorageUnavailable, Err: err}
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &rag.StorageError{Kind: rag.StorageUnavailable, Err: err}
	}

	return pool, nil
}
