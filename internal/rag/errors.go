package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuestion is returned when a question is blank after trimming.
	ErrEmptyQuestion = errors.New("question is required")

	// ErrInvalidChunking is returned for chunk parameters that cannot produce chunks.
	ErrInvalidChunking = errors.New("invalid chunking parameters")
)

// ConfigurationError reports a required setting that is absent or invalid.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
}

// ProviderError wraps a failure of the embedding or completion service.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StorageKind tells the caller which storage condition failed.
type StorageKind int

const (
	StorageUnavailable StorageKind = iota
	StorageCollectionMissing
	StorageDimensionMismatch
	StorageQueryFailed
	StorageModelMismatch
)

func (k StorageKind) String() string {
	switch k {
	case StorageUnavailable:
		return "vector store unavailable"
	case StorageCollectionMissing:
		return "collection not found"
	case StorageDimensionMismatch:
		return "embedding dimension mismatch"
	case StorageQueryFailed:
		return "vector store query failed"
	case StorageModelMismatch:
		return "embedding model mismatch"
	default:
		return "storage error"
	}
}

// StorageError is returned by a VectorIndex. Kind is never hidden behind an empty result.
type StorageError struct {
	Kind       StorageKind
	Collection string
	Err        error
}

func (e *StorageError) Error() string {
	msg := e.Kind.String()
	if e.Collection != "" {
		msg += fmt.Sprintf(" (collection %q)", e.Collection)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsStorageKind reports whether err carries a StorageError of the given kind.
func IsStorageKind(err error, kind StorageKind) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == kind
}
