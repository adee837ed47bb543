package llm

import (
	"context"
	"errors"

	"github.com/josinaldojr/pdfrag/internal/config"
	"github.com/josinaldojr/pdfrag/internal/rag"
)

// Client is the capability object handed to the retriever, the ingestor and the composer.
type Client interface {
	rag.Embedder
	rag.Completer
}

// New selects the provider once from cfg. With no credential configured it
// fails before any client is built.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	p, err := cfg.SelectProvider()
	if err != nil {
		return nil, err
	}
	switch p {
	case config.ProviderOpenAI:
		c, err := NewOpenAIClient(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.ProviderGoogle:
		c, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, &rag.ConfigurationError{Reason: "unknown provider " + string(p)}
	}
}

func providerErr(p config.Provider, op string, err error) error {
	var pe *rag.ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &rag.ProviderError{Provider: string(p), Op: op, Err: err}
}
