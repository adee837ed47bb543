package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
)

// batcher splits embedding input into provider-sized requests and paces them.
type batcher struct {
	size    int
	limiter *rate.Limiter
}

func newBatcher(size int, perSecond float64) batcher {
	if size <= 0 {
		size = 100
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return batcher{size: size, limiter: rate.NewLimiter(limit, 1)}
}

// run calls fn for consecutive slices of texts and stitches the vectors back in order.
func (b batcher) run(ctx context.Context, texts []string, fn func(context.Context, []string) ([][]float32, error)) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.size {
		end := start + b.size
		if end > len(texts) {
			end = len(texts)
		}
		if err := b.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		vecs, err := fn(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(vecs) != end-start {
			return nil, fmt.Errorf("got %d embeddings for %d texts", len(vecs), end-start)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeAll(texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = normalizeWhitespace(t)
		if out[i] == "" {
			return nil, fmt.Errorf("empty text for embedding at position %d", i)
		}
	}
	return out, nil
}
