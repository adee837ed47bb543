package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"
)

// hashEmbedder maps words onto buckets so texts sharing words score higher.
type hashEmbedder struct {
	dim   int
	model string
	calls int
	err   error
}

func newHashEmbedder() *hashEmbedder {
	return &hashEmbedder{dim: 64, model: "hash-64"}
}

func (e *hashEmbedder) ModelName() string { return e.model }

func (e *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, e.dim)
		for _, w := range words(t) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(w))
			v[h.Sum32()%uint32(e.dim)]++
		}
		var norm float64
		for _, x := range v {
			norm += float64(x * x)
		}
		if norm > 0 {
			inv := float32(1 / math.Sqrt(norm))
			for j := range v {
				v[j] *= inv
			}
		}
		out[i] = v
	}
	return out, nil
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// memIndex is an in-memory VectorIndex with brute-force cosine search.
type memIndex struct {
	collections map[string][]IndexedRecord
	upserts     int
}

func newMemIndex() *memIndex {
	return &memIndex{collections: map[string][]IndexedRecord{}}
}

func (m *memIndex) UpsertCollection(_ context.Context, name string, records []IndexedRecord, recreate bool) error {
	m.upserts++
	if _, err := uniformDimension(records); err != nil {
		return &StorageError{Kind: StorageDimensionMismatch, Collection: name, Err: err}
	}
	existing := m.collections[name]
	if recreate {
		existing = nil
	}
	if len(existing) > 0 && len(records) > 0 {
		stored, got := existing[0], records[0]
		if err := checkCompatible(name, len(stored.Embedding), stored.Metadata.EmbeddingModel,
			len(got.Embedding), got.Metadata.EmbeddingModel); err != nil {
			return err
		}
	}
	for _, rec := range records {
		replaced := false
		for i := range existing {
			if existing[i].ID == rec.ID {
				existing[i] = rec
				replaced = true
			}
		}
		if !replaced {
			existing = append(existing, rec)
		}
	}
	if existing == nil {
		existing = []IndexedRecord{}
	}
	m.collections[name] = existing
	return nil
}

func (m *memIndex) SimilaritySearch(_ context.Context, name string, query []float32, k int) (RetrievalResult, error) {
	recs, ok := m.collections[name]
	if !ok {
		return nil, &StorageError{Kind: StorageCollectionMissing, Collection: name, Err: errors.New("no such collection")}
	}
	res := RetrievalResult{}
	for _, r := range recs {
		if len(r.Embedding) != len(query) {
			return nil, &StorageError{Kind: StorageDimensionMismatch, Collection: name}
		}
		var dot float64
		for i := range query {
			dot += float64(query[i] * r.Embedding[i])
		}
		res = append(res, Passage{Text: r.Text, Score: dot, Metadata: r.Metadata})
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Score > res[j].Score })
	if len(res) > k {
		res = res[:k]
	}
	return res, nil
}

func (m *memIndex) Count(_ context.Context, name string) (int, error) {
	recs, ok := m.collections[name]
	if !ok {
		return 0, &StorageError{Kind: StorageCollectionMissing, Collection: name}
	}
	return len(recs), nil
}

// groundedLLM behaves like a model that follows the prompt: worked examples
// first, then a context sentence sharing a word with the question, otherwise
// the refusal taken from the examples.
type groundedLLM struct {
	prompts []string
	err     error
}

func (g *groundedLLM) Complete(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}

	ctxText := between(prompt, "CONTEXT:\n", "\n\nRULES:")
	question := strings.TrimSpace(between(prompt, "USER QUESTION:\n", "\n\nANSWER THE"))

	var refusal string
	lines := strings.Split(prompt, "\n")
	for i := 0; i+1 < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "Question: ") || !strings.HasPrefix(lines[i+1], "Answer: ") {
			continue
		}
		q := strings.Trim(strings.TrimPrefix(lines[i], "Question: "), `"`)
		a := strings.Trim(strings.TrimPrefix(lines[i+1], "Answer: "), `"`)
		if refusal == "" {
			refusal = a
		}
		if q == question {
			return a, nil
		}
	}

	for _, sentence := range strings.Split(ctxText, ".") {
		for _, w := range words(question) {
			if len(w) > 3 && strings.Contains(strings.ToLower(sentence), w) {
				return strings.TrimSpace(sentence) + ".", nil
			}
		}
	}
	return refusal, nil
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j >= 0 {
		return s[:j]
	}
	return s
}
