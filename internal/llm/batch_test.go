package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatcher_SplitsAndKeepsOrder(t *testing.T) {
	b := newBatcher(2, 0)

	var sizes []int
	fn := func(_ context.Context, texts []string) ([][]float32, error) {
		sizes = append(sizes, len(texts))
		out := make([][]float32, len(texts))
		for i, t := range texts {
			out[i] = []float32{float32(len(t))}
		}
		return out, nil
	}

	vecs, err := b.run(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"}, fn)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, [][]float32{{1}, {2}, {3}, {4}, {5}}, vecs)
}

func TestBatcher_DefaultSize(t *testing.T) {
	assert.Equal(t, 100, newBatcher(0, 0).size)
	assert.Equal(t, 7, newBatcher(7, 2).size)
}

func TestBatcher_CountMismatch(t *testing.T) {
	b := newBatcher(10, 0)
	_, err := b.run(context.Background(), []string{"a", "b"}, func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	})
	assert.ErrorContains(t, err, "got 1 embeddings for 2 texts")
}

func TestBatcher_StopsOnError(t *testing.T) {
	b := newBatcher(1, 0)
	calls := 0
	boom := errors.New("boom")
	_, err := b.run(context.Background(), []string{"a", "b", "c"}, func(context.Context, []string) ([][]float32, error) {
		calls++
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestBatcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newBatcher(1, 5)
	_, err := b.run(ctx, []string{"a"}, func(context.Context, []string) ([][]float32, error) {
		t.Fatal("fn must not run after cancellation")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormalizeAll(t *testing.T) {
	out, err := normalizeAll([]string{"  hello\n\nworld\t", "one"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world", "one"}, out)

	_, err = normalizeAll([]string{"fine", " \n "})
	assert.ErrorContains(t, err, "position 1")
}
