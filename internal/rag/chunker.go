package rag

import (
	"fmt"
	"strings"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// DefaultSeparators is tried in order: paragraphs, lines, sentence ends, words,
// and finally single characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", " ", ""}

// Chunker splits documents into overlapping chunks of at most size runes.
type Chunker struct {
	size       int
	overlap    int
	separators [][]rune
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithSeparators replaces the separator priority list. Leave out "" to keep
// words longer than the chunk size whole instead of cutting them.
func WithSeparators(seps ...string) ChunkerOption {
	return func(c *Chunker) {
		c.separators = toRunes(seps)
	}
}

func NewChunker(size, overlap int, opts ...ChunkerOption) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d (need 0 <= overlap < size)", ErrInvalidChunking, size, overlap)
	}
	c := &Chunker{
		size:       size,
		overlap:    overlap,
		separators: toRunes(DefaultSeparators),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Split chunks every page of doc. Sequence indexes run across the whole document;
// overlap never crosses a page boundary. Blank pages produce no chunks.
func (c *Chunker) Split(doc Document) []Chunk {
	var out []Chunk
	for _, p := range doc.Pages {
		text := []rune(strings.TrimSpace(p.Text))
		if len(text) == 0 {
			continue
		}
		for _, s := range c.splitPage(text) {
			out = append(out, Chunk{
				Text:          string(text[s.start:s.end]),
				SourcePage:    p.Number,
				SequenceIndex: len(out),
				Offset:        s.start,
			})
		}
	}
	return out
}

// SplitText chunks a single text as page 1.
func (c *Chunker) SplitText(text string) []Chunk {
	return c.Split(Document{Pages: []Page{{Number: 1, Text: text}}})
}

type span struct{ start, end int }

func (s span) len() int { return s.end - s.start }

func (c *Chunker) splitPage(text []rune) []span {
	// New content per chunk must leave room for the seeded overlap.
	budget := c.size - c.overlap
	return c.merge(c.pieces(text, span{0, len(text)}, c.separators, budget))
}

// pieces cuts s on the highest priority separator present and recurses into
// pieces still over limit. Pieces keep their trailing separator, so they are
// contiguous and cover s exactly.
func (c *Chunker) pieces(text []rune, s span, seps [][]rune, limit int) []span {
	sep, rest, ok := pickSeparator(text[s.start:s.end], seps)
	if !ok {
		return []span{s}
	}
	var out []span
	for _, p := range splitKeep(text, s, sep) {
		if p.len() <= limit || len(rest) == 0 {
			out = append(out, p)
			continue
		}
		out = append(out, c.pieces(text, p, rest, limit)...)
	}
	return out
}

// merge joins adjacent pieces up to size. A new chunk starts with the last
// overlap runes of the previous one.
func (c *Chunker) merge(pieces []span) []span {
	var chunks []span
	cur := span{-1, -1}
	for _, p := range pieces {
		if cur.start < 0 {
			cur = p
			continue
		}
		if p.end-cur.start <= c.size {
			cur.end = p.end
			continue
		}
		chunks = append(chunks, cur)
		seed := cur.end - c.overlap
		if seed < cur.start {
			seed = cur.start
		}
		cur = span{seed, p.end}
	}
	if cur.start >= 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}

func pickSeparator(text []rune, seps [][]rune) (sep []rune, rest [][]rune, ok bool) {
	for i, s := range seps {
		if len(s) == 0 || indexRunes(text, s, 0) >= 0 {
			return s, seps[i+1:], true
		}
	}
	return nil, nil, false
}

func splitKeep(text []rune, s span, sep []rune) []span {
	var out []span
	if len(sep) == 0 {
		for i := s.start; i < s.end; i++ {
			out = append(out, span{i, i + 1})
		}
		return out
	}
	start := s.start
	for {
		i := indexRunes(text[:s.end], sep, start)
		if i < 0 {
			break
		}
		out = append(out, span{start, i + len(sep)})
		start = i + len(sep)
	}
	if start < s.end {
		out = append(out, span{start, s.end})
	}
	return out
}

func indexRunes(text, sep []rune, from int) int {
	for i := from; i+len(sep) <= len(text); i++ {
		match := true
		for j := range sep {
			if text[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func toRunes(seps []string) [][]rune {
	out := make([][]rune, len(seps))
	for i, s := range seps {
		out[i] = []rune(s)
	}
	return out
}
