package ingest

import (
	"errors"
	"strings"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// ErrEmptyText is returned when a novel is empty or whitespace-only.
// Callers must report it; zero chunks are never produced silently.
var ErrEmptyText = errors.New("novel text is empty or whitespace-only")

// Default chunking parameters (tokens)
const (
	DefaultChunkSize = 1400
	DefaultOverlap   = 300
)

// Chunker splits a novel into overlapping token-window chunks with temporal
// slice labels. Chunking is idempotent: identical text and parameters yield
// byte-identical chunk boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Non-positive sizes fall back to defaults;
// overlap is clamped below chunk size so the window always advances.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// token is a word span within the source text, byte offsets half-open
type token struct {
	start int
	end   int
}

// tokenize splits text on whitespace, recording byte offsets per token
func tokenize(text string) []token {
	var tokens []token
	inToken := false
	start := 0
	for i, r := range text {
		if isSpace(r) {
			if inToken {
				tokens = append(tokens, token{start: start, end: i})
				inToken = false
			}
			continue
		}
		if !inToken {
			start = i
			inToken = true
		}
	}
	if inToken {
		tokens = append(tokens, token{start: start, end: len(text)})
	}
	return tokens
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Chunk splits the text of one book into an ordered sequence of chunks
// covering the whole text with no gaps. The window advances by
// chunkSize-overlap tokens; the final chunk may be shorter but always
// includes the tail of the text.
func (c *Chunker) Chunk(book, text string) ([]model.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	tokens := tokenize(text)
	step := c.chunkSize - c.overlap
	totalChars := len(text)

	var chunks []model.Chunk
	for idx, pos := 0, 0; pos < len(tokens); idx, pos = idx+1, pos+step {
		end := pos + c.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		charStart := tokens[pos].start
		charEnd := tokens[end-1].end

		chunks = append(chunks, model.Chunk{
			ID:         model.ChunkID(book, idx),
			Book:       book,
			Index:      idx,
			CharStart:  charStart,
			CharEnd:    charEnd,
			Text:       text[charStart:charEnd],
			TokenCount: end - pos,
			Slice:      model.SliceForPosition(charStart, totalChars),
		})

		if end >= len(tokens) {
			break
		}
	}

	return chunks, nil
}

// Distribution counts chunks per temporal slice
func Distribution(chunks []model.Chunk) map[model.TemporalSlice]int {
	dist := map[model.TemporalSlice]int{
		model.SliceEarly: 0,
		model.SliceMid:   0,
		model.SliceLate:  0,
	}
	for _, ch := range chunks {
		dist[ch.Slice]++
	}
	return dist
}
