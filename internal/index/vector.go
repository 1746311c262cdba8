package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// Index is an in-process vector index over a chunk corpus. The corpus is
// built once during indexing and read-only afterward; queries may run
// concurrently without synchronization.
type Index struct {
	chunks  []model.Chunk
	vectors [][]float32
	byBook  map[string]map[model.TemporalSlice][]int
}

// Result is a ranked match from a similarity search
type Result struct {
	Position int     // position into the corpus
	Score    float64 // cosine similarity
}

// Build embeds every chunk and assembles the index
func Build(ctx context.Context, embedder Embedder, chunks []model.Chunk) (*Index, error) {
	ix := &Index{
		chunks:  chunks,
		vectors: make([][]float32, len(chunks)),
		byBook:  make(map[string]map[model.TemporalSlice][]int),
	}

	for i, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := embedder.Embed(ctx, ch.Text)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %s: %w", ch.ID, err)
		}
		normalize(vec)
		ix.vectors[i] = vec

		slices, ok := ix.byBook[ch.Book]
		if !ok {
			slices = make(map[model.TemporalSlice][]int)
			ix.byBook[ch.Book] = slices
		}
		slices[ch.Slice] = append(slices[ch.Slice], i)
	}

	return ix, nil
}

// HasBook reports whether any chunks exist for the given book
func (ix *Index) HasBook(book string) bool {
	_, ok := ix.byBook[book]
	return ok
}

// SlicePositions returns corpus positions for one book restricted to one
// temporal slice. An empty result means the slice has no chunks (a coverage
// gap for short novels).
func (ix *Index) SlicePositions(book string, slice model.TemporalSlice) []int {
	slices, ok := ix.byBook[book]
	if !ok {
		return nil
	}
	return slices[slice]
}

// Chunk returns the chunk at a corpus position
func (ix *Index) Chunk(position int) model.Chunk {
	return ix.chunks[position]
}

// Len returns the corpus size
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// TopK ranks the given corpus subset against the query vector and returns
// the k best matches. The subset restriction is what enables per-slice
// retrieval.
func (ix *Index) TopK(query []float32, subset []int, k int) []Result {
	if k <= 0 || len(subset) == 0 {
		return nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	results := make([]Result, 0, len(subset))
	for _, pos := range subset {
		if pos < 0 || pos >= len(ix.vectors) {
			continue
		}
		results = append(results, Result{
			Position: pos,
			Score:    dot(q, ix.vectors[pos]),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
