package model

import "fmt"

// TemporalSlice classifies a chunk by its position in the narrative arc
type TemporalSlice string

const (
	SliceEarly TemporalSlice = "EARLY" // First 30% of the novel
	SliceMid   TemporalSlice = "MID"   // Middle 40%
	SliceLate  TemporalSlice = "LATE"  // Final 30%
)

// AllSlices lists the temporal slices in narrative order
var AllSlices = []TemporalSlice{SliceEarly, SliceMid, SliceLate}

// Slice bounds on normalized start position. Lower bounds are inclusive,
// so a chunk starting exactly at the 30% mark is MID, not EARLY.
const (
	earlyUpperBound = 0.30
	midUpperBound   = 0.70
)

// SliceForPosition computes the temporal slice for a chunk starting at
// charStart within a text of totalChars characters.
func SliceForPosition(charStart, totalChars int) TemporalSlice {
	if totalChars < 1 {
		totalChars = 1
	}
	pos := float64(charStart) / float64(totalChars)
	switch {
	case pos < earlyUpperBound:
		return SliceEarly
	case pos < midUpperBound:
		return SliceMid
	default:
		return SliceLate
	}
}

// Chunk is an immutable unit of novel text produced by the indexer.
// Offset ranges are half-open [CharStart, CharEnd) and overlap between
// consecutive chunks of the same book.
type Chunk struct {
	ID         string        `json:"chunk_id"`    // book_chunkidx
	Book       string        `json:"book"`        // Novel identifier
	Index      int           `json:"chunk_idx"`   // Sequential index within book
	CharStart  int           `json:"char_start"`  // Character offset start
	CharEnd    int           `json:"char_end"`    // Character offset end (exclusive)
	Text       string        `json:"text"`        // Chunk text content
	TokenCount int           `json:"token_count"` // Number of tokens
	Slice      TemporalSlice `json:"temporal_slice"`
}

// ChunkID builds the canonical chunk identifier
func ChunkID(book string, index int) string {
	return fmt.Sprintf("%s_%d", book, index)
}
