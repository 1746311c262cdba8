package model

// QueryKind records which retrieval query surfaced a piece of evidence
type QueryKind string

const (
	QueryDirect         QueryKind = "direct"         // Matched the sub-claim text
	QueryCounterfactual QueryKind = "counterfactual" // Matched the negated rephrasing
	QueryBoth           QueryKind = "both"           // Matched under both queries
)

// Stance tags evidence after evaluation
type Stance string

const (
	StanceUnassessed    Stance = "unassessed"
	StanceSupporting    Stance = "supporting"
	StanceContradicting Stance = "contradicting"
)

// Evidence is a retrieved chunk scored against one sub-claim
type Evidence struct {
	ChunkID    string        `json:"chunk_id"`
	Book       string        `json:"book"`
	ChunkIndex int           `json:"chunk_idx"`
	Text       string        `json:"text"`
	Slice      TemporalSlice `json:"temporal_slice"`
	Score      float64       `json:"score"`
	Query      QueryKind     `json:"query_kind"`
	Stance     Stance        `json:"stance"`
}

// EvidenceSet is the per-sub-claim retrieval result, partitioned by slice
type EvidenceSet struct {
	SubClaimID string     `json:"sub_claim_id"`
	Items      []Evidence `json:"items"`

	// Gaps lists temporal slices that had zero chunks for the book.
	// A gap is a degraded-coverage condition, never corroborating absence.
	Gaps []TemporalSlice `json:"gaps,omitempty"`
}

// BySlice partitions the evidence by temporal slice, preserving order
func (s *EvidenceSet) BySlice() map[TemporalSlice][]Evidence {
	out := make(map[TemporalSlice][]Evidence, len(AllSlices))
	for _, ev := range s.Items {
		out[ev.Slice] = append(out[ev.Slice], ev)
	}
	return out
}

// HasGap reports whether the given slice had no chunks to retrieve from
func (s *EvidenceSet) HasGap(slice TemporalSlice) bool {
	for _, g := range s.Gaps {
		if g == slice {
			return true
		}
	}
	return false
}
