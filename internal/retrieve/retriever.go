package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/veracity-tools/lorecheck/internal/index"
	"github.com/veracity-tools/lorecheck/internal/model"
)

// ErrUnknownBook is returned when a claim references a book with no chunks
// in the corpus. This is an input error for that claim alone.
var ErrUnknownBook = errors.New("unknown book reference")

// embedRetries bounds retry attempts for the embedding collaborator
const embedRetries = 3

// Retriever performs temporal-aware evidence retrieval: per-slice similarity
// search with both a direct and a counterfactual query, guaranteeing
// per-slice representation even when naive ranking would concentrate all
// matches in one region of the novel.
type Retriever struct {
	index    *index.Index
	embedder index.Embedder
	cfg      model.RetrievalConfig
	logger   *zap.Logger
}

// NewRetriever creates a retriever over a read-only chunk corpus
func NewRetriever(ix *index.Index, embedder index.Embedder, cfg model.RetrievalConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{index: ix, embedder: embedder, cfg: cfg, logger: logger}
}

// Retrieve builds the evidence set for one sub-claim. Slices with zero
// chunks are recorded as coverage gaps, never treated as corroborating
// absence of evidence.
func (r *Retriever) Retrieve(ctx context.Context, claim model.Claim, sub model.SubClaim) (model.EvidenceSet, []model.Signal, error) {
	set := model.EvidenceSet{SubClaimID: sub.ID}

	if !r.index.HasBook(claim.Book) {
		return set, nil, fmt.Errorf("%w: %s", ErrUnknownBook, claim.Book)
	}

	directVec, err := r.embedWithRetry(ctx, Direct(sub.Text, claim.Character))
	if err != nil {
		if ctx.Err() != nil {
			return set, nil, ctx.Err()
		}
		return r.degradedSet(sub, err)
	}
	contraVec, err := r.embedWithRetry(ctx, Counterfactual(sub.Text, claim.Character))
	if err != nil {
		if ctx.Err() != nil {
			return set, nil, ctx.Err()
		}
		return r.degradedSet(sub, err)
	}

	var signals []model.Signal
	merged := make(map[string]model.Evidence)

	for _, slice := range model.AllSlices {
		positions := r.index.SlicePositions(claim.Book, slice)
		if len(positions) == 0 {
			set.Gaps = append(set.Gaps, slice)
			signals = append(signals, model.Signal{
				Type:        model.SignalCoverageGap,
				Severity:    model.SeverityInfo,
				Description: fmt.Sprintf("no %s chunks for book %s", slice, claim.Book),
				Data: map[string]any{
					"sub_claim": sub.ID,
					"book":      claim.Book,
					"slice":     string(slice),
				},
			})
			continue
		}

		k := r.cfg.TopKFor(slice)
		r.mergeResults(merged, r.index.TopK(directVec, positions, k), model.QueryDirect)
		r.mergeResults(merged, r.index.TopK(contraVec, positions, k), model.QueryCounterfactual)
	}

	set.Items = sortEvidence(merged)
	return set, signals, nil
}

// mergeResults folds ranked matches into the dedup map. A chunk found under
// both queries keeps the higher relevance score and is marked as such.
func (r *Retriever) mergeResults(merged map[string]model.Evidence, results []index.Result, kind model.QueryKind) {
	for _, res := range results {
		ch := r.index.Chunk(res.Position)
		existing, seen := merged[ch.ID]
		if !seen {
			merged[ch.ID] = model.Evidence{
				ChunkID:    ch.ID,
				Book:       ch.Book,
				ChunkIndex: ch.Index,
				Text:       ch.Text,
				Slice:      ch.Slice,
				Score:      res.Score,
				Query:      kind,
				Stance:     model.StanceUnassessed,
			}
			continue
		}
		if existing.Query != kind {
			existing.Query = model.QueryBoth
		}
		if res.Score > existing.Score {
			existing.Score = res.Score
		}
		merged[ch.ID] = existing
	}
}

// degradedSet handles embedding collaborator failure after retries: empty
// evidence with a transient-failure signal, reported as degraded rather than
// aborting the claim.
func (r *Retriever) degradedSet(sub model.SubClaim, err error) (model.EvidenceSet, []model.Signal, error) {
	r.logger.Warn("embedding failed after retries, returning empty evidence",
		zap.String("sub_claim", sub.ID),
		zap.Error(err))
	set := model.EvidenceSet{SubClaimID: sub.ID, Gaps: append([]model.TemporalSlice(nil), model.AllSlices...)}
	return set, []model.Signal{{
		Type:        model.SignalTransientFailure,
		Severity:    model.SeverityCritical,
		Description: "embedding collaborator failed after bounded retries",
		Data: map[string]any{
			"sub_claim": sub.ID,
			"error":     err.Error(),
		},
	}}, nil
}

func (r *Retriever) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < embedRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := r.embedder.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// sliceRank orders evidence by narrative position
var sliceRank = map[model.TemporalSlice]int{
	model.SliceEarly: 0,
	model.SliceMid:   1,
	model.SliceLate:  2,
}

func sortEvidence(merged map[string]model.Evidence) []model.Evidence {
	items := make([]model.Evidence, 0, len(merged))
	for _, ev := range merged {
		items = append(items, ev)
	}
	sort.Slice(items, func(i, j int) bool {
		if sliceRank[items[i].Slice] != sliceRank[items[j].Slice] {
			return sliceRank[items[i].Slice] < sliceRank[items[j].Slice]
		}
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ChunkID < items[j].ChunkID
	})
	return items
}
