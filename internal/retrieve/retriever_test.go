package retrieve

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/veracity-tools/lorecheck/internal/index"
	"github.com/veracity-tools/lorecheck/internal/model"
)

// fakeEmbedder maps text onto keyword dimensions, deterministic and offline
type fakeEmbedder struct {
	vocab []string
	calls int32
	fail  bool
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	atomic.AddInt32(&e.calls, 1)
	if e.fail {
		return nil, errors.New("embedding backend down")
	}
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocab)+1)
	vec[len(e.vocab)] = 0.1
	for i, word := range e.vocab {
		if strings.Contains(lower, word) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vocab: []string{"prison", "treasure", "escape", "promise"}}
}

func buildTestIndex(t *testing.T, emb index.Embedder, chunks []model.Chunk) *index.Index {
	t.Helper()
	ix, err := index.Build(context.Background(), emb, chunks)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return ix
}

func chunk(book string, idx int, slice model.TemporalSlice, text string) model.Chunk {
	return model.Chunk{
		ID:    model.ChunkID(book, idx),
		Book:  book,
		Index: idx,
		Text:  text,
		Slice: slice,
	}
}

func defaultRetrievalConfig() model.RetrievalConfig {
	return model.RetrievalConfig{TopKEarly: 2, TopKMid: 3, TopKLate: 2}
}

func TestRetrieve_UnknownBook(t *testing.T) {
	emb := newFakeEmbedder()
	ix := buildTestIndex(t, emb, []model.Chunk{
		chunk("monte_cristo", 0, model.SliceEarly, "the prison of the chateau"),
	})
	r := NewRetriever(ix, emb, defaultRetrievalConfig(), nil)

	claim := model.Claim{ID: "c1", Book: "moby_dick", Text: "Ahab hunted the whale"}
	sub := model.SubClaim{ID: "SC1", Text: claim.Text}

	_, _, err := r.Retrieve(context.Background(), claim, sub)
	if !errors.Is(err, ErrUnknownBook) {
		t.Errorf("expected ErrUnknownBook, got %v", err)
	}
}

func TestRetrieve_CoverageGap(t *testing.T) {
	emb := newFakeEmbedder()
	// No LATE chunks at all for this book
	ix := buildTestIndex(t, emb, []model.Chunk{
		chunk("monte_cristo", 0, model.SliceEarly, "the prison of the chateau"),
		chunk("monte_cristo", 1, model.SliceMid, "the treasure of the island"),
	})
	r := NewRetriever(ix, emb, defaultRetrievalConfig(), nil)

	claim := model.Claim{ID: "c1", Book: "monte_cristo", Character: "Dantes", Text: "Dantes found the treasure"}
	sub := model.SubClaim{ID: "SC1", ParentClaimID: "c1", Text: claim.Text}

	set, signals, err := r.Retrieve(context.Background(), claim, sub)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if !set.HasGap(model.SliceLate) {
		t.Error("expected LATE coverage gap")
	}
	if set.HasGap(model.SliceEarly) || set.HasGap(model.SliceMid) {
		t.Error("unexpected gap for populated slices")
	}
	if len(set.Items) == 0 {
		t.Error("expected evidence from populated slices")
	}

	gapSignals := 0
	for _, s := range signals {
		if s.Type == model.SignalCoverageGap {
			gapSignals++
			if s.Severity != model.SeverityInfo {
				t.Errorf("expected info severity, got %s", s.Severity)
			}
		}
	}
	if gapSignals != 1 {
		t.Errorf("expected 1 coverage gap signal, got %d", gapSignals)
	}
}

func TestRetrieve_DedupAcrossQueries(t *testing.T) {
	emb := newFakeEmbedder()
	// One chunk per slice: both the direct and counterfactual query hit the
	// same chunks, which must be merged rather than duplicated.
	ix := buildTestIndex(t, emb, []model.Chunk{
		chunk("monte_cristo", 0, model.SliceEarly, "the prison of the chateau"),
		chunk("monte_cristo", 1, model.SliceMid, "the treasure of the island"),
		chunk("monte_cristo", 2, model.SliceLate, "the escape by sea"),
	})
	r := NewRetriever(ix, emb, defaultRetrievalConfig(), nil)

	claim := model.Claim{ID: "c1", Book: "monte_cristo", Character: "Dantes", Text: "Dantes was in prison"}
	sub := model.SubClaim{ID: "SC1", ParentClaimID: "c1", Text: claim.Text}

	set, _, err := r.Retrieve(context.Background(), claim, sub)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, ev := range set.Items {
		if seen[ev.ChunkID] {
			t.Errorf("duplicate evidence for chunk %s", ev.ChunkID)
		}
		seen[ev.ChunkID] = true
		if ev.Query != model.QueryBoth {
			t.Errorf("chunk %s: expected both-query provenance, got %s", ev.ChunkID, ev.Query)
		}
		if ev.Stance != model.StanceUnassessed {
			t.Errorf("chunk %s: expected unassessed stance, got %s", ev.ChunkID, ev.Stance)
		}
	}
	if len(set.Gaps) != 0 {
		t.Errorf("unexpected gaps: %v", set.Gaps)
	}
}

func TestRetrieve_SliceOrdering(t *testing.T) {
	emb := newFakeEmbedder()
	ix := buildTestIndex(t, emb, []model.Chunk{
		chunk("monte_cristo", 2, model.SliceLate, "the escape by sea"),
		chunk("monte_cristo", 1, model.SliceMid, "the treasure of the island"),
		chunk("monte_cristo", 0, model.SliceEarly, "the prison of the chateau"),
	})
	r := NewRetriever(ix, emb, defaultRetrievalConfig(), nil)

	claim := model.Claim{ID: "c1", Book: "monte_cristo", Character: "Dantes", Text: "Dantes was in prison"}
	sub := model.SubClaim{ID: "SC1", Text: claim.Text}

	set, _, err := r.Retrieve(context.Background(), claim, sub)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	lastRank := -1
	for _, ev := range set.Items {
		rank := sliceRank[ev.Slice]
		if rank < lastRank {
			t.Errorf("evidence not in narrative order: %v", set.Items)
			break
		}
		lastRank = rank
	}
}

func TestRetrieve_EmbeddingFailureDegrades(t *testing.T) {
	emb := newFakeEmbedder()
	ix := buildTestIndex(t, emb, []model.Chunk{
		chunk("monte_cristo", 0, model.SliceEarly, "the prison of the chateau"),
	})

	emb.fail = true
	atomic.StoreInt32(&emb.calls, 0)
	r := NewRetriever(ix, emb, defaultRetrievalConfig(), nil)

	claim := model.Claim{ID: "c1", Book: "monte_cristo", Character: "Dantes", Text: "Dantes was in prison"}
	sub := model.SubClaim{ID: "SC1", Text: claim.Text}

	set, signals, err := r.Retrieve(context.Background(), claim, sub)
	if err != nil {
		t.Fatalf("expected degraded set, got error: %v", err)
	}

	if len(set.Items) != 0 {
		t.Error("expected empty evidence set")
	}
	if len(set.Gaps) != len(model.AllSlices) {
		t.Errorf("expected all slices marked as gaps, got %v", set.Gaps)
	}
	if len(signals) != 1 || signals[0].Type != model.SignalTransientFailure {
		t.Errorf("expected one transient failure signal, got %v", signals)
	}
	if signals[0].Severity != model.SeverityCritical {
		t.Errorf("expected critical severity, got %s", signals[0].Severity)
	}
	if got := atomic.LoadInt32(&emb.calls); got != embedRetries {
		t.Errorf("expected %d embed attempts, got %d", embedRetries, got)
	}
}

func TestRetrieve_Cancelled(t *testing.T) {
	emb := newFakeEmbedder()
	ix := buildTestIndex(t, emb, []model.Chunk{
		chunk("monte_cristo", 0, model.SliceEarly, "the prison of the chateau"),
	})
	r := NewRetriever(ix, emb, defaultRetrievalConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	claim := model.Claim{ID: "c1", Book: "monte_cristo", Text: "Dantes was in prison"}
	sub := model.SubClaim{ID: "SC1", Text: claim.Text}

	if _, _, err := r.Retrieve(ctx, claim, sub); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
