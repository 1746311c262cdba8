package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// mockVerifier implements Verifier
type mockVerifier struct {
	failBooks map[string]bool
	calls     int32
}

func (m *mockVerifier) VerifyClaim(ctx context.Context, claim model.Claim) (*model.Dossier, error) {
	atomic.AddInt32(&m.calls, 1)
	time.Sleep(5 * time.Millisecond)
	if m.failBooks[claim.Book] {
		return nil, errors.New("unknown book")
	}
	return &model.Dossier{
		Claim: claim,
		Aggregate: model.ClaimVerdict{
			ClaimID: claim.ID,
			Verdict: model.VerdictSupported,
		},
	}, nil
}

func testClaims(n int) []model.Claim {
	claims := make([]model.Claim, n)
	for i := range claims {
		claims[i] = model.Claim{
			ID:   string(rune('a' + i)),
			Book: "novel_a",
			Text: "the captain kept her promise",
		}
	}
	return claims
}

func TestBatchProcessor_ProcessClaims(t *testing.T) {
	verifier := &mockVerifier{}
	processor := NewBatchProcessor(verifier, 2)

	claims := testClaims(3)
	results := processor.ProcessClaims(context.Background(), claims)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %s: %v", res.Claim.ID, res.Error)
		}
		if res.Dossier == nil {
			t.Errorf("expected dossier for %s", res.Claim.ID)
		}
	}
	if got := atomic.LoadInt32(&verifier.calls); got != 3 {
		t.Errorf("expected 3 verifier calls, got %d", got)
	}
}

func TestBatchProcessor_FailedClaimDoesNotStopBatch(t *testing.T) {
	verifier := &mockVerifier{failBooks: map[string]bool{"novel_missing": true}}
	processor := NewBatchProcessor(verifier, 2)

	claims := testClaims(2)
	claims = append(claims, model.Claim{ID: "bad", Book: "novel_missing", Text: "x was y"})

	results := processor.ProcessClaims(context.Background(), claims)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	failures := 0
	for _, res := range results {
		if res.Error != nil {
			failures++
			if res.Claim.ID != "bad" {
				t.Errorf("unexpected failure for %s", res.Claim.ID)
			}
			if res.Dossier != nil {
				t.Error("expected nil dossier on error")
			}
		}
	}
	if failures != 1 {
		t.Errorf("expected 1 failure, got %d", failures)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 2)
	results := processor.ProcessClaims(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_OnClaimDone(t *testing.T) {
	verifier := &mockVerifier{}
	processor := NewBatchProcessor(verifier, 2)

	var done int32
	processor.OnClaimDone(func(claimID string, err error) {
		atomic.AddInt32(&done, 1)
	})

	processor.ProcessClaims(context.Background(), testClaims(4))
	if got := atomic.LoadInt32(&done); got != 4 {
		t.Errorf("expected 4 callbacks, got %d", got)
	}
}
