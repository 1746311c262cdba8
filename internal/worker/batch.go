package worker

import (
	"context"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// Verifier verifies a single claim and produces its dossier
type Verifier interface {
	VerifyClaim(ctx context.Context, claim model.Claim) (*model.Dossier, error)
}

// VerifyJob verifies one claim through the pipeline
type VerifyJob struct {
	Claim    model.Claim
	Verifier Verifier
	OnDone   func(claimID string, err error)
}

// Execute runs the verification for the job's claim
func (j *VerifyJob) Execute(ctx context.Context) Result {
	d, err := j.Verifier.VerifyClaim(ctx, j.Claim)
	if j.OnDone != nil {
		j.OnDone(j.Claim.ID, err)
	}
	return &VerifyResult{Claim: j.Claim, Dossier: d, Error: err}
}

// VerifyResult is the outcome of one claim verification
type VerifyResult struct {
	Claim   model.Claim
	Dossier *model.Dossier
	Error   error
}

// GetError returns the verification error, if any
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many claims concurrently. A claim that fails on
// bad input yields an errored result without stopping the rest of the batch.
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	onDone      func(claimID string, err error)
}

// NewBatchProcessor creates a batch processor with the given concurrency
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
	}
}

// OnClaimDone registers a callback invoked after each claim finishes
func (b *BatchProcessor) OnClaimDone(fn func(claimID string, err error)) {
	b.onDone = fn
}

// ProcessClaims verifies all claims concurrently and returns their results.
// Result order is completion order, not input order.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []model.Claim) []*VerifyResult {
	if len(claims) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, claim := range claims {
		pool.Submit(&VerifyJob{
			Claim:    claim,
			Verifier: b.verifier,
			OnDone:   b.onDone,
		})
	}

	results := pool.Wait()

	verifyResults := make([]*VerifyResult, 0, len(results))
	for _, result := range results {
		verifyResults = append(verifyResults, result.(*VerifyResult))
	}
	return verifyResults
}
