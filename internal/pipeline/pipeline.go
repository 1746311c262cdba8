package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/veracity-tools/lorecheck/internal/decompose"
	"github.com/veracity-tools/lorecheck/internal/dossier"
	"github.com/veracity-tools/lorecheck/internal/index"
	"github.com/veracity-tools/lorecheck/internal/model"
	"github.com/veracity-tools/lorecheck/internal/reason"
	"github.com/veracity-tools/lorecheck/internal/retrieve"
	"github.com/veracity-tools/lorecheck/internal/synth"
)

// Pipeline runs one claim through decomposition, retrieval, dual-perspective
// evaluation, and verdict synthesis. A dossier is produced only when every
// stage for every sub-claim has finished; partial dossiers are never emitted.
type Pipeline struct {
	decomposer  *decompose.Decomposer
	retriever   *retrieve.Retriever
	evaluator   *reason.Evaluator
	synthesizer *synth.Synthesizer
	config      *model.Config
	logger      *zap.Logger
}

// NewPipeline wires the verification stages around a built index
func NewPipeline(cfg *model.Config, idx *index.Index, embedder index.Embedder, logger *zap.Logger) (*Pipeline, error) {
	engine, err := reason.NewEngine(reason.ConfigFromModel(cfg.Engine))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}
	return NewPipelineWithEngine(cfg, idx, embedder, engine, logger), nil
}

// NewPipelineWithEngine wires the stages around an already-constructed
// reasoning engine
func NewPipelineWithEngine(cfg *model.Config, idx *index.Index, embedder index.Embedder, engine reason.Engine, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		decomposer:  decompose.NewDecomposer(),
		retriever:   retrieve.NewRetriever(idx, embedder, cfg.Retrieval, logger),
		evaluator:   reason.NewEvaluator(engine, cfg.Engine, logger),
		synthesizer: synth.NewSynthesizer(cfg.Thresholds),
		config:      cfg,
		logger:      logger,
	}
}

// VerifyClaim verifies one claim end to end and returns its dossier.
// Retrieval or evaluation failures degrade individual sub-claims rather
// than aborting the claim; only context cancellation and input errors
// (unknown book, empty claim) return an error.
func (p *Pipeline) VerifyClaim(ctx context.Context, claim model.Claim) (*model.Dossier, error) {
	subClaims := p.decomposer.Decompose(claim)

	p.logger.Debug("claim decomposed",
		zap.String("claim_id", claim.ID),
		zap.Int("sub_claims", len(subClaims)))

	var (
		entries    []model.DossierEntry
		subResults []model.SubClaimVerdict
		signals    []model.Signal
	)

	for _, sub := range subClaims {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		set, retrieveSignals, err := p.retriever.Retrieve(ctx, claim, sub)
		if err != nil {
			if errors.Is(err, retrieve.ErrUnknownBook) {
				return nil, fmt.Errorf("claim %s: %w", claim.ID, err)
			}
			return nil, fmt.Errorf("retrieve for %s: %w", sub.ID, err)
		}
		signals = append(signals, retrieveSignals...)

		support, contradiction, evalSignals, err := p.evaluator.EvaluateSubClaim(ctx, claim, sub, set)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", sub.ID, err)
		}
		signals = append(signals, evalSignals...)

		verdict := p.synthesizer.SynthesizeSubClaim(sub, support, contradiction)
		subResults = append(subResults, verdict)
		entries = append(entries, model.DossierEntry{
			SubClaim:      sub,
			Evidence:      set,
			Support:       support,
			Contradiction: contradiction,
			Verdict:       verdict,
		})

		p.logger.Debug("sub-claim evaluated",
			zap.String("sub_claim", sub.ID),
			zap.String("verdict", string(verdict.Verdict)),
			zap.Float64("confidence", verdict.Confidence))
	}

	aggregate := p.synthesizer.Aggregate(claim.ID, subResults)
	d := dossier.Build(claim, entries, aggregate, signals, time.Now())

	p.logger.Info("claim verified",
		zap.String("claim_id", claim.ID),
		zap.String("verdict", string(aggregate.Verdict)),
		zap.Float64("confidence", aggregate.Confidence),
		zap.Int("signals", len(signals)))

	return &d, nil
}
