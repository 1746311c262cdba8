package reason

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// Retry configuration for transient engine failures
const (
	defaultMaxRetries = 5
	baseRetryDelay    = 1 * time.Second
	maxRetryDelay     = 60 * time.Second
)

// sleepFunc is the sleep used between retries (injectable for tests)
var sleepFunc = sleepWithContext

// Evaluator runs the dual-perspective protocol: one support-seeking and one
// contradiction-seeking call per sub-claim, against the same immutable
// evidence snapshot. The two calls share no state; neither prompt nor parse
// ever references the other's result, even across retries.
type Evaluator struct {
	engine     Engine
	limiter    *rate.Limiter
	maxRetries int
	logger     *zap.Logger
}

// NewEvaluator creates an evaluator around the given engine
func NewEvaluator(engine Engine, cfg model.EngineConfig, logger *zap.Logger) *Evaluator {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		engine:     engine,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// perspectiveResult carries one call's outcome back from its goroutine
type perspectiveResult struct {
	assessment model.PerspectiveAssessment
	signals    []model.Signal
	err        error
}

// EvaluateSubClaim issues both perspective calls for one sub-claim. The
// calls run concurrently; both prompts are constructed from the evidence
// snapshot before either call is issued. Returns an error only on context
// cancellation; engine failures degrade to conservative defaults.
func (e *Evaluator) EvaluateSubClaim(ctx context.Context, claim model.Claim, sub model.SubClaim, evidence model.EvidenceSet) (support, contradiction model.PerspectiveAssessment, signals []model.Signal, err error) {
	evidenceText := FormatEvidence(evidence)
	supportPrompt := BuildSupportPrompt(claim, sub, evidenceText)
	contraPrompt := BuildContradictionPrompt(claim, sub, evidenceText)

	results := make([]perspectiveResult, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0] = e.evaluateOne(ctx, sub.ID, supportPrompt, model.PerspectiveSupport)
	}()
	go func() {
		defer wg.Done()
		results[1] = e.evaluateOne(ctx, sub.ID, contraPrompt, model.PerspectiveContradiction)
	}()
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return model.PerspectiveAssessment{}, model.PerspectiveAssessment{}, nil, r.err
		}
		signals = append(signals, r.signals...)
	}

	return results[0].assessment, results[1].assessment, signals, nil
}

// evaluateOne runs a single perspective call with bounded retries and
// conservative-default fallback. An unparseable response is never treated
// as strong support or strong contradiction.
func (e *Evaluator) evaluateOne(ctx context.Context, subClaimID, prompt string, perspective model.Perspective) perspectiveResult {
	var lastErr error

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return perspectiveResult{err: err}
		}

		raw, callErr := e.engine.Evaluate(ctx, prompt)
		if callErr != nil {
			if ctx.Err() != nil {
				return perspectiveResult{err: ctx.Err()}
			}
			lastErr = callErr
			delay := backoffDelay(attempt)
			e.logger.Warn("engine call failed, retrying",
				zap.String("sub_claim", subClaimID),
				zap.String("perspective", string(perspective)),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(callErr))
			if err := sleepFunc(ctx, delay); err != nil {
				return perspectiveResult{err: err}
			}
			continue
		}

		parsed, parseErr := parseAssessment(raw, perspective)
		if parseErr != nil {
			e.logger.Warn("engine response unparseable, using conservative default",
				zap.String("sub_claim", subClaimID),
				zap.String("perspective", string(perspective)),
				zap.Error(parseErr))
			return perspectiveResult{
				assessment: degradedAssessment(perspective, "response could not be parsed"),
				signals: []model.Signal{{
					Type:        model.SignalParseFallback,
					Severity:    model.SeverityWarning,
					Description: "reasoning engine response unrepairable, conservative default used",
					Data: map[string]any{
						"sub_claim":   subClaimID,
						"perspective": string(perspective),
						"parse_error": parseErr.Error(),
					},
				}},
			}
		}

		reasoning := parsed.Reasoning
		if parsed.Violation != "" {
			reasoning = reasoning + " (violation: " + parsed.Violation + ")"
		}
		return perspectiveResult{
			assessment: model.PerspectiveAssessment{
				Perspective: perspective,
				Confidence:  parsed.Confidence,
				Excerpts:    parsed.Excerpts,
				Reasoning:   reasoning,
			},
		}
	}

	e.logger.Warn("engine retries exhausted, using conservative default",
		zap.String("sub_claim", subClaimID),
		zap.String("perspective", string(perspective)),
		zap.Error(lastErr))
	return perspectiveResult{
		assessment: degradedAssessment(perspective, "engine unavailable after retries"),
		signals: []model.Signal{{
			Type:        model.SignalTransientFailure,
			Severity:    model.SeverityWarning,
			Description: "reasoning engine call failed after bounded retries",
			Data: map[string]any{
				"sub_claim":   subClaimID,
				"perspective": string(perspective),
				"last_error":  errString(lastErr),
			},
		}},
	}
}

// degradedAssessment is the conservative default: confidence 0, no excerpts
func degradedAssessment(perspective model.Perspective, reason string) model.PerspectiveAssessment {
	return model.PerspectiveAssessment{
		Perspective: perspective,
		Confidence:  0.0,
		Reasoning:   reason,
		Degraded:    true,
	}
}

// backoffDelay computes exponential backoff with jitter
func backoffDelay(attempt int) time.Duration {
	delay := baseRetryDelay * time.Duration(1<<uint(attempt))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	jitter := time.Duration(float64(delay) * 0.25 * (2*rand.Float64() - 1))
	return delay + jitter
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
