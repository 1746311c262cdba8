package reason

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// fakeEngine scripts responses per perspective, keyed on the prompt text.
// respond receives the 1-based call count for that perspective.
type fakeEngine struct {
	mu           sync.Mutex
	supportCalls int
	contraCalls  int
	supportFn    func(call int) (string, error)
	contradictFn func(call int) (string, error)
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) IsAvailable(ctx context.Context) bool { return true }

func (f *fakeEngine) Evaluate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(prompt, "SUPPORTS") {
		f.supportCalls++
		return f.supportFn(f.supportCalls)
	}
	f.contraCalls++
	return f.contradictFn(f.contraCalls)
}

func alwaysReturn(raw string) func(int) (string, error) {
	return func(int) (string, error) { return raw, nil }
}

// noSleep replaces the retry backoff for the duration of a test
func noSleep(t *testing.T) {
	t.Helper()
	orig := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		return ctx.Err()
	}
	t.Cleanup(func() { sleepFunc = orig })
}

func testEvaluator(engine Engine, maxRetries int) *Evaluator {
	return NewEvaluator(engine, model.EngineConfig{
		RateLimit:  1000,
		MaxRetries: maxRetries,
	}, zap.NewNop())
}

func testInputs() (model.Claim, model.SubClaim, model.EvidenceSet) {
	claim := model.Claim{ID: "c-1", Character: "Edmond Dantes", Book: "monte_cristo", Text: "Dantes was imprisoned"}
	sub := model.SubClaim{ID: "sc-1", ParentClaimID: "c-1", Text: "Dantes was imprisoned", Type: model.ConstraintFactual}
	evidence := model.EvidenceSet{
		SubClaimID: "sc-1",
		Items: []model.Evidence{
			{ChunkID: "monte_cristo:0", Text: "He was thrown into the dungeon.", Slice: model.SliceEarly},
		},
	}
	return claim, sub, evidence
}

func TestEvaluateSubClaim_BothPerspectives(t *testing.T) {
	engine := &fakeEngine{
		supportFn:    alwaysReturn(`{"supporting_excerpts": ["thrown into the dungeon"], "support_confidence": 0.8, "support_reasoning": "direct match"}`),
		contradictFn: alwaysReturn(`{"contradicting_excerpts": [], "contradiction_confidence": 0.1, "contradiction_reasoning": "nothing conflicts", "violation_type": "none"}`),
	}
	eval := testEvaluator(engine, 3)
	claim, sub, evidence := testInputs()

	support, contradiction, signals, err := eval.EvaluateSubClaim(context.Background(), claim, sub, evidence)
	if err != nil {
		t.Fatalf("EvaluateSubClaim failed: %v", err)
	}
	if support.Perspective != model.PerspectiveSupport || support.Confidence != 0.8 {
		t.Errorf("unexpected support assessment: %+v", support)
	}
	if contradiction.Perspective != model.PerspectiveContradiction || contradiction.Confidence != 0.1 {
		t.Errorf("unexpected contradiction assessment: %+v", contradiction)
	}
	if support.Degraded || contradiction.Degraded {
		t.Error("healthy assessments must not be marked degraded")
	}
	if len(signals) != 0 {
		t.Errorf("expected no signals, got %v", signals)
	}
	if engine.supportCalls != 1 || engine.contraCalls != 1 {
		t.Errorf("expected exactly one call per perspective, got %d/%d", engine.supportCalls, engine.contraCalls)
	}
}

func TestEvaluateSubClaim_ViolationInReasoning(t *testing.T) {
	engine := &fakeEngine{
		supportFn:    alwaysReturn(`{"support_confidence": 0.2, "support_reasoning": "weak"}`),
		contradictFn: alwaysReturn(`{"contradiction_confidence": 0.9, "contradiction_reasoning": "he was at sea then", "violation_type": "temporal"}`),
	}
	eval := testEvaluator(engine, 3)
	claim, sub, evidence := testInputs()

	_, contradiction, _, err := eval.EvaluateSubClaim(context.Background(), claim, sub, evidence)
	if err != nil {
		t.Fatalf("EvaluateSubClaim failed: %v", err)
	}
	if !strings.Contains(contradiction.Reasoning, "(violation: temporal)") {
		t.Errorf("expected violation in reasoning, got %q", contradiction.Reasoning)
	}
}

func TestEvaluateSubClaim_ParseFallbackNoRetry(t *testing.T) {
	engine := &fakeEngine{
		supportFn:    alwaysReturn("I am unable to produce JSON for this."),
		contradictFn: alwaysReturn(`{"contradiction_confidence": 0.4}`),
	}
	eval := testEvaluator(engine, 5)
	claim, sub, evidence := testInputs()

	support, contradiction, signals, err := eval.EvaluateSubClaim(context.Background(), claim, sub, evidence)
	if err != nil {
		t.Fatalf("EvaluateSubClaim failed: %v", err)
	}
	if !support.Degraded || support.Confidence != 0.0 {
		t.Errorf("expected conservative default for support, got %+v", support)
	}
	if contradiction.Degraded {
		t.Error("contradiction perspective must not be affected by the support failure")
	}
	if engine.supportCalls != 1 {
		t.Errorf("parse failures must not be retried, got %d calls", engine.supportCalls)
	}
	if len(signals) != 1 || signals[0].Type != model.SignalParseFallback {
		t.Fatalf("expected one parse_fallback signal, got %v", signals)
	}
	if signals[0].Severity != model.SeverityWarning {
		t.Errorf("expected warning severity, got %s", signals[0].Severity)
	}
}

func TestEvaluateSubClaim_RetriesTransientError(t *testing.T) {
	noSleep(t)
	engine := &fakeEngine{
		supportFn: func(call int) (string, error) {
			if call < 3 {
				return "", errors.New("rate limited")
			}
			return `{"support_confidence": 0.7, "support_reasoning": "ok"}`, nil
		},
		contradictFn: alwaysReturn(`{"contradiction_confidence": 0.1}`),
	}
	eval := testEvaluator(engine, 5)
	claim, sub, evidence := testInputs()

	support, _, signals, err := eval.EvaluateSubClaim(context.Background(), claim, sub, evidence)
	if err != nil {
		t.Fatalf("EvaluateSubClaim failed: %v", err)
	}
	if support.Degraded || support.Confidence != 0.7 {
		t.Errorf("expected recovered assessment, got %+v", support)
	}
	if engine.supportCalls != 3 {
		t.Errorf("expected 3 support calls, got %d", engine.supportCalls)
	}
	if len(signals) != 0 {
		t.Errorf("recovered calls must not emit signals, got %v", signals)
	}
}

func TestEvaluateSubClaim_RetriesExhausted(t *testing.T) {
	noSleep(t)
	engine := &fakeEngine{
		supportFn:    func(int) (string, error) { return "", errors.New("connection refused") },
		contradictFn: alwaysReturn(`{"contradiction_confidence": 0.2}`),
	}
	eval := testEvaluator(engine, 3)
	claim, sub, evidence := testInputs()

	support, contradiction, signals, err := eval.EvaluateSubClaim(context.Background(), claim, sub, evidence)
	if err != nil {
		t.Fatalf("engine failure must degrade, not error: %v", err)
	}
	if !support.Degraded || support.Confidence != 0.0 {
		t.Errorf("expected conservative default, got %+v", support)
	}
	if contradiction.Degraded {
		t.Error("contradiction perspective must not be affected")
	}
	if engine.supportCalls != 3 {
		t.Errorf("expected maxRetries calls, got %d", engine.supportCalls)
	}
	if len(signals) != 1 || signals[0].Type != model.SignalTransientFailure {
		t.Fatalf("expected one transient_failure signal, got %v", signals)
	}
	if signals[0].Data["last_error"] != "connection refused" {
		t.Errorf("expected last_error in signal data, got %v", signals[0].Data)
	}
}

func TestEvaluateSubClaim_ContextCancelled(t *testing.T) {
	engine := &fakeEngine{
		supportFn:    alwaysReturn(`{"support_confidence": 0.5}`),
		contradictFn: alwaysReturn(`{"contradiction_confidence": 0.5}`),
	}
	eval := testEvaluator(engine, 3)
	claim, sub, evidence := testInputs()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, _, err := eval.EvaluateSubClaim(ctx, claim, sub, evidence)
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewEvaluator_Defaults(t *testing.T) {
	eval := NewEvaluator(&fakeEngine{}, model.EngineConfig{}, nil)
	if eval.maxRetries != defaultMaxRetries {
		t.Errorf("expected default max retries %d, got %d", defaultMaxRetries, eval.maxRetries)
	}
	if eval.logger == nil {
		t.Error("nil logger must be replaced with a no-op logger")
	}
}
