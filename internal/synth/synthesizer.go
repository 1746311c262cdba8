package synth

import (
	"fmt"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// Rule numbers recorded in the justification trace
const (
	RuleContradictionOverride = 1 // contradiction above threshold wins
	RuleStrongSupport         = 2 // strong support with weak contradiction
	RuleUndetermined          = 3 // everything else

	AggRuleAnyContradicted = 1 // any sub-claim contradicted
	AggRuleAllSupported    = 2 // every sub-claim supported
	AggRuleUndetermined    = 3 // mixed or inconclusive
)

// Synthesizer applies the deterministic threshold rules. It is a pure
// function of its inputs: no engine calls, no randomness, no shared state.
// The system is deliberately biased toward UNDETERMINED over a false
// SUPPORTED: support alone is never sufficient while contradiction evidence
// sits above the sensitivity floor.
type Synthesizer struct {
	thresholds model.Thresholds
}

// NewSynthesizer creates a synthesizer with explicit thresholds
func NewSynthesizer(thresholds model.Thresholds) *Synthesizer {
	return &Synthesizer{thresholds: thresholds}
}

// SynthesizeSubClaim resolves one sub-claim's verdict from its two
// perspective confidences. Rules are evaluated in strict priority order;
// comparisons are strict so exact threshold values do not fire.
func (s *Synthesizer) SynthesizeSubClaim(sub model.SubClaim, support, contradiction model.PerspectiveAssessment) model.SubClaimVerdict {
	t := s.thresholds

	// Rule 1: contradiction above threshold overrides any support
	if contradiction.Confidence > t.Contradiction {
		conf := contradiction.Confidence + 0.1
		if conf > 0.95 {
			conf = 0.95
		}
		return model.SubClaimVerdict{
			SubClaimID: sub.ID,
			Verdict:    model.VerdictContradicted,
			Confidence: conf,
			Rule:       RuleContradictionOverride,
			Reasoning:  fmt.Sprintf("contradiction confidence %.2f exceeds threshold %.2f: %s", contradiction.Confidence, t.Contradiction, contradiction.Reasoning),
		}
	}

	// Rule 2: strong support, and contradiction below the sensitivity floor
	if support.Confidence > t.StrongSupport && contradiction.Confidence < t.WeakContradiction {
		return model.SubClaimVerdict{
			SubClaimID: sub.ID,
			Verdict:    model.VerdictSupported,
			Confidence: support.Confidence * 0.9,
			Rule:       RuleStrongSupport,
			Reasoning:  fmt.Sprintf("support confidence %.2f with weak contradiction %.2f: %s", support.Confidence, contradiction.Confidence, support.Reasoning),
		}
	}

	// Rule 3: everything else is undetermined, a valid business outcome
	conf := support.Confidence
	if conf > 0.5 {
		conf = 0.5
	}
	if conf < 0.3 {
		conf = 0.3
	}
	reasoning := "insufficient evidence to verify sub-claim"
	if support.Degraded || contradiction.Degraded {
		reasoning = "degraded assessment: conservative default in effect"
	} else if support.Confidence > contradiction.Confidence {
		reasoning = fmt.Sprintf("weak support without clear contradiction: %s", support.Reasoning)
	}
	return model.SubClaimVerdict{
		SubClaimID: sub.ID,
		Verdict:    model.VerdictUndetermined,
		Confidence: conf,
		Rule:       RuleUndetermined,
		Reasoning:  reasoning,
	}
}

// Aggregate combines sub-claim verdicts into the claim verdict. The rule is
// monotonic and order-independent: any permutation of the same verdict
// multiset yields the same aggregate. The compound claim is never re-asked
// of the reasoning engine.
func (s *Synthesizer) Aggregate(claimID string, verdicts []model.SubClaimVerdict) model.ClaimVerdict {
	if len(verdicts) == 0 {
		return model.ClaimVerdict{
			ClaimID:    claimID,
			Verdict:    model.VerdictUndetermined,
			Confidence: 0.3,
			Rule:       AggRuleUndetermined,
			Reasoning:  "no sub-claims to aggregate",
		}
	}

	contradicted := 0
	supported := 0
	var confSum float64
	for _, v := range verdicts {
		confSum += v.Confidence
		switch v.Verdict {
		case model.VerdictContradicted:
			contradicted++
		case model.VerdictSupported:
			supported++
		}
	}
	meanConf := confSum / float64(len(verdicts))

	switch {
	case contradicted > 0:
		return model.ClaimVerdict{
			ClaimID:    claimID,
			Verdict:    model.VerdictContradicted,
			Confidence: meanConf,
			Rule:       AggRuleAnyContradicted,
			Reasoning:  fmt.Sprintf("%d of %d sub-claims contradicted", contradicted, len(verdicts)),
		}
	case supported == len(verdicts):
		return model.ClaimVerdict{
			ClaimID:    claimID,
			Verdict:    model.VerdictSupported,
			Confidence: meanConf,
			Rule:       AggRuleAllSupported,
			Reasoning:  fmt.Sprintf("all %d sub-claims supported", len(verdicts)),
		}
	default:
		return model.ClaimVerdict{
			ClaimID:    claimID,
			Verdict:    model.VerdictUndetermined,
			Confidence: meanConf,
			Rule:       AggRuleUndetermined,
			Reasoning:  fmt.Sprintf("%d of %d sub-claims supported, none contradicted", supported, len(verdicts)),
		}
	}
}
