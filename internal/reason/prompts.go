package reason

import (
	"fmt"
	"strings"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// maxExcerptChars bounds evidence passages included in a prompt
const maxExcerptChars = 1500

// FormatEvidence renders an evidence set as prompt text, each passage
// prefixed with its temporal slice label. The formatted text is an immutable
// snapshot: both perspective prompts are built from it before either call is
// issued.
func FormatEvidence(set model.EvidenceSet) string {
	if len(set.Items) == 0 {
		return "(no evidence retrieved)"
	}

	parts := make([]string, 0, len(set.Items))
	for _, ev := range set.Items {
		text := ev.Text
		if len(text) > maxExcerptChars {
			text = text[:maxExcerptChars]
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", ev.Slice, text))
	}
	return strings.Join(parts, "\n\n")
}

// BuildSupportPrompt constructs the support-seeking prompt for a sub-claim
func BuildSupportPrompt(claim model.Claim, sub model.SubClaim, evidenceText string) string {
	return fmt.Sprintf(`Find evidence that SUPPORTS this claim being TRUE.

CLAIM: %q
CHARACTER: %q

EVIDENCE FROM NOVEL:
%s

What specific passages confirm or are consistent with this claim?
Focus on:
- Direct statements matching the claim
- Events that would require the claim to be true
- Character knowledge/actions consistent with the claim

Output JSON:
{
  "supporting_excerpts": ["quote1", "quote2"],
  "support_confidence": 0.0-1.0,
  "support_reasoning": "one sentence"
}`, sub.Text, claim.Character, evidenceText)
}

// BuildContradictionPrompt constructs the contradiction-seeking prompt.
// It never references the support perspective's output.
func BuildContradictionPrompt(claim model.Claim, sub model.SubClaim, evidenceText string) string {
	return fmt.Sprintf(`Find evidence that CONTRADICTS this claim or makes it IMPOSSIBLE.

CLAIM: %q
CHARACTER: %q

EVIDENCE FROM NOVEL:
%s

What specific passages conflict with or disprove this claim?
Focus on:
- Direct contradictions
- Impossible timelines (events that can't both be true)
- Missing knowledge the character should have
- Actions incompatible with the claimed background

Output JSON:
{
  "contradicting_excerpts": ["quote1", "quote2"],
  "contradiction_confidence": 0.0-1.0,
  "contradiction_reasoning": "one sentence",
  "violation_type": "temporal|capability|commitment|world_rule|psychological|factual|none"
}`, sub.Text, claim.Character, evidenceText)
}
