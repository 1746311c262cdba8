package decompose

import (
	"fmt"
	"strings"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// Decomposer splits a claim into atomic sub-claims and assigns each a
// constraint type by cue matching. Decomposition is total: every claim
// yields at least one sub-claim and never fails; any parse ambiguity
// degrades to the single-sub-claim case.
type Decomposer struct {
	temporalCues      []string
	capabilityCues    []string
	commitmentCues    []string
	worldRuleCues     []string
	psychologicalCues []string
}

// NewDecomposer creates a decomposer with the default cue lists
func NewDecomposer() *Decomposer {
	return &Decomposer{
		temporalCues: []string{
			"before", "after", "until", "later", "earlier", "then",
			"during", "by the time", "first", "finally", "eventually",
		},
		capabilityCues: []string{
			"could", "could not", "couldn't", "cannot", "can",
			"able to", "unable to", "knew how to", "capable of", "incapable",
		},
		commitmentCues: []string{
			"promised", "swore", "sworn", "oath", "vowed", "vow",
			"pledged", "loyal", "loyalty", "betrayed", "devoted", "allegiance",
		},
		worldRuleCues: []string{
			"magic", "spell", "curse", "cursed", "forbidden", "impossible",
			"law of", "custom", "ritual", "prophecy",
		},
		psychologicalCues: []string{
			"believed", "feared", "afraid", "hoped", "hated", "trusted",
			"wanted", "desired", "dreamed", "doubted",
		},
	}
}

// Clause boundaries that may separate independently checkable facts
var clauseSeparators = []string{"; ", ", and ", ", but ", " and ", " but ", " while "}

// minClauseWords is the smallest segment still considered an independently
// checkable fact; shorter fragments abort the split.
const minClauseWords = 3

// Decompose splits a claim on explicit conjunction boundaries. A claim with
// no such boundary yields exactly one sub-claim equal to the original text.
func (d *Decomposer) Decompose(claim model.Claim) []model.SubClaim {
	segments := splitClauses(claim.Text)

	if len(segments) < 2 {
		return []model.SubClaim{d.subClaim(claim, 1, claim.Text)}
	}

	// Every segment must look independently checkable, otherwise degrade
	// to the single-sub-claim case.
	for _, seg := range segments {
		if len(strings.Fields(seg)) < minClauseWords {
			return []model.SubClaim{d.subClaim(claim, 1, claim.Text)}
		}
	}

	subClaims := make([]model.SubClaim, 0, len(segments))
	for i, seg := range segments {
		subClaims = append(subClaims, d.subClaim(claim, i+1, seg))
	}
	return subClaims
}

func (d *Decomposer) subClaim(claim model.Claim, ordinal int, text string) model.SubClaim {
	text = strings.TrimSpace(text)
	if text == "" {
		text = claim.Text
	}
	return model.SubClaim{
		ID:            fmt.Sprintf("SC%d", ordinal),
		ParentClaimID: claim.ID,
		Text:          text,
		Type:          d.Classify(text),
	}
}

// Classify assigns exactly one constraint type by cue matching. This is a
// best-effort heuristic, not an oracle: ambiguous phrasing defaults to
// FACTUAL. Pure function of the text.
func (d *Decomposer) Classify(text string) model.ConstraintType {
	normalized := normalizeForCues(text)

	switch {
	case containsAnyCue(normalized, d.temporalCues):
		return model.ConstraintTemporal
	case containsAnyCue(normalized, d.capabilityCues):
		return model.ConstraintCapability
	case containsAnyCue(normalized, d.commitmentCues):
		return model.ConstraintCommitment
	case containsAnyCue(normalized, d.worldRuleCues):
		return model.ConstraintWorldRule
	case containsAnyCue(normalized, d.psychologicalCues):
		return model.ConstraintPsychological
	default:
		return model.ConstraintFactual
	}
}

// splitClauses splits on the first separator that produces multiple segments
func splitClauses(text string) []string {
	for _, sep := range clauseSeparators {
		if !strings.Contains(text, sep) {
			continue
		}
		parts := strings.Split(text, sep)
		var segments []string
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				segments = append(segments, p)
			}
		}
		if len(segments) >= 2 {
			return segments
		}
	}
	return []string{strings.TrimSpace(text)}
}

// normalizeForCues lowercases and strips punctuation so cue matching works
// on word boundaries.
func normalizeForCues(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch r {
		case '.', ',', ';', ':', '!', '?', '"', '(', ')':
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return " " + strings.Join(strings.Fields(b.String()), " ") + " "
}

func containsAnyCue(normalized string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(normalized, " "+cue+" ") {
			return true
		}
	}
	return false
}
