package reason

import (
	"strings"
	"testing"

	"github.com/veracity-tools/lorecheck/internal/model"
)

func TestFormatEvidence_Empty(t *testing.T) {
	set := model.EvidenceSet{SubClaimID: "sc-1"}
	if got := FormatEvidence(set); got != "(no evidence retrieved)" {
		t.Errorf("unexpected output for empty set: %q", got)
	}
}

func TestFormatEvidence_SliceLabels(t *testing.T) {
	set := model.EvidenceSet{
		SubClaimID: "sc-1",
		Items: []model.Evidence{
			{Text: "Dantes boarded the Pharaon.", Slice: model.SliceEarly},
			{Text: "He dug through the wall.", Slice: model.SliceMid},
		},
	}

	got := FormatEvidence(set)
	want := "[EARLY] Dantes boarded the Pharaon.\n\n[MID] He dug through the wall."
	if got != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
}

func TestFormatEvidence_TruncatesLongExcerpts(t *testing.T) {
	long := strings.Repeat("a", maxExcerptChars+200)
	set := model.EvidenceSet{
		Items: []model.Evidence{{Text: long, Slice: model.SliceLate}},
	}

	got := FormatEvidence(set)
	// "[LATE] " prefix plus the truncated excerpt
	if len(got) != len("[LATE] ")+maxExcerptChars {
		t.Errorf("expected excerpt truncated to %d chars, got total length %d", maxExcerptChars, len(got))
	}
}

func TestBuildSupportPrompt(t *testing.T) {
	claim := model.Claim{Character: "Edmond Dantes", Book: "monte_cristo"}
	sub := model.SubClaim{Text: "Dantes was imprisoned in the Chateau d'If"}

	prompt := BuildSupportPrompt(claim, sub, "[EARLY] evidence text")

	for _, want := range []string{
		"SUPPORTS",
		`"Dantes was imprisoned in the Chateau d'If"`,
		`"Edmond Dantes"`,
		"[EARLY] evidence text",
		"supporting_excerpts",
		"support_confidence",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("support prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "contradiction") {
		t.Error("support prompt must not mention the contradiction perspective")
	}
}

func TestBuildContradictionPrompt(t *testing.T) {
	claim := model.Claim{Character: "Edmond Dantes", Book: "monte_cristo"}
	sub := model.SubClaim{Text: "Dantes never left Marseilles"}

	prompt := BuildContradictionPrompt(claim, sub, "[MID] evidence text")

	for _, want := range []string{
		"CONTRADICTS",
		`"Dantes never left Marseilles"`,
		"[MID] evidence text",
		"contradicting_excerpts",
		"contradiction_confidence",
		"violation_type",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("contradiction prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "support_confidence") {
		t.Error("contradiction prompt must not mention the support perspective")
	}
}
