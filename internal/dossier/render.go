package dossier

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// Verdict badges for Markdown output
var badges = map[model.Verdict]string{
	model.VerdictSupported:    "SUPPORTED",
	model.VerdictContradicted: "CONTRADICTED",
	model.VerdictUndetermined: "UNDETERMINED",
}

// Human-readable aggregate rule descriptions, indexed by rule number
var aggregateRuleNames = map[int]string{
	1: "any sub-claim contradicted",
	2: "all sub-claims supported",
	3: "mixed or inconclusive",
}

var subClaimRuleNames = map[int]string{
	1: "contradiction override",
	2: "strong support, weak contradiction",
	3: "undetermined",
}

// RenderJSON writes the dossier as indented JSON
func RenderJSON(d *model.Dossier, path string) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dossier: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write dossier JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes the dossier as a human-readable Markdown record
func RenderMarkdown(d *model.Dossier, path string) error {
	if err := os.WriteFile(path, []byte(Markdown(d)), 0644); err != nil {
		return fmt.Errorf("write dossier markdown: %w", err)
	}
	return nil
}

// Markdown renders the full dossier: claim decomposition table, evidence map
// partitioned by stance and temporal slice, and the justification trace.
func Markdown(d *model.Dossier) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Dossier: %s\n\n", d.Claim.ID)
	fmt.Fprintf(&b, "**Claim:** %s\n\n", d.Claim.Text)
	fmt.Fprintf(&b, "**Character:** %s | **Book:** %s\n\n", d.Claim.Character, d.Claim.Book)
	fmt.Fprintf(&b, "**Verdict:** %s %s\n\n", badges[d.Aggregate.Verdict], confidenceBar(d.Aggregate.Confidence))
	fmt.Fprintf(&b, "Generated: %s\n\n", d.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("## Claim Decomposition\n\n")
	b.WriteString(decompositionTable(d))

	b.WriteString("\n## Dual-Perspective Analysis\n\n")
	for _, entry := range d.Entries {
		fmt.Fprintf(&b, "### %s: %s\n\n", entry.SubClaim.ID, entry.SubClaim.Text)
		fmt.Fprintf(&b, "- Support: %s", confidenceBar(entry.Support.Confidence))
		if entry.Support.Degraded {
			b.WriteString(" (degraded)")
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "- Contradiction: %s", confidenceBar(entry.Contradiction.Confidence))
		if entry.Contradiction.Degraded {
			b.WriteString(" (degraded)")
		}
		b.WriteString("\n")
		if entry.Support.Reasoning != "" {
			fmt.Fprintf(&b, "- Support reasoning: %s\n", entry.Support.Reasoning)
		}
		if entry.Contradiction.Reasoning != "" {
			fmt.Fprintf(&b, "- Contradiction reasoning: %s\n", entry.Contradiction.Reasoning)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Evidence by Stance and Temporal Slice\n\n")
	b.WriteString(evidenceMap(d))

	b.WriteString("## Justification Trace\n\n")
	for _, entry := range d.Entries {
		v := entry.Verdict
		fmt.Fprintf(&b, "- %s: %s (rule %d: %s) — %s\n",
			v.SubClaimID, badges[v.Verdict], v.Rule, subClaimRuleNames[v.Rule], v.Reasoning)
	}
	fmt.Fprintf(&b, "- AGGREGATE: %s (rule %d: %s) — %s\n",
		badges[d.Aggregate.Verdict], d.Aggregate.Rule, aggregateRuleNames[d.Aggregate.Rule], d.Aggregate.Reasoning)

	if len(d.Signals) > 0 {
		b.WriteString("\n## Degraded Conditions\n\n")
		for _, sig := range d.Signals {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", sig.Severity, sig.Type, sig.Description)
		}
	}

	return b.String()
}

func decompositionTable(d *model.Dossier) string {
	rows := []string{
		"| ID | Sub-Claim | Type | Verdict | Rule |",
		"|:---|:----------|:-----|:--------|:-----|",
	}
	for _, entry := range d.Entries {
		text := entry.SubClaim.Text
		if len(text) > 80 {
			text = text[:77] + "..."
		}
		rows = append(rows, fmt.Sprintf("| %s | %s | %s | %s | %d |",
			entry.SubClaim.ID, text, entry.SubClaim.Type, badges[entry.Verdict.Verdict], entry.Verdict.Rule))
	}
	return strings.Join(rows, "\n") + "\n"
}

// sliceHeadings label the temporal slices in the evidence map
var sliceHeadings = map[model.TemporalSlice]string{
	model.SliceEarly: "EARLY (first 30%)",
	model.SliceMid:   "MID (middle 40%)",
	model.SliceLate:  "LATE (final 30%)",
}

func evidenceMap(d *model.Dossier) string {
	var b strings.Builder
	byStance := d.EvidenceByStance()

	for _, stance := range []model.Stance{model.StanceSupporting, model.StanceContradicting} {
		fmt.Fprintf(&b, "### %s\n\n", strings.ToUpper(string(stance)))
		empty := true
		for _, slice := range model.AllSlices {
			items := byStance[stance][slice]
			if len(items) == 0 {
				continue
			}
			empty = false
			fmt.Fprintf(&b, "#### %s\n\n", sliceHeadings[slice])
			for _, ev := range items {
				text := ev.Text
				if len(text) > 600 {
					text = text[:597] + "..."
				}
				fmt.Fprintf(&b, "**%s** (chunk %d, score %.3f, query %s)\n\n> %s\n\n",
					ev.ChunkID, ev.ChunkIndex, ev.Score, ev.Query, text)
			}
		}
		if empty {
			b.WriteString("*No evidence tagged with this stance.*\n\n")
		}
	}

	// Coverage gaps are part of the evidence map: a missing slice is a
	// degraded condition, not corroborating absence.
	for _, entry := range d.Entries {
		for _, gap := range entry.Evidence.Gaps {
			fmt.Fprintf(&b, "*Coverage gap: no %s chunks available for %s.*\n\n", gap, entry.SubClaim.ID)
		}
	}

	return b.String()
}

// confidenceBar renders a ten-segment visual confidence bar
func confidenceBar(confidence float64) string {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	filled := int(confidence * 10)
	return fmt.Sprintf("[%s%s] %.0f%%", strings.Repeat("█", filled), strings.Repeat("░", 10-filled), confidence*100)
}
