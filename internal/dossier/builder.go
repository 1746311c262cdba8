package dossier

import (
	"strings"
	"time"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// Build assembles the terminal audit artifact for one claim. Pure and
// deterministic given its inputs; performs no external calls. The dossier is
// fully reconstructable from the data model, including which rule fired for
// every sub-claim and for the aggregate.
func Build(claim model.Claim, entries []model.DossierEntry, aggregate model.ClaimVerdict, signals []model.Signal, generatedAt time.Time) model.Dossier {
	tagged := make([]model.DossierEntry, len(entries))
	for i, entry := range entries {
		entry.Evidence = tagStances(entry.Evidence, entry.Support, entry.Contradiction)
		tagged[i] = entry
	}

	return model.Dossier{
		Claim:       claim,
		Entries:     tagged,
		Aggregate:   aggregate,
		Signals:     signals,
		GeneratedAt: generatedAt.UTC(),
	}
}

// tagStances marks each evidence item cited by a perspective's excerpts.
// Contradiction citations take precedence when both perspectives cite the
// same chunk, consistent with the pipeline's contradiction-first bias.
func tagStances(set model.EvidenceSet, support, contradiction model.PerspectiveAssessment) model.EvidenceSet {
	items := make([]model.Evidence, len(set.Items))
	copy(items, set.Items)

	for i := range items {
		if citedBy(items[i].Text, contradiction.Excerpts) {
			items[i].Stance = model.StanceContradicting
		} else if citedBy(items[i].Text, support.Excerpts) {
			items[i].Stance = model.StanceSupporting
		}
	}

	set.Items = items
	return set
}

// citedBy reports whether any excerpt appears within the chunk text.
// Excerpts are engine quotations, so a containment check after whitespace
// normalization is the strongest match available.
func citedBy(chunkText string, excerpts []string) bool {
	normalized := normalizeWS(chunkText)
	for _, ex := range excerpts {
		ex = normalizeWS(ex)
		if ex == "" {
			continue
		}
		if strings.Contains(normalized, ex) {
			return true
		}
	}
	return false
}

func normalizeWS(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
