package model

import "time"

// DossierEntry pairs one sub-claim with its verdict and both perspective
// assessments.
type DossierEntry struct {
	SubClaim      SubClaim              `json:"sub_claim"`
	Evidence      EvidenceSet           `json:"evidence"`
	Support       PerspectiveAssessment `json:"support"`
	Contradiction PerspectiveAssessment `json:"contradiction"`
	Verdict       SubClaimVerdict       `json:"verdict"`
}

// Dossier is the terminal artifact for one claim: the full evidentiary
// trail. Created once, immutable, fully reconstructable from the data model
// with no lossy summarization of which rule fired.
type Dossier struct {
	Claim       Claim          `json:"claim"`
	Entries     []DossierEntry `json:"entries"`
	Aggregate   ClaimVerdict   `json:"aggregate"`
	Signals     []Signal       `json:"signals,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// EvidenceByStance partitions all evidence across entries by stance, then by
// temporal slice. Unassessed evidence is omitted.
func (d *Dossier) EvidenceByStance() map[Stance]map[TemporalSlice][]Evidence {
	out := map[Stance]map[TemporalSlice][]Evidence{
		StanceSupporting:    make(map[TemporalSlice][]Evidence),
		StanceContradicting: make(map[TemporalSlice][]Evidence),
	}
	for _, entry := range d.Entries {
		for _, ev := range entry.Evidence.Items {
			if ev.Stance == StanceUnassessed {
				continue
			}
			out[ev.Stance][ev.Slice] = append(out[ev.Stance][ev.Slice], ev)
		}
	}
	return out
}
