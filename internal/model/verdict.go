package model

// Perspective identifies one of the two independent evaluation directions
type Perspective string

const (
	PerspectiveSupport       Perspective = "support"
	PerspectiveContradiction Perspective = "contradiction"
)

// PerspectiveAssessment is the result of one support-seeking or one
// contradiction-seeking evaluation call. The two assessments for a sub-claim
// are computed independently; neither sees the other's output.
type PerspectiveAssessment struct {
	Perspective Perspective `json:"perspective"`
	Confidence  float64     `json:"confidence"` // In [0,1]
	Excerpts    []string    `json:"excerpts,omitempty"`
	Reasoning   string      `json:"reasoning,omitempty"`

	// Degraded marks a conservative-default fallback after parse/retry
	// exhaustion. A degraded assessment always carries confidence 0.
	Degraded bool `json:"degraded,omitempty"`
}

// Verdict is the outcome for a sub-claim or claim
type Verdict string

const (
	VerdictSupported    Verdict = "supported"
	VerdictContradicted Verdict = "contradicted"
	VerdictUndetermined Verdict = "undetermined"
)

// SubClaimVerdict attaches a verdict and the threshold rule that fired
// (1=contradiction override, 2=strong support, 3=undetermined) to a sub-claim.
type SubClaimVerdict struct {
	SubClaimID string  `json:"sub_claim_id"`
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Rule       int     `json:"rule"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// ClaimVerdict is the aggregate over a claim's sub-claim verdicts.
// Rule numbering: 1=any sub-claim contradicted, 2=all supported, 3=otherwise.
type ClaimVerdict struct {
	ClaimID    string  `json:"claim_id"`
	Verdict    Verdict `json:"verdict"`
	Confidence float64 `json:"confidence"`
	Rule       int     `json:"rule"`
	Reasoning  string  `json:"reasoning,omitempty"`
}
