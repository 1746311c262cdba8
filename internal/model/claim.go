package model

// Claim is an input assertion about a character in a book. Immutable once
// submitted.
type Claim struct {
	ID        string `json:"claim_id"`
	Character string `json:"character"`
	Book      string `json:"book_name"`
	Text      string `json:"claim_text"`

	// Label is an optional ground-truth value (1=consistent, 0=contradicted)
	// carried only for evaluation runs; it never influences verification.
	Label *int `json:"label,omitempty"`
}

// ConstraintType categorizes the nature of a sub-claim
type ConstraintType string

const (
	ConstraintTemporal      ConstraintType = "temporal"      // Events that must occur in a specific order
	ConstraintCapability    ConstraintType = "capability"    // What the character can/cannot do
	ConstraintCommitment    ConstraintType = "commitment"    // Promises, oaths, loyalties
	ConstraintWorldRule     ConstraintType = "world_rule"    // Laws of the narrative world
	ConstraintPsychological ConstraintType = "psychological" // Beliefs, fears, motivations
	ConstraintFactual       ConstraintType = "factual"       // Concrete facts (names, places, relationships)
)

// SubClaim is an atomic decomposition of a Claim. Created once by the
// decomposer, immutable afterward.
type SubClaim struct {
	ID            string         `json:"id"`
	ParentClaimID string         `json:"parent_claim_id"`
	Text          string         `json:"text"`
	Type          ConstraintType `json:"type"`
}
