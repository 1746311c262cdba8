package model

// Signal records a degraded condition encountered while verifying a claim.
// Signals are diagnostics with transparent data; they never abort a run.
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies the degraded condition
type SignalType string

const (
	SignalCoverageGap      SignalType = "coverage_gap"      // A temporal slice had no chunks for the book
	SignalParseFallback    SignalType = "parse_fallback"    // Engine response unrepairable, conservative default used
	SignalTransientFailure SignalType = "transient_failure" // Remote call failed after bounded retries
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
