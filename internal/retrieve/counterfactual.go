package retrieve

import (
	"fmt"
	"strings"
)

// negationPatterns rewrite a claim into a counterfactual phrasing. The first
// matching pattern wins; a claim with no matching pattern is queried as-is
// (the query still pulls contradiction-adjacent passages by proximity).
var negationPatterns = [][2]string{
	{"was", "was not"},
	{"had", "never had"},
	{"could", "could not"},
	{"did", "did not"},
	{"always", "never"},
	{"before", "after"},
}

// Counterfactual builds a query optimized to surface CONTRADICTING evidence
// for a sub-claim, not just confirmation.
func Counterfactual(claimText, character string) string {
	counterfactual := claimText
	lower := strings.ToLower(counterfactual)
	for _, pair := range negationPatterns {
		if strings.Contains(lower, pair[0]) {
			counterfactual = strings.Replace(lower, pair[0], pair[1], 1)
			break
		}
	}
	return fmt.Sprintf("%s: %s", character, counterfactual)
}

// Direct builds the standard retrieval query for a sub-claim
func Direct(claimText, character string) string {
	return fmt.Sprintf("%s: %s", character, claimText)
}
