package reason

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/veracity-tools/lorecheck/internal/model"
)

// payload is the parsed engine response for one perspective call
type payload struct {
	Confidence float64
	Excerpts   []string
	Reasoning  string
	Violation  string
}

// repairPass is one normalization step applied to a malformed response.
// Passes are cumulative: each one's output feeds the next parse attempt.
type repairPass struct {
	name  string
	apply func(string) string
}

var repairChain = []repairPass{
	{"strip_fences", stripMarkdownFences},
	{"strip_escapes", stripEscapeArtifacts},
	{"collapse_ranges", collapseConfidenceRanges},
	{"rebalance_quotes", rebalanceQuotes},
}

// parseAssessment decodes a raw engine response into a payload, repairing
// malformed output along the way. Returns an error only after every repair
// pass is exhausted; callers then fall back to the conservative default.
func parseAssessment(raw string, perspective model.Perspective) (payload, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return payload{}, fmt.Errorf("empty response")
	}

	fields, err := decodeObject(text)
	for _, pass := range repairChain {
		if err == nil {
			break
		}
		text = pass.apply(text)
		fields, err = decodeObject(text)
	}
	if err != nil {
		return payload{}, fmt.Errorf("unparseable response after repair: %w", err)
	}

	return extractPayload(fields, perspective)
}

func decodeObject(text string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func extractPayload(fields map[string]any, perspective model.Perspective) (payload, error) {
	var confKey, excerptKey, reasonKey string
	switch perspective {
	case model.PerspectiveSupport:
		confKey, excerptKey, reasonKey = "support_confidence", "supporting_excerpts", "support_reasoning"
	default:
		confKey, excerptKey, reasonKey = "contradiction_confidence", "contradicting_excerpts", "contradiction_reasoning"
	}

	confRaw, ok := fields[confKey]
	if !ok {
		confRaw, ok = fields["confidence"]
	}
	if !ok {
		return payload{}, fmt.Errorf("missing %s field", confKey)
	}

	conf, err := parseConfidence(confRaw)
	if err != nil {
		return payload{}, fmt.Errorf("parse %s: %w", confKey, err)
	}

	p := payload{Confidence: conf}

	if raw, ok := fields[excerptKey]; !ok {
		if raw, ok = fields["excerpts"]; ok {
			p.Excerpts = toStrings(raw)
		}
	} else {
		p.Excerpts = toStrings(raw)
	}

	if s, ok := fields[reasonKey].(string); ok {
		p.Reasoning = s
	}
	if s, ok := fields["violation_type"].(string); ok && s != "none" {
		p.Violation = s
	}

	return p, nil
}

// parseConfidence resolves a confidence value that may arrive as a number,
// a quoted number, or a numeric range (resolved to the range midpoint).
// The result is clamped into [0,1].
func parseConfidence(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return clamp01(val), nil
	case string:
		s := strings.TrimSpace(val)
		if lo, hi, ok := splitRange(s); ok {
			return clamp01((lo + hi) / 2), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric confidence %q", s)
		}
		return clamp01(f), nil
	case []any:
		// Range expressed as a two-element array
		if len(val) == 2 {
			lo, loOK := val[0].(float64)
			hi, hiOK := val[1].(float64)
			if loOK && hiOK {
				return clamp01((lo + hi) / 2), nil
			}
		}
		return 0, fmt.Errorf("unexpected confidence array")
	default:
		return 0, fmt.Errorf("unexpected confidence type %T", v)
	}
}

var rangePattern = regexp.MustCompile(`^(\d*\.?\d+)\s*(?:-|–|to)\s*(\d*\.?\d+)$`)

func splitRange(s string) (lo, hi float64, ok bool) {
	m := rangePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lo, err1 := strconv.ParseFloat(m[1], 64)
	hi, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func toStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}

// stripMarkdownFences removes ``` code fences around the JSON body
func stripMarkdownFences(text string) string {
	if strings.Contains(text, "```json") {
		parts := strings.SplitN(text, "```json", 2)
		inner := strings.SplitN(parts[1], "```", 2)
		return strings.TrimSpace(inner[0])
	}
	if strings.Contains(text, "```") {
		var kept []string
		for _, line := range strings.Split(text, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "```") {
				continue
			}
			kept = append(kept, line)
		}
		return strings.TrimSpace(strings.Join(kept, "\n"))
	}
	return text
}

var invalidEscapePattern = regexp.MustCompile(`\\([^"\\/bfnrtu])`)

// stripEscapeArtifacts removes backslash escapes that are not valid JSON
// (a common artifact when engines double-escape apostrophes or underscores).
func stripEscapeArtifacts(text string) string {
	return invalidEscapePattern.ReplaceAllString(text, "$1")
}

var fieldRangePattern = regexp.MustCompile(`("(?:support_|contradiction_)?confidence"\s*:\s*"?)(\d*\.?\d+)\s*(?:-|–|to)\s*(\d*\.?\d+)("?)`)

// collapseConfidenceRanges rewrites a confidence expressed as a numeric
// range into its midpoint so the field decodes as a scalar.
func collapseConfidenceRanges(text string) string {
	return fieldRangePattern.ReplaceAllStringFunc(text, func(match string) string {
		m := fieldRangePattern.FindStringSubmatch(match)
		lo, err1 := strconv.ParseFloat(m[2], 64)
		hi, err2 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil {
			return match
		}
		return fmt.Sprintf("%s%.3f%s", m[1], (lo+hi)/2, m[4])
	})
}

var quotedFieldPattern = regexp.MustCompile(`^(\s*"[^"]+"\s*:\s*")(.*)("\s*,?\s*)$`)

// rebalanceQuotes escapes unescaped double quotes nested inside string
// values, repairing lines like: "reasoning": "he said "no" twice",
func rebalanceQuotes(text string) string {
	// Normalize typographic quotes first
	replacer := strings.NewReplacer("“", `\"`, "”", `\"`, "‘", "'", "’", "'")
	text = replacer.Replace(text)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		m := quotedFieldPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		inner := m[2]
		if strings.Contains(inner, `"`) && !strings.Contains(inner, `\"`) {
			lines[i] = m[1] + strings.ReplaceAll(inner, `"`, `\"`) + m[3]
		}
	}
	return strings.Join(lines, "\n")
}
