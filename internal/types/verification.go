package types

import "strings"

// Severity levels for verification issues.
const (
	SeverityCritical = "critical"
	SeverityMajor    = "major"
	SeverityMinor    = "minor"
	SeverityUnknown  = "unknown"
)

// VerificationIssue is a single problem reported by the verifier.
type VerificationIssue struct {
	Severity    string `json:"severity"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// VerificationResult is the verifier's structured judgement of one draft.
// A nil Issues slice means the verifier reported no issues array at all,
// which scores differently from an empty one (see scoring).
type VerificationResult struct {
	IsValid bool                `json:"isValid"`
	Issues  []VerificationIssue `json:"issues,omitempty"`
	Summary string              `json:"summary,omitempty"`
	// Fallback is true when the result was not produced by strict JSON
	// decoding (keyword heuristic or fail-open path).
	Fallback bool `json:"fallback,omitempty"`
}

// NormalizeSeverity maps free-form severity strings onto the known set.
func NormalizeSeverity(s string) string {
	switch lowered := strings.ToLower(strings.TrimSpace(s)); lowered {
	case SeverityCritical, SeverityMajor, SeverityMinor:
		return lowered
	default:
		return SeverityUnknown
	}
}
