// Package scoring converts verification results into severity scores and
// selects the best candidate among a pipeline's attempts. All functions
// are pure so the selection logic stays independently testable.
package scoring

import "github.com/jonathan/podcast-scripter/internal/types"

// Severity weights. Issues the verifier could not classify still count.
const (
	weightCritical = 5
	weightMajor    = 3
	weightMinor    = 1
	weightUnknown  = 2
)

// Score computes the severity score of a verification result. Lower is
// better; zero means no recorded problems. When the verifier reported no
// issues array at all, a valid result scores 0 and an invalid one scores 1.
func Score(result *types.VerificationResult) int {
	if result == nil {
		return 0
	}
	if result.Issues == nil {
		if result.IsValid {
			return 0
		}
		return 1
	}

	total := 0
	for _, issue := range result.Issues {
		switch types.NormalizeSeverity(issue.Severity) {
		case types.SeverityCritical:
			total += weightCritical
		case types.SeverityMajor:
			total += weightMajor
		case types.SeverityMinor:
			total += weightMinor
		default:
			total += weightUnknown
		}
	}
	return total
}

// SelectBest returns the attempt with the minimal score. Ties break first
// by fewer issues, then by the latest attempt index, preferring the most
// recently revised text. Returns false when attempts is empty. The result
// does not depend on input ordering.
func SelectBest(attempts []types.GenerationAttempt) (types.GenerationAttempt, bool) {
	if len(attempts) == 0 {
		return types.GenerationAttempt{}, false
	}

	best := attempts[0]
	for _, candidate := range attempts[1:] {
		if better(candidate, best) {
			best = candidate
		}
	}
	return best, true
}

func better(a, b types.GenerationAttempt) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if issueCount(a) != issueCount(b) {
		return issueCount(a) < issueCount(b)
	}
	return a.Index > b.Index
}

func issueCount(a types.GenerationAttempt) int {
	if a.Verification == nil {
		return 0
	}
	return len(a.Verification.Issues)
}
