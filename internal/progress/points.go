package progress

import "github.com/noah-isme/olympiad-progress-api/internal/rules"

// PointsFor returns the contribution of a single effective submission.
func PointsFor(entry Entry, points rules.Points) int {
	switch entry.Outcome {
	case OutcomeCorrect:
		if entry.Retry {
			return points.PerRetryCorrect
		}
		return points.PerCorrect
	case OutcomeIncorrect:
		return points.PerAttempt
	case OutcomePendingReview:
		return points.PerOpenEnded
	default:
		return 0
	}
}

// EarnedPoints is the gross point total: per-submission values of every
// effective submission plus the perfect-assignment bonus for each assignment
// that is currently all-correct.
func EarnedPoints(snapshot Snapshot, points rules.Points) int {
	total := 0
	for _, entry := range snapshot.Effective() {
		total += PointsFor(entry, points)
	}
	total += len(snapshot.PerfectAssignments()) * points.PerfectAssignmentBonus
	return total
}
