// Package progress holds the pure rules that turn a student's submission
// ledger into points, levels, streaks and badge eligibility.
package progress

import (
	"fmt"
	"strings"
)

// TaskKind is the closed set of task formats.
type TaskKind int

const (
	KindChoice TaskKind = iota + 1
	KindShortAnswer
	KindOpenEnded
)

// Stored names of each task kind.
const (
	KindNameChoice      = "choice"
	KindNameShortAnswer = "short-answer"
	KindNameOpenEnded   = "open-ended"
)

// ParseTaskKind converts a stored kind name into a TaskKind.
func ParseTaskKind(value string) (TaskKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case KindNameChoice:
		return KindChoice, nil
	case KindNameShortAnswer:
		return KindShortAnswer, nil
	case KindNameOpenEnded:
		return KindOpenEnded, nil
	default:
		return 0, fmt.Errorf("unknown task kind %q", value)
	}
}

func (k TaskKind) String() string {
	switch k {
	case KindChoice:
		return KindNameChoice
	case KindShortAnswer:
		return KindNameShortAnswer
	case KindOpenEnded:
		return KindNameOpenEnded
	default:
		return fmt.Sprintf("TaskKind(%d)", int(k))
	}
}

// AutoGraded reports whether answers of this kind are compared against a key.
func (k TaskKind) AutoGraded() bool {
	return k == KindChoice || k == KindShortAnswer
}

// Outcome is the graded result of a submission.
type Outcome string

const (
	OutcomeCorrect       Outcome = "correct"
	OutcomeIncorrect     Outcome = "incorrect"
	OutcomePendingReview Outcome = "pending-review"
)

// Grade evaluates an answer. Choice and short-answer tasks compare the trimmed,
// case-folded answer with the key; open-ended tasks always wait for review.
func Grade(kind TaskKind, correctAnswer, answer string) (Outcome, error) {
	switch kind {
	case KindChoice, KindShortAnswer:
		if normalizeAnswer(answer) == normalizeAnswer(correctAnswer) {
			return OutcomeCorrect, nil
		}
		return OutcomeIncorrect, nil
	case KindOpenEnded:
		return OutcomePendingReview, nil
	default:
		return "", fmt.Errorf("cannot grade %s", kind)
	}
}

func normalizeAnswer(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
