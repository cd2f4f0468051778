package progress

import (
	"time"

	"github.com/noah-isme/olympiad-progress-api/internal/rules"
)

// Evaluator checks badge predicates against one snapshot. Derived values are
// computed once per evaluator.
type Evaluator struct {
	table     rules.Table
	effective map[uint]Entry
	earned    int
	perfect   int
	days      []time.Time
}

// NewEvaluator prepares derived state for badge evaluation.
func NewEvaluator(table rules.Table, snapshot Snapshot, loc *time.Location) *Evaluator {
	return &Evaluator{
		table:     table,
		effective: snapshot.Effective(),
		earned:    EarnedPoints(snapshot, table.Points),
		perfect:   len(snapshot.PerfectAssignments()),
		days:      SubmissionDays(snapshot.Entries, loc),
	}
}

// EarnedPoints exposes the gross total used by point-threshold badges.
func (e *Evaluator) EarnedPoints() int {
	return e.earned
}

// Satisfied reports whether the badge condition currently holds.
func (e *Evaluator) Satisfied(badge rules.BadgeDefinition) bool {
	switch badge.Kind {
	case rules.BadgeFirstAttempt:
		return len(e.effective) > 0
	case rules.BadgePointThreshold:
		return e.earned >= badge.Threshold
	case rules.BadgePerfectAssignment:
		return e.perfect > 0
	case rules.BadgeSpeed:
		limit := e.table.Points.SpeedThresholdSeconds
		for _, entry := range e.effective {
			if entry.Outcome == OutcomeCorrect && entry.ElapsedSeconds <= limit {
				return true
			}
		}
		return false
	case rules.BadgeStreak:
		return HasConsecutiveDayRun(e.days, badge.Threshold)
	default:
		return false
	}
}

// Eligible returns catalog badges whose condition holds and that are not in
// alreadyAwarded, in catalog order.
func (e *Evaluator) Eligible(alreadyAwarded map[string]struct{}) []rules.BadgeDefinition {
	eligible := make([]rules.BadgeDefinition, 0)
	for _, badge := range e.table.Badges {
		if _, ok := alreadyAwarded[badge.ID]; ok {
			continue
		}
		if e.Satisfied(badge) {
			eligible = append(eligible, badge)
		}
	}
	return eligible
}
