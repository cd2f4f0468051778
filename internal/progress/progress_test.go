package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-progress-api/internal/rules"
)

var testPoints = rules.Points{
	PerCorrect:             10,
	PerRetryCorrect:        5,
	PerAttempt:             2,
	PerOpenEnded:           5,
	PerfectAssignmentBonus: 20,
	SpeedThresholdSeconds:  60,
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 15, 30, 0, 0, time.UTC)
}

func TestGrade(t *testing.T) {
	cases := []struct {
		name    string
		kind    TaskKind
		key     string
		answer  string
		outcome Outcome
	}{
		{"choice exact", KindChoice, "B", "B", OutcomeCorrect},
		{"choice case and spaces", KindChoice, " Seven ", "seVEN  ", OutcomeCorrect},
		{"choice wrong", KindChoice, "B", "C", OutcomeIncorrect},
		{"short answer", KindShortAnswer, "42", " 42", OutcomeCorrect},
		{"short answer wrong", KindShortAnswer, "42", "24", OutcomeIncorrect},
		{"open ended ignores key", KindOpenEnded, "", "a long proof", OutcomePendingReview},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			outcome, err := Grade(tc.kind, tc.key, tc.answer)
			require.NoError(t, err)
			require.Equal(t, tc.outcome, outcome)
		})
	}

	_, err := Grade(TaskKind(99), "a", "a")
	require.Error(t, err)
}

func TestParseTaskKind(t *testing.T) {
	kind, err := ParseTaskKind(" Short-Answer ")
	require.NoError(t, err)
	require.Equal(t, KindShortAnswer, kind)
	require.Equal(t, "short-answer", kind.String())
	require.False(t, KindOpenEnded.AutoGraded())

	_, err = ParseTaskKind("multiple_choice")
	require.Error(t, err)
}

func TestEarnedPointsPerOutcome(t *testing.T) {
	snapshot := Snapshot{
		Entries: []Entry{
			{TaskID: 1, Outcome: OutcomeCorrect, SubmittedAt: day(2026, 2, 1)},
			{TaskID: 2, Outcome: OutcomeIncorrect, SubmittedAt: day(2026, 2, 1)},
			{TaskID: 3, Outcome: OutcomePendingReview, SubmittedAt: day(2026, 2, 1)},
		},
	}
	require.Equal(t, 10+2+5, EarnedPoints(snapshot, testPoints))
	require.Zero(t, EarnedPoints(Snapshot{}, testPoints))
}

func TestPerfectAssignmentBonusAppearsAndDisappears(t *testing.T) {
	assignment := AssignmentTasks{AssignmentID: 7, TaskIDs: []uint{1, 2, 3}}
	snapshot := Snapshot{
		Assignments: []AssignmentTasks{assignment, {AssignmentID: 8}},
		Entries: []Entry{
			{TaskID: 1, Outcome: OutcomeCorrect, SubmittedAt: day(2026, 2, 1)},
			{TaskID: 2, Outcome: OutcomeCorrect, SubmittedAt: day(2026, 2, 1)},
			{TaskID: 3, Outcome: OutcomeCorrect, SubmittedAt: day(2026, 2, 1)},
		},
	}
	require.Equal(t, []uint{7}, snapshot.PerfectAssignments(), "empty assignments never count")
	require.Equal(t, 3*10+20, EarnedPoints(snapshot, testPoints))

	// retry task 3 and answer it incorrectly
	snapshot.Entries[2].Superseded = true
	snapshot.Entries = append(snapshot.Entries, Entry{TaskID: 3, Outcome: OutcomeIncorrect, Retry: true, SubmittedAt: day(2026, 2, 2)})
	require.Empty(t, snapshot.PerfectAssignments())
	require.Equal(t, 2*10+2, EarnedPoints(snapshot, testPoints))
}

func TestRetryReplacesPreviousContribution(t *testing.T) {
	snapshot := Snapshot{
		Entries: []Entry{
			{TaskID: 1, Outcome: OutcomeIncorrect, SubmittedAt: day(2026, 2, 1)},
		},
	}
	before := EarnedPoints(snapshot, testPoints)
	require.Equal(t, testPoints.PerAttempt, before)

	snapshot.Entries[0].Superseded = true
	snapshot.Entries = append(snapshot.Entries, Entry{TaskID: 1, Outcome: OutcomeCorrect, Retry: true, SubmittedAt: day(2026, 2, 2)})
	after := EarnedPoints(snapshot, testPoints)
	require.Equal(t, testPoints.PerRetryCorrect, after)
	require.GreaterOrEqual(t, after, before)
}

func TestEarnedPointsNeverDecreasesAsSubmissionsAccumulate(t *testing.T) {
	outcomes := []Outcome{OutcomeIncorrect, OutcomeCorrect, OutcomePendingReview, OutcomeCorrect, OutcomeIncorrect}
	snapshot := Snapshot{Assignments: []AssignmentTasks{{AssignmentID: 1, TaskIDs: []uint{1, 2, 3, 4, 5}}}}

	previous := 0
	for i, outcome := range outcomes {
		snapshot.Entries = append(snapshot.Entries, Entry{TaskID: uint(i + 1), Outcome: outcome, SubmittedAt: day(2026, 2, 1)})
		current := EarnedPoints(snapshot, testPoints)
		require.GreaterOrEqual(t, current, previous)
		previous = current
	}
}

func TestResolveLevel(t *testing.T) {
	tiers := []rules.LevelTier{
		{Name: "Novice", MinPoints: 0},
		{Name: "Learner", MinPoints: 30},
		{Name: "Solver", MinPoints: 80},
	}

	level := ResolveLevel(79, tiers)
	require.Equal(t, "Learner", level.Current.Name)
	require.NotNil(t, level.Next)
	require.Equal(t, "Solver", level.Next.Name)
	require.Equal(t, 80, level.Next.MinPoints)
	require.Equal(t, 1, level.PointsToNext)

	level = ResolveLevel(80, tiers)
	require.Equal(t, "Solver", level.Current.Name)
	require.Nil(t, level.Next)
	require.Zero(t, level.PointsToNext)

	level = ResolveLevel(0, tiers)
	require.Equal(t, "Novice", level.Current.Name)
	require.Equal(t, 30, level.PointsToNext)
}

func TestConsecutiveDayRun(t *testing.T) {
	consecutive := []Entry{
		{TaskID: 1, SubmittedAt: day(2026, 2, 1)},
		{TaskID: 2, SubmittedAt: day(2026, 2, 2)},
		{TaskID: 3, SubmittedAt: day(2026, 2, 2).Add(3 * time.Hour)},
		{TaskID: 4, SubmittedAt: day(2026, 2, 3)},
	}
	days := SubmissionDays(consecutive, time.UTC)
	require.Len(t, days, 3)
	require.True(t, HasConsecutiveDayRun(days, 3))
	require.False(t, HasConsecutiveDayRun(days, 4))

	gaps := []Entry{
		{TaskID: 1, SubmittedAt: day(2026, 2, 1)},
		{TaskID: 2, SubmittedAt: day(2026, 2, 3)},
		{TaskID: 3, SubmittedAt: day(2026, 2, 5)},
	}
	require.False(t, HasConsecutiveDayRun(SubmissionDays(gaps, time.UTC), 3))
}

func TestConsecutiveDayRunIsHistoryWide(t *testing.T) {
	entries := []Entry{
		{TaskID: 1, SubmittedAt: day(2026, 1, 30)},
		{TaskID: 2, SubmittedAt: day(2026, 1, 31)},
		{TaskID: 3, SubmittedAt: day(2026, 2, 1)},
		{TaskID: 4, SubmittedAt: day(2026, 3, 15), Superseded: true},
	}
	days := SubmissionDays(entries, time.UTC)
	require.True(t, HasConsecutiveDayRun(days, 3), "run crossing a month boundary weeks ago still counts")
	require.Equal(t, 3, LongestRun(days))
}

func TestSubmissionDaysUseLocation(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*60*60)
	entries := []Entry{
		{TaskID: 1, SubmittedAt: time.Date(2026, 2, 1, 22, 0, 0, 0, time.UTC)}, // 2 Feb 01:00 MSK
		{TaskID: 2, SubmittedAt: time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)},
	}
	require.Len(t, SubmissionDays(entries, time.UTC), 2)
	require.Len(t, SubmissionDays(entries, moscow), 1)
}

func TestEvaluatorPredicates(t *testing.T) {
	table := rules.Default()
	snapshot := Snapshot{
		Assignments: []AssignmentTasks{{AssignmentID: 1, TaskIDs: []uint{1, 2}}},
		Entries: []Entry{
			{TaskID: 1, Outcome: OutcomeCorrect, ElapsedSeconds: 120, SubmittedAt: day(2026, 2, 1)},
			{TaskID: 2, Outcome: OutcomeIncorrect, ElapsedSeconds: 20, SubmittedAt: day(2026, 2, 2)},
		},
	}

	evaluator := NewEvaluator(table, snapshot, time.UTC)
	eligible := badgeIDs(evaluator.Eligible(nil))
	require.Equal(t, []string{"first_task"}, eligible)

	snapshot.Entries[1].Superseded = true
	snapshot.Entries = append(snapshot.Entries, Entry{TaskID: 2, Outcome: OutcomeCorrect, Retry: true, ElapsedSeconds: 15, SubmittedAt: day(2026, 2, 3)})

	evaluator = NewEvaluator(table, snapshot, time.UTC)
	require.Equal(t, 10+5+20, evaluator.EarnedPoints())
	eligible = badgeIDs(evaluator.Eligible(map[string]struct{}{"first_task": {}}))
	require.Equal(t, []string{"perfect_assignment", "speed_solver", "streak_3"}, eligible)
}

func TestEvaluatorPointThresholds(t *testing.T) {
	table := rules.Default()
	entries := make([]Entry, 0, 10)
	for i := 1; i <= 10; i++ {
		entries = append(entries, Entry{TaskID: uint(i), Outcome: OutcomeCorrect, ElapsedSeconds: 300, SubmittedAt: day(2026, 2, 1)})
	}
	evaluator := NewEvaluator(table, Snapshot{Entries: entries}, time.UTC)

	points50, _ := table.Badge("points_50")
	points100, _ := table.Badge("points_100")
	points250, _ := table.Badge("points_250")
	require.True(t, evaluator.Satisfied(points50))
	require.True(t, evaluator.Satisfied(points100))
	require.False(t, evaluator.Satisfied(points250))
}

func badgeIDs(badges []rules.BadgeDefinition) []string {
	ids := make([]string, 0, len(badges))
	for _, badge := range badges {
		ids = append(ids, badge.ID)
	}
	return ids
}
