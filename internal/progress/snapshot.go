package progress

import "time"

// Entry is one ledger row as seen by the engine.
type Entry struct {
	TaskID         uint
	Outcome        Outcome
	Retry          bool
	ElapsedSeconds int
	SubmittedAt    time.Time
	Superseded     bool
}

// AssignmentTasks lists the task ids that make up one assignment.
type AssignmentTasks struct {
	AssignmentID uint
	TaskIDs      []uint
}

// Snapshot is a read-consistent view of a student's catalog and ledger.
// Entries include superseded rows; rules that count grading use Effective().
type Snapshot struct {
	StudentID   uint
	Assignments []AssignmentTasks
	Entries     []Entry
}

// Effective returns the currently counted submission per task.
// If the ledger ever carried two unsuperseded rows for a task, the latest wins.
func (s Snapshot) Effective() map[uint]Entry {
	effective := make(map[uint]Entry, len(s.Entries))
	for _, entry := range s.Entries {
		if entry.Superseded {
			continue
		}
		if current, ok := effective[entry.TaskID]; ok && current.SubmittedAt.After(entry.SubmittedAt) {
			continue
		}
		effective[entry.TaskID] = entry
	}
	return effective
}

// PerfectAssignments returns the ids of assignments with at least one task
// where every task has an effective correct submission.
func (s Snapshot) PerfectAssignments() []uint {
	effective := s.Effective()
	perfect := make([]uint, 0)
	for _, assignment := range s.Assignments {
		if isPerfect(assignment, effective) {
			perfect = append(perfect, assignment.AssignmentID)
		}
	}
	return perfect
}

func isPerfect(assignment AssignmentTasks, effective map[uint]Entry) bool {
	if len(assignment.TaskIDs) == 0 {
		return false
	}
	for _, taskID := range assignment.TaskIDs {
		entry, ok := effective[taskID]
		if !ok || entry.Outcome != OutcomeCorrect {
			return false
		}
	}
	return true
}
