package models

import "time"

// Submission outcomes.
const (
	OutcomeCorrect       = "correct"
	OutcomeIncorrect     = "incorrect"
	OutcomePendingReview = "pending-review"
)

// Submission is one ledger row for a (student, task) attempt. Only rows with a
// nil SupersededAt are effective; the partial unique index keeps at most one.
type Submission struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StudentID      uint       `gorm:"not null;uniqueIndex:idx_effective_submission,where:superseded_at IS NULL;index:idx_submission_student" json:"student_id"`
	TaskID         uint       `gorm:"not null;uniqueIndex:idx_effective_submission" json:"task_id"`
	AssignmentID   uint       `gorm:"not null;index" json:"assignment_id"`
	Answer         string     `gorm:"type:text" json:"answer"`
	AttachmentURL  string     `gorm:"size:512" json:"attachment_url,omitempty"`
	Outcome        string     `gorm:"size:32;not null" json:"outcome"`
	IsRetry        bool       `gorm:"not null;default:false" json:"is_retry"`
	ElapsedSeconds int        `gorm:"not null;default:0" json:"elapsed_seconds"`
	SubmittedAt    time.Time  `gorm:"not null" json:"submitted_at"`
	SupersededAt   *time.Time `json:"superseded_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// IsEffective reports whether the submission currently counts.
func (s Submission) IsEffective() bool {
	return s.SupersededAt == nil
}
