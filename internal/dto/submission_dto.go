package dto

import (
	"mime/multipart"
	"time"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
)

// SubmitRequest is the payload of a task answer. Photo is only accepted for
// open-ended tasks and is bound from the multipart "photo" field.
type SubmitRequest struct {
	Answer         string                `json:"answer" form:"answer" validate:"max=4000"`
	ElapsedSeconds *int                  `json:"elapsed_seconds" form:"elapsed_seconds" validate:"omitempty,gte=0,lte=86400"`
	Photo          *multipart.FileHeader `json:"-" form:"-"`
}

// SubmissionListQuery describes query string filters for the submission ledger.
type SubmissionListQuery struct {
	TaskID            *uint `query:"task_id"`
	IncludeSuperseded bool  `query:"include_superseded"`
}

// SubmissionResponse is returned to API clients when viewing ledger rows.
type SubmissionResponse struct {
	ID             uint       `json:"id"`
	StudentID      uint       `json:"student_id"`
	TaskID         uint       `json:"task_id"`
	AssignmentID   uint       `json:"assignment_id"`
	Answer         string     `json:"answer"`
	AttachmentURL  string     `json:"attachment_url,omitempty"`
	Outcome        string     `json:"outcome"`
	IsRetry        bool       `json:"is_retry"`
	Effective      bool       `json:"effective"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	SupersededAt   *time.Time `json:"superseded_at,omitempty"`
}

// SubmitResponse reports the graded submission together with its effect on progress.
type SubmitResponse struct {
	Submission    SubmissionResponse `json:"submission"`
	PointsAwarded int                `json:"points_awarded"`
	EarnedPoints  int                `json:"earned_points"`
	NewBadges     []BadgeResponse    `json:"new_badges"`
}

// TaskViewResponse acknowledges that a task was opened.
type TaskViewResponse struct {
	TaskID   uint      `json:"task_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:             model.ID,
		StudentID:      model.StudentID,
		TaskID:         model.TaskID,
		AssignmentID:   model.AssignmentID,
		Answer:         model.Answer,
		AttachmentURL:  model.AttachmentURL,
		Outcome:        model.Outcome,
		IsRetry:        model.IsRetry,
		Effective:      model.IsEffective(),
		ElapsedSeconds: model.ElapsedSeconds,
		SubmittedAt:    model.SubmittedAt,
		SupersededAt:   model.SupersededAt,
	}
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
