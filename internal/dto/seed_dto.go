package dto

import "time"

// SeedRequest is the initial dataset imported by the seed tool.
type SeedRequest struct {
	Students    []SeedStudent    `json:"students" validate:"dive"`
	Assignments []SeedAssignment `json:"assignments" validate:"dive"`
}

// SeedStudent describes one learner.
type SeedStudent struct {
	ID    uint   `json:"id" validate:"required,gt=0"`
	Name  string `json:"name" validate:"required,max=255"`
	Grade int    `json:"grade" validate:"gte=0,lte=12"`
	Color string `json:"color" validate:"omitempty,max=16"`
}

// SeedAssignment describes an assignment and its tasks.
type SeedAssignment struct {
	ID          uint       `json:"id" validate:"required,gt=0"`
	StudentID   uint       `json:"student_id" validate:"required,gt=0"`
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	IsActive    *bool      `json:"is_active"`
	Tasks       []SeedTask `json:"tasks" validate:"dive"`
}

// SeedTask describes one question.
type SeedTask struct {
	ID            uint     `json:"id" validate:"required,gt=0"`
	OrderIndex    int      `json:"order_index"`
	Kind          string   `json:"kind" validate:"required,oneof=choice short-answer open-ended"`
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer" validate:"max=512"`
	Points        int      `json:"points" validate:"gte=0"`
	ImageURL      string   `json:"image_url" validate:"omitempty,max=512"`
}

// SeedResponse reports affected row counts.
type SeedResponse struct {
	Students    int64 `json:"students"`
	Assignments int64 `json:"assignments"`
	Tasks       int64 `json:"tasks"`
}
