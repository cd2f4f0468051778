package models

import (
	"time"

	"gorm.io/datatypes"
)

// Assignment is a named, dated collection of tasks for one student.
type Assignment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;index" json:"student_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"due_date"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Tasks       []Task     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"tasks,omitempty"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return a.DueDate != nil && reference.After(*a.DueDate)
}

// Task is a single question inside an assignment.
type Task struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	AssignmentID  uint           `gorm:"not null;index" json:"assignment_id"`
	OrderIndex    int            `gorm:"not null;default:0" json:"order_index"`
	Kind          string         `gorm:"size:32;not null" json:"kind"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSON `json:"options,omitempty"`
	CorrectAnswer string         `gorm:"size:512" json:"-"`
	Points        int            `gorm:"not null;default:1" json:"points"`
	ImageURL      string         `gorm:"size:512" json:"image_url,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Assignment    *Assignment    `json:"assignment,omitempty"`
}
