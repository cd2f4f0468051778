package dto

import (
	"time"

	"github.com/noah-isme/olympiad-progress-api/internal/rules"
)

// ProgressSummaryResponse aggregates points, level, streak and badges for a student.
type ProgressSummaryResponse struct {
	StudentID       uint                 `json:"student_id"`
	StudentName     string               `json:"student_name"`
	EarnedPoints    int                  `json:"earned_points"`
	SpentPoints     int                  `json:"spent_points"`
	AvailablePoints int                  `json:"available_points"`
	Level           LevelResponse        `json:"level"`
	NextLevel       *LevelResponse       `json:"next_level"`
	PointsToNext    int                  `json:"points_to_next"`
	LongestStreak   int                  `json:"longest_streak"`
	RetryCount      int                  `json:"retry_count"`
	FastCorrect     int                  `json:"fast_correct_count"`
	Badges          []BadgeResponse      `json:"badges"`
	Assignments     []AssignmentProgress `json:"assignments"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// LevelResponse describes one level tier.
type LevelResponse struct {
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
	Color     string `json:"color,omitempty"`
	Icon      string `json:"icon,omitempty"`
}

// AssignmentProgress describes how far a student got with one assignment.
type AssignmentProgress struct {
	AssignmentID  uint       `json:"assignment_id"`
	Title         string     `json:"title"`
	DueDate       *time.Time `json:"due_date"`
	IsActive      bool       `json:"is_active"`
	Overdue       bool       `json:"overdue"`
	TotalTasks    int        `json:"total_tasks"`
	Answered      int        `json:"answered"`
	Correct       int        `json:"correct"`
	PendingReview int        `json:"pending_review"`
	Perfect       bool       `json:"perfect"`
}

// NewLevelResponse converts a rule table tier into a DTO.
func NewLevelResponse(tier rules.LevelTier) LevelResponse {
	return LevelResponse{
		Name:      tier.Name,
		MinPoints: tier.MinPoints,
		Color:     tier.Color,
		Icon:      tier.Icon,
	}
}
