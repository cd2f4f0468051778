package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
)

// AssignmentFilter narrows catalog queries.
type AssignmentFilter struct {
	ActiveOnly bool
}

// AssignmentRepository is the read side of the task catalog plus the seed writer.
type AssignmentRepository interface {
	ListByStudent(ctx context.Context, studentID uint, filter AssignmentFilter) ([]models.Assignment, error)
	GetTask(ctx context.Context, taskID uint) (models.Task, error)
	UpsertAssignments(ctx context.Context, assignments []models.Assignment) (int64, error)
	UpsertTasks(ctx context.Context, tasks []models.Task) (int64, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) ListByStudent(ctx context.Context, studentID uint, filter AssignmentFilter) ([]models.Assignment, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Assignment{}).
		Where("student_id = ?", studentID).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		})

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var assignments []models.Assignment
	if err := query.Order("id ASC").Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *assignmentRepository) GetTask(ctx context.Context, taskID uint) (models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).Preload("Assignment").First(&task, taskID).Error; err != nil {
		return models.Task{}, err
	}

	return task, nil
}

func (r *assignmentRepository) UpsertAssignments(ctx context.Context, assignments []models.Assignment) (int64, error) {
	if len(assignments) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Omit("Tasks").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"student_id", "title", "description", "due_date", "is_active", "updated_at"}),
	}).Create(&assignments)
	return result.RowsAffected, result.Error
}

func (r *assignmentRepository) UpsertTasks(ctx context.Context, tasks []models.Task) (int64, error) {
	if len(tasks) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Omit("Assignment").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"assignment_id", "order_index", "kind", "question", "options", "correct_answer", "points", "image_url", "updated_at"}),
	}).Create(&tasks)
	return result.RowsAffected, result.Error
}
