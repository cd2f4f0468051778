package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
)

// SubmissionFilter allows narrowing ledger queries.
type SubmissionFilter struct {
	StudentID     uint
	TaskID        *uint
	EffectiveOnly bool
}

// SubmissionRepository is the append/supersede submission ledger.
type SubmissionRepository interface {
	List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error)
	GetEffective(ctx context.Context, studentID, taskID uint) (models.Submission, error)
	CountSuperseded(ctx context.Context, studentID, taskID uint) (int64, error)
	Create(ctx context.Context, submission *models.Submission) error
	Supersede(ctx context.Context, id uint, at time.Time) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).Where("student_id = ?", filter.StudentID)

	if filter.TaskID != nil {
		query = query.Where("task_id = ?", *filter.TaskID)
	}

	if filter.EffectiveOnly {
		query = query.Where("superseded_at IS NULL")
	}

	var submissions []models.Submission
	if err := query.Order("submitted_at ASC").Order("id ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) GetEffective(ctx context.Context, studentID, taskID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND task_id = ?", studentID, taskID).
		Where("superseded_at IS NULL").
		Order("submitted_at DESC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) CountSuperseded(ctx context.Context, studentID, taskID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("student_id = ? AND task_id = ?", studentID, taskID).
		Where("superseded_at IS NOT NULL").
		Count(&count).Error
	return count, err
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Supersede(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("id = ? AND superseded_at IS NULL", id).
		Update("superseded_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
