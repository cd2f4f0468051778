package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
)

// BadgeRepository stores granted badges.
type BadgeRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.AwardedBadge, error)
	// Award inserts the badge unless the (student, badge) pair exists and reports whether a row was created.
	Award(ctx context.Context, badge *models.AwardedBadge) (bool, error)
}

type badgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository constructs the badge repository.
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.AwardedBadge, error) {
	var badges []models.AwardedBadge
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("awarded_at ASC").
		Order("id ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}

	return badges, nil
}

func (r *badgeRepository) Award(ctx context.Context, badge *models.AwardedBadge) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(badge)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}
