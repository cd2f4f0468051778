package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
)

// RedemptionRepository persists reward purchases.
type RedemptionRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Redemption, error)
	SpentByStudent(ctx context.Context, studentID uint) (int, error)
	GetByID(ctx context.Context, id uint) (models.Redemption, error)
	Create(ctx context.Context, redemption *models.Redemption) error
	Update(ctx context.Context, redemption *models.Redemption) error
}

type redemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository constructs the redemption repository.
func NewRedemptionRepository(db *gorm.DB) RedemptionRepository {
	return &redemptionRepository{db: db}
}

func (r *redemptionRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Redemption, error) {
	var redemptions []models.Redemption
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("redeemed_at DESC").
		Order("id DESC").
		Find(&redemptions).Error; err != nil {
		return nil, err
	}

	return redemptions, nil
}

func (r *redemptionRepository) SpentByStudent(ctx context.Context, studentID uint) (int, error) {
	var spent int64
	err := r.db.WithContext(ctx).Model(&models.Redemption{}).
		Where("student_id = ?", studentID).
		Select("COALESCE(SUM(cost), 0)").
		Scan(&spent).Error
	if err != nil {
		return 0, err
	}

	return int(spent), nil
}

func (r *redemptionRepository) GetByID(ctx context.Context, id uint) (models.Redemption, error) {
	var redemption models.Redemption
	if err := r.db.WithContext(ctx).First(&redemption, id).Error; err != nil {
		return models.Redemption{}, err
	}

	return redemption, nil
}

func (r *redemptionRepository) Create(ctx context.Context, redemption *models.Redemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *redemptionRepository) Update(ctx context.Context, redemption *models.Redemption) error {
	return r.db.WithContext(ctx).Save(redemption).Error
}
