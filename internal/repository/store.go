package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one database handle so a
// unit of work can run them inside a single transaction.
type Store struct {
	db          *gorm.DB
	Students    StudentRepository
	Assignments AssignmentRepository
	Submissions SubmissionRepository
	Badges      BadgeRepository
	Redemptions RedemptionRepository
	Activity    ActivityLogRepository
}

// NewStore wires every repository against db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Students:    NewStudentRepository(db),
		Assignments: NewAssignmentRepository(db),
		Submissions: NewSubmissionRepository(db),
		Badges:      NewBadgeRepository(db),
		Redemptions: NewRedemptionRepository(db),
		Activity:    NewActivityLogRepository(db),
	}
}

// Transaction runs fn with a store bound to a database transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
