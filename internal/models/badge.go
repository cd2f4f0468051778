package models

import "time"

// AwardedBadge records a badge granted to a student. The unique index on
// (student_id, badge_id) makes granting idempotent across processes.
type AwardedBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StudentID uint      `gorm:"not null;uniqueIndex:idx_awarded_badge" json:"student_id"`
	BadgeID   string    `gorm:"size:64;not null;uniqueIndex:idx_awarded_badge" json:"badge_id"`
	AwardedAt time.Time `gorm:"not null" json:"awarded_at"`
}
