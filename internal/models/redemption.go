package models

import "time"

// Redemption statuses.
const (
	RedemptionStatusPending   = "pending"
	RedemptionStatusFulfilled = "fulfilled"
)

// Redemption is a purchase of a reward against available points. Cost is the
// price at purchase time so later catalog edits do not rewrite balances.
type Redemption struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StudentID   uint       `gorm:"not null;index" json:"student_id"`
	RewardID    string     `gorm:"size:64;not null" json:"reward_id"`
	Cost        int        `gorm:"not null" json:"cost"`
	Status      string     `gorm:"size:16;not null" json:"status"`
	RedeemedAt  time.Time  `gorm:"not null" json:"redeemed_at"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	FulfilledBy *uint      `json:"fulfilled_by,omitempty"`
}

// IsFulfilled reports whether the reward has been handed over.
func (r Redemption) IsFulfilled() bool {
	return r.Status == RedemptionStatusFulfilled
}
