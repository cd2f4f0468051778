package dto

import (
	"time"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/rules"
)

// Redeem rejection reasons.
const (
	RedeemRejectedInsufficientBalance = "INSUFFICIENT_BALANCE"
	RedeemRejectedUnknownReward       = "UNKNOWN_REWARD"
)

// RedeemRequest is the payload to buy a reward.
type RedeemRequest struct {
	RewardID string `json:"reward_id" validate:"required,max=64"`
}

// RedemptionResponse serializes a purchase.
type RedemptionResponse struct {
	ID          uint       `json:"id"`
	StudentID   uint       `json:"student_id"`
	RewardID    string     `json:"reward_id"`
	Title       string     `json:"title"`
	Emoji       string     `json:"emoji,omitempty"`
	Category    string     `json:"category,omitempty"`
	Cost        int        `json:"cost"`
	Status      string     `json:"status"`
	RedeemedAt  time.Time  `json:"redeemed_at"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	FulfilledBy *uint      `json:"fulfilled_by,omitempty"`
}

// RedemptionResult is the outcome of a redeem attempt. Rejections are values,
// not errors; Reason is empty when Accepted.
type RedemptionResult struct {
	Accepted        bool                `json:"accepted"`
	Reason          string              `json:"reason,omitempty"`
	AvailablePoints int                 `json:"available_points"`
	Redemption      *RedemptionResponse `json:"redemption,omitempty"`
}

// RedemptionListResponse lists purchases with the current balance.
type RedemptionListResponse struct {
	Items           []RedemptionResponse `json:"items"`
	AvailablePoints int                  `json:"available_points"`
}

// NewRedemptionResponse converts a redemption into a DTO. The catalog entry
// may be missing when the reward was removed after purchase.
func NewRedemptionResponse(model models.Redemption, item *rules.RewardItem) RedemptionResponse {
	response := RedemptionResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		RewardID:    model.RewardID,
		Title:       model.RewardID,
		Cost:        model.Cost,
		Status:      model.Status,
		RedeemedAt:  model.RedeemedAt,
		FulfilledAt: model.FulfilledAt,
		FulfilledBy: model.FulfilledBy,
	}
	if item != nil {
		response.Title = item.Title
		response.Emoji = item.Emoji
		response.Category = string(item.Category)
	}
	return response
}
