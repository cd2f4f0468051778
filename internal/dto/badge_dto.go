package dto

import (
	"time"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/rules"
)

// BadgeResponse describes a catalog badge, with its grant time when earned.
type BadgeResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Kind        string     `json:"kind"`
	Earned      bool       `json:"earned"`
	AwardedAt   *time.Time `json:"awarded_at,omitempty"`
}

// BadgeListResponse splits the catalog into earned and locked badges.
type BadgeListResponse struct {
	Earned []BadgeResponse `json:"earned"`
	Locked []BadgeResponse `json:"locked"`
}

// NewBadgeResponse merges a catalog definition with an optional grant.
func NewBadgeResponse(definition rules.BadgeDefinition, awarded *models.AwardedBadge) BadgeResponse {
	response := BadgeResponse{
		ID:          definition.ID,
		Title:       definition.Title,
		Description: definition.Description,
		Icon:        definition.Icon,
		Kind:        string(definition.Kind),
	}
	if awarded != nil {
		awardedAt := awarded.AwardedAt
		response.Earned = true
		response.AwardedAt = &awardedAt
	}
	return response
}
