package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
)

// Audit actions recorded by the engine.
const (
	ActivityActionRetry       = "submission.retry"
	ActivityActionBadge       = "badge.awarded"
	ActivityActionRedeem      = "reward.redeemed"
	ActivityActionFulfill     = "reward.fulfilled"
	ActivityEntitySubmission  = "submission"
	ActivityEntityBadge       = "awarded_badge"
	ActivityEntityRedemption  = "redemption"
	activityHistoryMaxEntries = 200
)

// ActivityActor represents the authenticated user behind an engine action.
type ActivityActor struct {
	ID   uint
	Role string
}

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording activity logs. Recorders
// receive the repository to write through so entries join the caller's transaction.
type ActivityRecorder interface {
	Record(ctx context.Context, repo repository.ActivityLogRepository, entry ActivityEntry) error
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	History(ctx context.Context, entityType string, entityID uint) ([]dto.ActivityResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, repo repository.ActivityLogRepository, entry ActivityEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return fmt.Errorf("entity type is required")
	}
	if repo == nil {
		repo = s.repo
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
	}

	if err := repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist activity log")
		return err
	}
	return nil
}

func (s *activityService) History(ctx context.Context, entityType string, entityID uint) ([]dto.ActivityResponse, error) {
	filter := repository.ActivityLogFilter{
		EntityType: strings.ToLower(strings.TrimSpace(entityType)),
		EntityID:   &entityID,
		Limit:      activityHistoryMaxEntries,
	}

	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}
	return responses, nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if strings.Contains(lower, "token") || strings.Contains(lower, "secret") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}
