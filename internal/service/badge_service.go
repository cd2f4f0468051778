package service

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
)

// BadgeService grants achievement badges. Granting is idempotent: a badge is
// stored at most once per student and never revoked.
type BadgeService interface {
	EvaluateAndAward(ctx context.Context, studentID uint) ([]dto.BadgeResponse, error)
	List(ctx context.Context, studentID uint) (dto.BadgeListResponse, error)
}

type badgeService struct {
	engine *Engine
	logger zerolog.Logger
	tracer trace.Tracer
}

// NewBadgeService constructs the badge awarder.
func NewBadgeService(engine *Engine, logger zerolog.Logger) BadgeService {
	return &badgeService{
		engine: engine,
		logger: logger.With().Str("component", "badge_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/olympiad-progress-api/internal/service/badge"),
	}
}

func (s *badgeService) EvaluateAndAward(ctx context.Context, studentID uint) ([]dto.BadgeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "badges.evaluate")
	defer span.End()
	span.SetAttributes(attribute.Int("student.id", int(studentID)))

	release := s.engine.locks.lock(studentID)
	var granted []models.AwardedBadge
	err := s.engine.store.Transaction(ctx, func(tx *repository.Store) error {
		var awardErr error
		granted, _, awardErr = s.engine.awardBadges(ctx, tx, studentID)
		return awardErr
	})
	release()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return nil, err
	}

	if len(granted) > 0 {
		s.engine.invalidate(ctx, studentID)
		s.engine.announceBadges(ctx, studentID, granted)
	}
	span.SetAttributes(attribute.Int("badges.granted", len(granted)))

	responses := make([]dto.BadgeResponse, 0, len(granted))
	for i := range granted {
		definition, _ := s.engine.table.Badge(granted[i].BadgeID)
		responses = append(responses, dto.NewBadgeResponse(definition, &granted[i]))
	}
	return responses, nil
}

func (s *badgeService) List(ctx context.Context, studentID uint) (dto.BadgeListResponse, error) {
	if _, err := s.EvaluateAndAward(ctx, studentID); err != nil {
		return dto.BadgeListResponse{}, err
	}

	awarded, err := s.engine.store.Badges.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.BadgeListResponse{}, err
	}

	byID := make(map[string]*models.AwardedBadge, len(awarded))
	for i := range awarded {
		byID[awarded[i].BadgeID] = &awarded[i]
	}

	response := dto.BadgeListResponse{
		Earned: make([]dto.BadgeResponse, 0, len(awarded)),
		Locked: make([]dto.BadgeResponse, 0, len(s.engine.table.Badges)),
	}
	for i := range awarded {
		definition, ok := s.engine.table.Badge(awarded[i].BadgeID)
		if !ok {
			// badge removed from the catalog after it was granted
			definition.ID = awarded[i].BadgeID
			definition.Title = awarded[i].BadgeID
		}
		response.Earned = append(response.Earned, dto.NewBadgeResponse(definition, &awarded[i]))
	}
	for _, definition := range s.engine.table.Badges {
		if _, ok := byID[definition.ID]; ok {
			continue
		}
		response.Locked = append(response.Locked, dto.NewBadgeResponse(definition, nil))
	}

	return response, nil
}
