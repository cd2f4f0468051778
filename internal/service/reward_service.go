package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/observability"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
)

var (
	// ErrRedemptionNotFound indicates the purchase does not exist.
	ErrRedemptionNotFound = errors.New("redemption not found")
	// ErrRedemptionAlreadyFulfilled indicates the reward was already handed over.
	ErrRedemptionAlreadyFulfilled = errors.New("redemption already fulfilled")
)

// RewardService spends available points on catalog rewards.
type RewardService interface {
	Redeem(ctx context.Context, studentID uint, req dto.RedeemRequest, actor ActivityActor) (dto.RedemptionResult, error)
	Fulfill(ctx context.Context, redemptionID uint, actor ActivityActor) (dto.RedemptionResponse, error)
	List(ctx context.Context, studentID uint) (dto.RedemptionListResponse, error)
}

type rewardService struct {
	engine    *Engine
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewRewardService constructs the reward ledger.
func NewRewardService(engine *Engine, validate *validator.Validate, logger zerolog.Logger) RewardService {
	return &rewardService{
		engine:    engine,
		validator: validate,
		logger:    logger.With().Str("component", "reward_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/olympiad-progress-api/internal/service/reward"),
	}
}

func (s *rewardService) Redeem(ctx context.Context, studentID uint, req dto.RedeemRequest, actor ActivityActor) (dto.RedemptionResult, error) {
	ctx, span := s.tracer.Start(ctx, "rewards.redeem")
	defer span.End()
	span.SetAttributes(attribute.Int("student.id", int(studentID)), attribute.String("reward.id", req.RewardID))

	if err := s.validator.Struct(req); err != nil {
		return dto.RedemptionResult{}, err
	}
	rewardID := strings.TrimSpace(req.RewardID)

	release := s.engine.locks.lock(studentID)
	var result dto.RedemptionResult
	err := s.engine.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Students.LockForUpdate(ctx, studentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStudentNotFound
			}
			return fmt.Errorf("lock student: %w", err)
		}

		view, err := s.engine.loadLedger(ctx, tx, studentID)
		if err != nil {
			return err
		}
		earned, spent, err := s.engine.availablePoints(ctx, tx, view)
		if err != nil {
			return err
		}
		available := balance(earned, spent)

		item, ok := s.engine.table.Reward(rewardID)
		if !ok {
			result = dto.RedemptionResult{Reason: dto.RedeemRejectedUnknownReward, AvailablePoints: available}
			return nil
		}
		if available < item.Cost {
			result = dto.RedemptionResult{Reason: dto.RedeemRejectedInsufficientBalance, AvailablePoints: available}
			return nil
		}

		redemption := models.Redemption{
			StudentID:  studentID,
			RewardID:   item.ID,
			Cost:       item.Cost,
			Status:     models.RedemptionStatusPending,
			RedeemedAt: s.engine.now(),
		}
		if err := tx.Redemptions.Create(ctx, &redemption); err != nil {
			return fmt.Errorf("store redemption: %w", err)
		}

		if s.engine.activity != nil {
			if err := s.engine.activity.Record(ctx, tx.Activity, ActivityEntry{
				ActorID:    actor.ID,
				ActorRole:  actor.Role,
				Action:     ActivityActionRedeem,
				EntityType: ActivityEntityRedemption,
				EntityID:   &redemption.ID,
				Metadata: map[string]interface{}{
					"student_id": studentID,
					"reward_id":  item.ID,
					"cost":       item.Cost,
				},
			}); err != nil {
				return err
			}
		}

		response := dto.NewRedemptionResponse(redemption, &item)
		result = dto.RedemptionResult{
			Accepted:        true,
			AvailablePoints: available - item.Cost,
			Redemption:      &response,
		}
		return nil
	})
	release()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redeem failed")
		return dto.RedemptionResult{}, err
	}

	if !result.Accepted {
		observability.Redemptions().WithLabelValues(strings.ToLower(result.Reason)).Inc()
		span.SetAttributes(attribute.String("redeem.rejected", result.Reason))
		s.logger.Info().Uint("student_id", studentID).Str("reward_id", rewardID).Str("reason", result.Reason).Msg("redemption rejected")
		return result, nil
	}

	observability.Redemptions().WithLabelValues("accepted").Inc()
	s.engine.invalidate(ctx, studentID)
	s.engine.events.Publish(ctx, ProgressEvent{
		Type:      EventRewardRedeemed,
		StudentID: studentID,
		Payload: map[string]interface{}{
			"redemption_id": result.Redemption.ID,
			"reward_id":     result.Redemption.RewardID,
			"cost":          result.Redemption.Cost,
		},
		OccurredAt: result.Redemption.RedeemedAt,
	})
	s.logger.Info().Uint("student_id", studentID).Str("reward_id", rewardID).Int("available", result.AvailablePoints).Msg("reward redeemed")

	return result, nil
}

func (s *rewardService) Fulfill(ctx context.Context, redemptionID uint, actor ActivityActor) (dto.RedemptionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "rewards.fulfill")
	defer span.End()
	span.SetAttributes(attribute.Int("redemption.id", int(redemptionID)))

	current, err := s.engine.store.Redemptions.GetByID(ctx, redemptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RedemptionResponse{}, ErrRedemptionNotFound
		}
		return dto.RedemptionResponse{}, err
	}

	release := s.engine.locks.lock(current.StudentID)
	var updated models.Redemption
	err = s.engine.store.Transaction(ctx, func(tx *repository.Store) error {
		redemption, err := tx.Redemptions.GetByID(ctx, redemptionID)
		if err != nil {
			return err
		}
		if redemption.IsFulfilled() {
			return ErrRedemptionAlreadyFulfilled
		}

		now := s.engine.now()
		actorID := actor.ID
		redemption.Status = models.RedemptionStatusFulfilled
		redemption.FulfilledAt = &now
		redemption.FulfilledBy = &actorID
		if err := tx.Redemptions.Update(ctx, &redemption); err != nil {
			return err
		}
		updated = redemption

		if s.engine.activity == nil {
			return nil
		}
		return s.engine.activity.Record(ctx, tx.Activity, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     ActivityActionFulfill,
			EntityType: ActivityEntityRedemption,
			EntityID:   &redemption.ID,
			Metadata:   map[string]interface{}{"student_id": redemption.StudentID, "reward_id": redemption.RewardID},
		})
	})
	release()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fulfill failed")
		return dto.RedemptionResponse{}, err
	}

	s.engine.invalidate(ctx, updated.StudentID)
	s.engine.events.Publish(ctx, ProgressEvent{
		Type:       EventRewardFulfilled,
		StudentID:  updated.StudentID,
		Payload:    map[string]interface{}{"redemption_id": updated.ID, "reward_id": updated.RewardID},
		OccurredAt: *updated.FulfilledAt,
	})

	return s.response(updated), nil
}

func (s *rewardService) List(ctx context.Context, studentID uint) (dto.RedemptionListResponse, error) {
	store := s.engine.store
	view, err := s.engine.loadLedger(ctx, store, studentID)
	if err != nil {
		return dto.RedemptionListResponse{}, err
	}
	earned, spent, err := s.engine.availablePoints(ctx, store, view)
	if err != nil {
		return dto.RedemptionListResponse{}, err
	}

	redemptions, err := store.Redemptions.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.RedemptionListResponse{}, err
	}

	items := make([]dto.RedemptionResponse, 0, len(redemptions))
	for _, redemption := range redemptions {
		items = append(items, s.response(redemption))
	}
	return dto.RedemptionListResponse{Items: items, AvailablePoints: balance(earned, spent)}, nil
}

func (s *rewardService) response(redemption models.Redemption) dto.RedemptionResponse {
	if item, ok := s.engine.table.Reward(redemption.RewardID); ok {
		return dto.NewRedemptionResponse(redemption, &item)
	}
	return dto.NewRedemptionResponse(redemption, nil)
}
