package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/observability"
	"github.com/noah-isme/olympiad-progress-api/internal/progress"
)

// ProgressService answers read queries about a student's standing. Every
// answer is recomputed from the ledger; only Summary is cached.
type ProgressService interface {
	EarnedPoints(ctx context.Context, studentID uint) (int, error)
	AvailablePoints(ctx context.Context, studentID uint) (int, error)
	Level(ctx context.Context, studentID uint) (progress.Level, error)
	HasConsecutiveDayRun(ctx context.Context, studentID uint, days int) (bool, error)
	// Summary returns the dashboard read model and whether it came from cache.
	Summary(ctx context.Context, studentID uint) (dto.ProgressSummaryResponse, bool, error)
}

type progressService struct {
	engine *Engine
	logger zerolog.Logger
}

// NewProgressService builds the read side of the engine.
func NewProgressService(engine *Engine, logger zerolog.Logger) ProgressService {
	return &progressService{
		engine: engine,
		logger: logger.With().Str("component", "progress_service").Logger(),
	}
}

func (s *progressService) EarnedPoints(ctx context.Context, studentID uint) (int, error) {
	view, err := s.engine.loadLedger(ctx, s.engine.store, studentID)
	if err != nil {
		return 0, err
	}
	return progress.EarnedPoints(view.snapshot, s.engine.table.Points), nil
}

func (s *progressService) AvailablePoints(ctx context.Context, studentID uint) (int, error) {
	view, err := s.engine.loadLedger(ctx, s.engine.store, studentID)
	if err != nil {
		return 0, err
	}
	earned, spent, err := s.engine.availablePoints(ctx, s.engine.store, view)
	if err != nil {
		return 0, err
	}
	return balance(earned, spent), nil
}

func (s *progressService) Level(ctx context.Context, studentID uint) (progress.Level, error) {
	earned, err := s.EarnedPoints(ctx, studentID)
	if err != nil {
		return progress.Level{}, err
	}
	return progress.ResolveLevel(earned, s.engine.table.Levels), nil
}

func (s *progressService) HasConsecutiveDayRun(ctx context.Context, studentID uint, days int) (bool, error) {
	view, err := s.engine.loadLedger(ctx, s.engine.store, studentID)
	if err != nil {
		return false, err
	}
	return progress.HasConsecutiveDayRun(progress.SubmissionDays(view.snapshot.Entries, s.engine.loc), days), nil
}

func (s *progressService) Summary(ctx context.Context, studentID uint) (dto.ProgressSummaryResponse, bool, error) {
	cacheKey := summaryCacheKey(studentID)
	cache := s.engine.cache

	if cache != nil {
		if cached, err := cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProgressSummaryResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.SummaryCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("student_id", studentID).Msg("progress summary cache hit")
				return response, true, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read progress summary cache")
		}
		observability.SummaryCache().WithLabelValues("miss").Inc()
	}

	// Mutations commit under the same lock and invalidate afterwards, so a
	// summary stored while holding it cannot outlive the next invalidation.
	release := s.engine.locks.lock(studentID)
	defer release()

	store := s.engine.store
	view, err := s.engine.loadLedger(ctx, store, studentID)
	if err != nil {
		return dto.ProgressSummaryResponse{}, false, err
	}
	earned, spent, err := s.engine.availablePoints(ctx, store, view)
	if err != nil {
		return dto.ProgressSummaryResponse{}, false, err
	}
	badges, err := store.Badges.ListByStudent(ctx, studentID)
	if err != nil {
		return dto.ProgressSummaryResponse{}, false, err
	}

	response := s.buildSummary(view, earned, spent, badges)

	if cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := cache.Set(ctx, cacheKey, payload, s.engine.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store progress summary cache")
			}
		}
	}

	return response, false, nil
}

func (s *progressService) buildSummary(view ledgerView, earned, spent int, badges []models.AwardedBadge) dto.ProgressSummaryResponse {
	now := s.engine.now()
	table := s.engine.table
	level := progress.ResolveLevel(earned, table.Levels)

	response := dto.ProgressSummaryResponse{
		StudentID:       view.student.ID,
		StudentName:     view.student.Name,
		EarnedPoints:    earned,
		SpentPoints:     spent,
		AvailablePoints: balance(earned, spent),
		Level:           dto.NewLevelResponse(level.Current),
		PointsToNext:    level.PointsToNext,
		LongestStreak:   progress.LongestRun(progress.SubmissionDays(view.snapshot.Entries, s.engine.loc)),
		Badges:          make([]dto.BadgeResponse, 0, len(badges)),
		Assignments:     make([]dto.AssignmentProgress, 0, len(view.assignments)),
		GeneratedAt:     now,
	}
	if level.Next != nil {
		next := dto.NewLevelResponse(*level.Next)
		response.NextLevel = &next
	}

	for i := range badges {
		definition, ok := table.Badge(badges[i].BadgeID)
		if !ok {
			definition.ID = badges[i].BadgeID
			definition.Title = badges[i].BadgeID
		}
		response.Badges = append(response.Badges, dto.NewBadgeResponse(definition, &badges[i]))
	}

	// history-wide counters, superseded attempts included
	for _, entry := range view.snapshot.Entries {
		if entry.Retry {
			response.RetryCount++
		}
		if entry.Outcome == progress.OutcomeCorrect && entry.ElapsedSeconds <= table.Points.SpeedThresholdSeconds {
			response.FastCorrect++
		}
	}

	effective := view.snapshot.Effective()
	perfect := map[uint]struct{}{}
	for _, id := range view.snapshot.PerfectAssignments() {
		perfect[id] = struct{}{}
	}

	for _, assignment := range view.assignments {
		item := dto.AssignmentProgress{
			AssignmentID: assignment.ID,
			Title:        assignment.Title,
			DueDate:      assignment.DueDate,
			IsActive:     assignment.IsActive,
			TotalTasks:   len(assignment.Tasks),
		}
		for _, task := range assignment.Tasks {
			entry, ok := effective[task.ID]
			if !ok {
				continue
			}
			item.Answered++
			switch entry.Outcome {
			case progress.OutcomeCorrect:
				item.Correct++
			case progress.OutcomePendingReview:
				item.PendingReview++
			}
		}
		_, item.Perfect = perfect[assignment.ID]
		item.Overdue = assignment.IsPastDue(now) && item.Answered < item.TotalTasks
		response.Assignments = append(response.Assignments, item)
	}

	return response
}
