package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/observability"
	"github.com/noah-isme/olympiad-progress-api/internal/progress"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
)

var (
	// ErrUnknownTask indicates the task is not in the catalog.
	ErrUnknownTask = errors.New("task not found")
	// ErrTaskNotAssigned indicates the task belongs to another student's assignment.
	ErrTaskNotAssigned = errors.New("task is not assigned to this student")
	// ErrDuplicateSubmission indicates an effective submission already exists.
	ErrDuplicateSubmission = errors.New("task already has an effective submission")
	// ErrNoEffectiveSubmission indicates there is nothing to retry.
	ErrNoEffectiveSubmission = errors.New("task has no effective submission")
	// ErrElapsedUnknown indicates the time spent could not be determined.
	ErrElapsedUnknown = errors.New("elapsed time is unknown; send elapsed_seconds or open the task first")
	// ErrEmptyAnswer indicates neither an answer nor a photo was provided.
	ErrEmptyAnswer = errors.New("answer is required")
	// ErrTaskViewUnavailable indicates task view tracking is not configured.
	ErrTaskViewUnavailable = errors.New("task view tracking is unavailable")
)

// SubmissionService records answers on the submission ledger.
type SubmissionService interface {
	MarkViewed(ctx context.Context, studentID, taskID uint) (dto.TaskViewResponse, error)
	Submit(ctx context.Context, studentID, taskID uint, req dto.SubmitRequest) (dto.SubmitResponse, error)
	Retry(ctx context.Context, studentID, taskID uint, actor ActivityActor) error
	List(ctx context.Context, studentID uint, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	engine      *Engine
	views       TaskViewTracker
	attachments *attachmentStore
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionService constructs the submission ledger service. views and
// uploader are optional.
func NewSubmissionService(engine *Engine, views TaskViewTracker, uploader FileUploader, maxAttachmentMB int, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		engine:      engine,
		views:       views,
		attachments: newAttachmentStore(uploader, maxAttachmentMB),
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/olympiad-progress-api/internal/service/submission"),
	}
}

// resolveTask loads the task and checks it belongs to the student.
func (s *submissionService) resolveTask(ctx context.Context, store *repository.Store, studentID, taskID uint) (models.Task, error) {
	task, err := store.Assignments.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Task{}, ErrUnknownTask
		}
		return models.Task{}, fmt.Errorf("load task: %w", err)
	}
	if task.Assignment == nil || task.Assignment.StudentID != studentID {
		return models.Task{}, ErrTaskNotAssigned
	}
	return task, nil
}

func (s *submissionService) ensureStudent(ctx context.Context, studentID uint) error {
	if _, err := s.engine.store.Students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	return nil
}

func (s *submissionService) MarkViewed(ctx context.Context, studentID, taskID uint) (dto.TaskViewResponse, error) {
	if s.views == nil {
		return dto.TaskViewResponse{}, ErrTaskViewUnavailable
	}
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return dto.TaskViewResponse{}, err
	}
	if _, err := s.resolveTask(ctx, s.engine.store, studentID, taskID); err != nil {
		return dto.TaskViewResponse{}, err
	}

	now := s.engine.now()
	if err := s.views.MarkViewed(ctx, studentID, taskID, now); err != nil {
		return dto.TaskViewResponse{}, err
	}
	return dto.TaskViewResponse{TaskID: taskID, ViewedAt: now}, nil
}

func (s *submissionService) Submit(ctx context.Context, studentID, taskID uint, req dto.SubmitRequest) (dto.SubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	defer span.End()
	span.SetAttributes(attribute.Int("student.id", int(studentID)), attribute.Int("task.id", int(taskID)))

	response, err := s.submit(ctx, studentID, taskID, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return dto.SubmitResponse{}, err
	}
	span.SetAttributes(attribute.String("submission.outcome", response.Submission.Outcome))
	return response, nil
}

func (s *submissionService) submit(ctx context.Context, studentID, taskID uint, req dto.SubmitRequest) (dto.SubmitResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.SubmitResponse{}, err
	}
	if strings.TrimSpace(req.Answer) == "" && req.Photo == nil {
		return dto.SubmitResponse{}, ErrEmptyAnswer
	}

	release := s.engine.locks.lock(studentID)
	defer release()

	if err := s.ensureStudent(ctx, studentID); err != nil {
		return dto.SubmitResponse{}, err
	}
	task, err := s.resolveTask(ctx, s.engine.store, studentID, taskID)
	if err != nil {
		return dto.SubmitResponse{}, err
	}
	if _, err := s.engine.store.Submissions.GetEffective(ctx, studentID, taskID); err == nil {
		return dto.SubmitResponse{}, ErrDuplicateSubmission
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmitResponse{}, err
	}

	kind, err := progress.ParseTaskKind(task.Kind)
	if err != nil {
		return dto.SubmitResponse{}, fmt.Errorf("task %d: %w", task.ID, err)
	}
	if req.Photo != nil && kind != progress.KindOpenEnded {
		return dto.SubmitResponse{}, ErrAttachmentNotAllowed
	}

	now := s.engine.now()
	elapsed, err := s.resolveElapsed(ctx, studentID, taskID, req.ElapsedSeconds, now)
	if err != nil {
		return dto.SubmitResponse{}, err
	}

	outcome, err := progress.Grade(kind, task.CorrectAnswer, req.Answer)
	if err != nil {
		return dto.SubmitResponse{}, err
	}

	attachmentURL := ""
	if req.Photo != nil {
		attachmentURL, err = s.attachments.store(ctx, req.Photo, studentID, taskID)
		if err != nil {
			return dto.SubmitResponse{}, err
		}
	}

	submission := models.Submission{
		StudentID:      studentID,
		TaskID:         taskID,
		AssignmentID:   task.AssignmentID,
		Answer:         s.sanitizer.Sanitize(strings.TrimSpace(req.Answer)),
		AttachmentURL:  attachmentURL,
		Outcome:        string(outcome),
		ElapsedSeconds: elapsed,
		SubmittedAt:    now,
	}

	var granted []models.AwardedBadge
	var earned int
	err = s.engine.store.Transaction(ctx, func(tx *repository.Store) error {
		superseded, err := tx.Submissions.CountSuperseded(ctx, studentID, taskID)
		if err != nil {
			return err
		}
		submission.IsRetry = superseded > 0

		if err := tx.Submissions.Create(ctx, &submission); err != nil {
			return fmt.Errorf("store submission: %w", err)
		}

		granted, earned, err = s.engine.awardBadges(ctx, tx, studentID)
		return err
	})
	if err != nil {
		if attachmentURL != "" {
			s.discardAttachment(ctx, attachmentURL)
		}
		return dto.SubmitResponse{}, err
	}

	if s.views != nil {
		if err := s.views.Clear(ctx, studentID, taskID); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear task view")
		}
	}
	s.engine.invalidate(ctx, studentID)
	s.engine.announceBadges(ctx, studentID, granted)
	observability.Submissions().WithLabelValues(submission.Outcome).Inc()

	s.logger.Info().
		Uint("student_id", studentID).
		Uint("task_id", taskID).
		Str("outcome", submission.Outcome).
		Bool("retry", submission.IsRetry).
		Msg("submission recorded")

	badges := make([]dto.BadgeResponse, 0, len(granted))
	for i := range granted {
		definition, _ := s.engine.table.Badge(granted[i].BadgeID)
		badges = append(badges, dto.NewBadgeResponse(definition, &granted[i]))
	}

	return dto.SubmitResponse{
		Submission:    dto.NewSubmissionResponse(submission),
		PointsAwarded: progress.PointsFor(toEntry(submission), s.engine.table.Points),
		EarnedPoints:  earned,
		NewBadges:     badges,
	}, nil
}

func (s *submissionService) discardAttachment(ctx context.Context, url string) {
	removed, err := s.attachments.discard(ctx, url)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("url", url).Msg("failed to remove orphaned attachment")
	case !removed:
		s.logger.Warn().Str("url", url).Msg("orphaned attachment left in storage")
	}
}

// resolveElapsed prefers the client-reported duration and falls back to the
// recorded task view.
func (s *submissionService) resolveElapsed(ctx context.Context, studentID, taskID uint, reported *int, now time.Time) (int, error) {
	if reported != nil {
		return *reported, nil
	}
	if s.views == nil {
		return 0, ErrElapsedUnknown
	}

	viewedAt, ok, err := s.views.ViewedAt(ctx, studentID, taskID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrElapsedUnknown
	}

	elapsed := int(now.Sub(viewedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, nil
}

func (s *submissionService) Retry(ctx context.Context, studentID, taskID uint, actor ActivityActor) error {
	ctx, span := s.tracer.Start(ctx, "submission.retry")
	defer span.End()
	span.SetAttributes(attribute.Int("student.id", int(studentID)), attribute.Int("task.id", int(taskID)))

	var granted []models.AwardedBadge
	release := s.engine.locks.lock(studentID)
	err := s.engine.store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := s.resolveTask(ctx, tx, studentID, taskID); err != nil {
			return err
		}

		current, err := tx.Submissions.GetEffective(ctx, studentID, taskID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoEffectiveSubmission
			}
			return err
		}

		if err := tx.Submissions.Supersede(ctx, current.ID, s.engine.now()); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoEffectiveSubmission
			}
			return err
		}

		if s.engine.activity != nil {
			if err := s.engine.activity.Record(ctx, tx.Activity, ActivityEntry{
				ActorID:    actor.ID,
				ActorRole:  actor.Role,
				Action:     ActivityActionRetry,
				EntityType: ActivityEntitySubmission,
				EntityID:   &current.ID,
				Metadata: map[string]interface{}{
					"student_id": studentID,
					"task_id":    taskID,
					"outcome":    current.Outcome,
				},
			}); err != nil {
				return err
			}
		}

		granted, _, err = s.engine.awardBadges(ctx, tx, studentID)
		return err
	})
	release()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retry failed")
		return err
	}

	s.engine.invalidate(ctx, studentID)
	s.engine.announceBadges(ctx, studentID, granted)
	observability.Retries().Inc()
	s.logger.Info().Uint("student_id", studentID).Uint("task_id", taskID).Msg("submission superseded for retry")
	return nil
}

func (s *submissionService) List(ctx context.Context, studentID uint, query dto.SubmissionListQuery) ([]dto.SubmissionResponse, error) {
	if err := s.ensureStudent(ctx, studentID); err != nil {
		return nil, err
	}

	submissions, err := s.engine.store.Submissions.List(ctx, repository.SubmissionFilter{
		StudentID:     studentID,
		TaskID:        query.TaskID,
		EffectiveOnly: !query.IncludeSuperseded,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}
