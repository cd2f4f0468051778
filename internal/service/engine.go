package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/observability"
	"github.com/noah-isme/olympiad-progress-api/internal/progress"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
	"github.com/noah-isme/olympiad-progress-api/internal/rules"
)

// ErrStudentNotFound indicates the student does not exist.
var ErrStudentNotFound = errors.New("student not found")

// EngineConfig lists the collaborators shared by the progress services.
type EngineConfig struct {
	Store    *repository.Store
	Rules    rules.Table
	Location *time.Location
	Cache    *redis.Client
	CacheTTL time.Duration
	Activity ActivityRecorder
	Events   ProgressEventPublisher
	Logger   zerolog.Logger
}

// Engine owns the ledger store, the rule table and the per-student locks.
// Every service that reads or mutates progress goes through one Engine so
// mutations for a student are serialised process-wide.
type Engine struct {
	store    *repository.Store
	table    rules.Table
	loc      *time.Location
	cache    *redis.Client
	cacheTTL time.Duration
	activity ActivityRecorder
	events   ProgressEventPublisher
	locks    *studentLocks
	logger   zerolog.Logger
	now      func() time.Time
}

// NewEngine builds the shared engine.
func NewEngine(cfg EngineConfig) *Engine {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	events := cfg.Events
	if events == nil {
		events = noopPublisher{}
	}

	return &Engine{
		store:    cfg.Store,
		table:    cfg.Rules,
		loc:      loc,
		cache:    cfg.Cache,
		cacheTTL: ttl,
		activity: cfg.Activity,
		events:   events,
		locks:    newStudentLocks(),
		logger:   cfg.Logger.With().Str("component", "progress_engine").Logger(),
		now:      time.Now,
	}
}

// Rules returns the loaded rule table.
func (e *Engine) Rules() rules.Table {
	return e.table
}

// SetClock overrides the time source.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// ledgerView is a read-consistent load of everything the rules need for one student.
type ledgerView struct {
	student     models.Student
	assignments []models.Assignment
	submissions []models.Submission
	snapshot    progress.Snapshot
}

func (e *Engine) loadLedger(ctx context.Context, store *repository.Store, studentID uint) (ledgerView, error) {
	student, err := store.Students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgerView{}, ErrStudentNotFound
		}
		return ledgerView{}, fmt.Errorf("load student: %w", err)
	}

	assignments, err := store.Assignments.ListByStudent(ctx, studentID, repository.AssignmentFilter{})
	if err != nil {
		return ledgerView{}, fmt.Errorf("load assignments: %w", err)
	}

	submissions, err := store.Submissions.List(ctx, repository.SubmissionFilter{StudentID: studentID})
	if err != nil {
		return ledgerView{}, fmt.Errorf("load submissions: %w", err)
	}

	return ledgerView{
		student:     student,
		assignments: assignments,
		submissions: submissions,
		snapshot:    buildSnapshot(studentID, assignments, submissions),
	}, nil
}

func buildSnapshot(studentID uint, assignments []models.Assignment, submissions []models.Submission) progress.Snapshot {
	snapshot := progress.Snapshot{
		StudentID:   studentID,
		Assignments: make([]progress.AssignmentTasks, 0, len(assignments)),
		Entries:     make([]progress.Entry, 0, len(submissions)),
	}

	for _, assignment := range assignments {
		taskIDs := make([]uint, 0, len(assignment.Tasks))
		for _, task := range assignment.Tasks {
			taskIDs = append(taskIDs, task.ID)
		}
		snapshot.Assignments = append(snapshot.Assignments, progress.AssignmentTasks{
			AssignmentID: assignment.ID,
			TaskIDs:      taskIDs,
		})
	}

	for _, submission := range submissions {
		snapshot.Entries = append(snapshot.Entries, toEntry(submission))
	}

	return snapshot
}

func toEntry(submission models.Submission) progress.Entry {
	return progress.Entry{
		TaskID:         submission.TaskID,
		Outcome:        progress.Outcome(submission.Outcome),
		Retry:          submission.IsRetry,
		ElapsedSeconds: submission.ElapsedSeconds,
		SubmittedAt:    submission.SubmittedAt,
		Superseded:     !submission.IsEffective(),
	}
}

// availablePoints computes earned minus spent inside the given store.
func (e *Engine) availablePoints(ctx context.Context, store *repository.Store, view ledgerView) (earned, spent int, err error) {
	earned = progress.EarnedPoints(view.snapshot, e.table.Points)
	spent, err = store.Redemptions.SpentByStudent(ctx, view.student.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("sum redemptions: %w", err)
	}
	return earned, spent, nil
}

// balance is the spendable amount. A retry can drop earned points below what
// was already spent; the balance then reads zero instead of going negative.
func balance(earned, spent int) int {
	if earned < spent {
		return 0
	}
	return earned - spent
}

// awardBadges grants every newly satisfied badge. Callers must hold the
// student's lock and pass a transaction-bound store.
func (e *Engine) awardBadges(ctx context.Context, tx *repository.Store, studentID uint) ([]models.AwardedBadge, int, error) {
	view, err := e.loadLedger(ctx, tx, studentID)
	if err != nil {
		return nil, 0, err
	}

	existing, err := tx.Badges.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, 0, fmt.Errorf("load badges: %w", err)
	}
	awarded := make(map[string]struct{}, len(existing))
	for _, badge := range existing {
		awarded[badge.BadgeID] = struct{}{}
	}

	evaluator := progress.NewEvaluator(e.table, view.snapshot, e.loc)
	granted := make([]models.AwardedBadge, 0)
	for _, definition := range evaluator.Eligible(awarded) {
		badge := models.AwardedBadge{
			StudentID: studentID,
			BadgeID:   definition.ID,
			AwardedAt: e.now(),
		}
		created, err := tx.Badges.Award(ctx, &badge)
		if err != nil {
			return nil, 0, fmt.Errorf("award badge %s: %w", definition.ID, err)
		}
		if !created {
			continue
		}

		if e.activity != nil {
			if err := e.activity.Record(ctx, tx.Activity, ActivityEntry{
				ActorRole:  "system",
				Action:     ActivityActionBadge,
				EntityType: ActivityEntityBadge,
				EntityID:   &badge.ID,
				Metadata:   map[string]interface{}{"student_id": studentID, "badge_id": definition.ID},
			}); err != nil {
				return nil, 0, err
			}
		}
		granted = append(granted, badge)
	}

	return granted, evaluator.EarnedPoints(), nil
}

// announceBadges runs after the awarding transaction committed.
func (e *Engine) announceBadges(ctx context.Context, studentID uint, granted []models.AwardedBadge) {
	for _, badge := range granted {
		observability.BadgesAwarded().WithLabelValues(badge.BadgeID).Inc()
		e.logger.Info().Uint("student_id", studentID).Str("badge_id", badge.BadgeID).Msg("badge awarded")
		e.events.Publish(ctx, ProgressEvent{
			Type:       EventBadgeAwarded,
			StudentID:  studentID,
			Payload:    map[string]interface{}{"badge_id": badge.BadgeID},
			OccurredAt: badge.AwardedAt,
		})
	}
}

func summaryCacheKey(studentID uint) string {
	return fmt.Sprintf("progress:student:%d", studentID)
}

// invalidate drops the cached progress summary of a student.
func (e *Engine) invalidate(ctx context.Context, studentID uint) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Del(ctx, summaryCacheKey(studentID)).Err(); err != nil {
		e.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to invalidate progress cache")
	}
}
