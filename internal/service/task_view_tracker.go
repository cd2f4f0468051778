package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TaskViewTracker remembers when a student opened a task so the time spent can
// be derived at submission.
type TaskViewTracker interface {
	MarkViewed(ctx context.Context, studentID, taskID uint, at time.Time) error
	// ViewedAt returns the recorded instant and false when none is known.
	ViewedAt(ctx context.Context, studentID, taskID uint) (time.Time, bool, error)
	Clear(ctx context.Context, studentID, taskID uint) error
}

type redisTaskViewTracker struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewTaskViewTracker returns a Redis-backed tracker, or nil when client is nil.
func NewTaskViewTracker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) TaskViewTracker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &redisTaskViewTracker{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "task_view_tracker").Logger(),
	}
}

func taskViewKey(studentID, taskID uint) string {
	return fmt.Sprintf("progress:view:%d:%d", studentID, taskID)
}

func (t *redisTaskViewTracker) MarkViewed(ctx context.Context, studentID, taskID uint, at time.Time) error {
	// keep the first view so reopening the task does not reset the clock
	if err := t.client.SetNX(ctx, taskViewKey(studentID, taskID), at.UnixMilli(), t.ttl).Err(); err != nil {
		return fmt.Errorf("store task view: %w", err)
	}
	return nil
}

func (t *redisTaskViewTracker) ViewedAt(ctx context.Context, studentID, taskID uint) (time.Time, bool, error) {
	raw, err := t.client.Get(ctx, taskViewKey(studentID, taskID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read task view: %w", err)
	}

	millis, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		t.logger.Warn().Str("value", raw).Msg("discarding malformed task view")
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis), true, nil
}

func (t *redisTaskViewTracker) Clear(ctx context.Context, studentID, taskID uint) error {
	return t.client.Del(ctx, taskViewKey(studentID, taskID)).Err()
}
