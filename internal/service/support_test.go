package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
	"github.com/noah-isme/olympiad-progress-api/pkg/ai"
)

func TestStudentLocksSerialisePerStudent(t *testing.T) {
	locks := newStudentLocks()

	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.lock(7)
			defer release()

			current := atomic.AddInt32(&active, 1)
			for {
				observed := atomic.LoadInt32(&peak)
				if current <= observed || atomic.CompareAndSwapInt32(&peak, observed, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), peak)
	require.Empty(t, locks.locks, "released entries are dropped")

	// different students do not block each other
	releaseA := locks.lock(1)
	releaseB := locks.lock(2)
	releaseB()
	releaseA()
}

func TestTaskViewTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()

	require.Nil(t, NewTaskViewTracker(nil, time.Hour, testLogger()))

	tracker := NewTaskViewTracker(client, time.Hour, testLogger())
	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, tracker.MarkViewed(ctx, 1, 5, first))
	require.NoError(t, tracker.MarkViewed(ctx, 1, 5, first.Add(time.Minute)))

	viewedAt, ok, err := tracker.ViewedAt(ctx, 1, 5)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, first.Equal(viewedAt), "the first view wins")
	require.Equal(t, time.Hour, mr.TTL(taskViewKey(1, 5)))

	require.NoError(t, tracker.Clear(ctx, 1, 5))
	_, ok, err = tracker.ViewedAt(ctx, 1, 5)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, mr.Set(taskViewKey(1, 6), "not-a-number"))
	_, ok, err = tracker.ViewedAt(ctx, 1, 6)
	require.NoError(t, err)
	require.False(t, ok)
}

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(_ context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(_ context.Context, _ repository.ActivityLogFilter) ([]models.ActivityLog, error) {
	return append([]models.ActivityLog(nil), m.entries...), nil
}

func TestActivityServiceRecordMasksSecrets(t *testing.T) {
	fallback := &memoryActivityRepo{}
	svc := NewActivityService(fallback, testLogger())
	ctx := context.Background()
	id := uint(5)

	require.NoError(t, svc.Record(ctx, nil, ActivityEntry{
		Action:     " Reward.Redeemed ",
		EntityType: "Redemption",
		EntityID:   &id,
		Metadata:   map[string]interface{}{"reward_id": "lesson_dj", "seed_token": "abc", "client_secret": "xyz"},
	}))
	require.Len(t, fallback.entries, 1)
	entry := fallback.entries[0]
	require.Equal(t, "reward.redeemed", entry.Action)
	require.Equal(t, "redemption", entry.EntityType)
	require.Equal(t, "system", entry.ActorRole)
	require.Equal(t, "lesson_dj", entry.Metadata["reward_id"])
	require.Equal(t, "***", entry.Metadata["seed_token"])
	require.Equal(t, "***", entry.Metadata["client_secret"])

	// an explicit repository receives the entry instead of the default one
	scoped := &memoryActivityRepo{}
	require.NoError(t, svc.Record(ctx, scoped, ActivityEntry{Action: "badge.awarded", EntityType: "awarded_badge"}))
	require.Len(t, scoped.entries, 1)
	require.Len(t, fallback.entries, 1)

	require.Error(t, svc.Record(ctx, nil, ActivityEntry{EntityType: "redemption"}))
	require.Error(t, svc.Record(ctx, nil, ActivityEntry{Action: "x"}))

	history, err := svc.History(ctx, "redemption", id)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

type stubGenerator struct {
	questions []ai.Question
	err       error
	last      ai.QuestionRequest
}

func (s *stubGenerator) Generate(_ context.Context, req ai.QuestionRequest) ([]ai.Question, error) {
	s.last = req
	return s.questions, s.err
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func TestQuestionService(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	request := dto.QuestionGenerateRequest{Topic: "parity", Grade: 7, Difficulty: "medium", Count: 1, Kind: "choice"}

	_, err := NewQuestionService(nil, te.validate, testLogger()).Generate(ctx, request)
	require.ErrorIs(t, err, ErrQuestionGeneratorDisabled)

	generator := &stubGenerator{questions: []ai.Question{{Question: "Is 7 odd?", Kind: "choice", Options: []string{"yes", "no"}, CorrectAnswer: "yes"}}}
	svc := NewQuestionService(generator, te.validate, testLogger())

	_, err = svc.Generate(ctx, dto.QuestionGenerateRequest{Topic: "parity", Grade: 7, Difficulty: "insane", Count: 1, Kind: "choice"})
	require.Error(t, err)

	response, err := svc.Generate(ctx, request)
	require.NoError(t, err)
	require.Equal(t, "stub-model", response.Model)
	require.Len(t, response.Questions, 1)
	require.Equal(t, "yes", response.Questions[0].CorrectAnswer)
	require.Equal(t, "parity", generator.last.Topic)

	generator.err = ai.ErrInvalidOutput
	_, err = svc.Generate(ctx, request)
	require.True(t, errors.Is(err, ai.ErrInvalidOutput))
}

func TestProgressEventPublisherWithoutConnection(t *testing.T) {
	publisher := NewProgressEventPublisher(nil, "", testLogger())
	require.NotPanics(t, func() {
		publisher.Publish(context.Background(), ProgressEvent{Type: EventBadgeAwarded, StudentID: 1, OccurredAt: time.Now()})
	})
}
