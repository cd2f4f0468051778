package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/olympiad-progress-api/internal/config"
	"github.com/noah-isme/olympiad-progress-api/internal/database"
	"github.com/noah-isme/olympiad-progress-api/internal/handler"
	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
	"github.com/noah-isme/olympiad-progress-api/internal/router"
	"github.com/noah-isme/olympiad-progress-api/internal/rules"
	"github.com/noah-isme/olympiad-progress-api/internal/service"
)

const (
	testJWTSecret = "handler-test-secret"
	testSeedToken = "seed-token"
)

type fakeUploader struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	return "https://cdn.example.test/" + name, nil
}

type apiStack struct {
	app      *fiber.App
	redis    *miniredis.Miniredis
	uploader *fakeUploader
	mu       sync.Mutex
	now      time.Time
}

func (s *apiStack) clock() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *apiStack) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func newAPIStack(t *testing.T) *apiStack {
	t.Helper()

	db, err := database.Connect("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	stack := &apiStack{
		redis:    mr,
		uploader: &fakeUploader{},
		now:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}

	store := repository.NewStore(db)
	activity := service.NewActivityService(store.Activity, logger)
	engine := service.NewEngine(service.EngineConfig{
		Store:    store,
		Rules:    rules.Default(),
		Cache:    client,
		CacheTTL: time.Minute,
		Activity: activity,
		Logger:   logger,
	})
	engine.SetClock(stack.clock)

	views := service.NewTaskViewTracker(client, time.Hour, logger)
	app := fiber.New()
	router.Register(app, config.Config{AppName: "olympiad-test"}, router.Dependencies{
		ProgressHandler:   handler.NewProgressHandler(service.NewProgressService(engine, logger), logger),
		SubmissionHandler: handler.NewSubmissionHandler(service.NewSubmissionService(engine, views, stack.uploader, 1, validate, logger), logger),
		BadgeHandler:      handler.NewBadgeHandler(service.NewBadgeService(engine, logger), logger),
		RewardHandler:     handler.NewRewardHandler(service.NewRewardService(engine, validate, logger), activity, logger),
		CatalogHandler:    handler.NewCatalogHandler(engine.Rules()),
		QuestionHandler:   handler.NewQuestionHandler(service.NewQuestionService(nil, validate, logger), logger),
		SeedHandler:       handler.NewSeedHandler(service.NewSeedService(store, validate, true, testSeedToken, logger), logger),
		JWTMiddleware:     middleware.JWTProtected(testJWTSecret),
	})
	stack.app = app

	stack.seed(t)
	return stack
}

// seed loads two students. Student 1 owns assignment 10 (two auto-graded
// tasks) and assignment 11 (one open-ended task); student 2 owns assignment 20.
func (s *apiStack) seed(t *testing.T) {
	t.Helper()
	body := `{
		"students": [{"id": 1, "name": "Ada", "grade": 7}, {"id": 2, "name": "Boris", "grade": 8}],
		"assignments": [
			{"id": 10, "student_id": 1, "title": "Fractions", "tasks": [
				{"id": 101, "order_index": 1, "kind": "choice", "question": "1/2 + 1/4?", "options": ["A", "B", "C"], "correct_answer": "B"},
				{"id": 102, "order_index": 2, "kind": "short-answer", "question": "6 * 7?", "correct_answer": "42"}
			]},
			{"id": 11, "student_id": 1, "title": "Proofs", "tasks": [
				{"id": 103, "kind": "open-ended", "question": "Prove that sqrt(2) is irrational"}
			]},
			{"id": 20, "student_id": 2, "title": "Geometry", "tasks": [
				{"id": 201, "kind": "short-answer", "question": "Angles in a triangle?", "correct_answer": "180"}
			]}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v2/admin/seed", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Seed-Token", testSeedToken)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func token(t *testing.T, userID uint, role string, children ...uint) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", userID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	if len(children) > 0 {
		ids := make([]interface{}, 0, len(children))
		for _, id := range children {
			ids = append(ids, id)
		}
		claims["student_ids"] = ids
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

type envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Data    json.RawMessage        `json:"data"`
	Meta    map[string]interface{} `json:"meta"`
	Details map[string]interface{} `json:"details"`
}

func (s *apiStack) do(t *testing.T, method, path, bearer string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return s.send(t, req)
}

func (s *apiStack) send(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal(raw, &value))
	return value
}

// status performs a JSON request without asserting, for use from goroutines.
func (s *apiStack) status(method, path, bearer string, body interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
