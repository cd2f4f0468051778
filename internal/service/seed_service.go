package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/models"
	"github.com/noah-isme/olympiad-progress-api/internal/progress"
	"github.com/noah-isme/olympiad-progress-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
	// ErrSeedInvalid indicates the dataset is inconsistent.
	ErrSeedInvalid = errors.New("invalid seed dataset")
)

// SeedService imports the initial students and task catalog.
type SeedService interface {
	Seed(ctx context.Context, token string, req dto.SeedRequest) (dto.SeedResponse, error)
}

type seedService struct {
	store     *repository.Store
	validator *validator.Validate
	enabled   bool
	token     string
	logger    zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(store *repository.Store, validate *validator.Validate, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		store:     store,
		validator: validate,
		enabled:   enabled,
		token:     token,
		logger:    logger.With().Str("component", "seed_service").Logger(),
	}
}

func (s *seedService) Seed(ctx context.Context, token string, req dto.SeedRequest) (dto.SeedResponse, error) {
	if !s.enabled {
		return dto.SeedResponse{}, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return dto.SeedResponse{}, ErrSeedUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.SeedResponse{}, err
	}

	students := normalizeStudents(req.Students)
	assignments, tasks, err := normalizeAssignments(req.Assignments)
	if err != nil {
		return dto.SeedResponse{}, err
	}

	var response dto.SeedResponse
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		if response.Students, err = tx.Students.UpsertBatch(ctx, students); err != nil {
			return fmt.Errorf("seed students: %w", err)
		}
		if response.Assignments, err = tx.Assignments.UpsertAssignments(ctx, assignments); err != nil {
			return fmt.Errorf("seed assignments: %w", err)
		}
		if response.Tasks, err = tx.Assignments.UpsertTasks(ctx, tasks); err != nil {
			return fmt.Errorf("seed tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return dto.SeedResponse{}, err
	}

	s.logger.Info().
		Int64("students", response.Students).
		Int64("assignments", response.Assignments).
		Int64("tasks", response.Tasks).
		Msg("catalog seeded")
	return response, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.TrimSpace(token))) == 1
}

func normalizeStudents(items []dto.SeedStudent) []models.Student {
	students := make([]models.Student, 0, len(items))
	for _, item := range items {
		students = append(students, models.Student{
			ID:    item.ID,
			Name:  strings.TrimSpace(item.Name),
			Grade: item.Grade,
			Color: strings.TrimSpace(item.Color),
		})
	}
	return students
}

func normalizeAssignments(items []dto.SeedAssignment) ([]models.Assignment, []models.Task, error) {
	assignments := make([]models.Assignment, 0, len(items))
	tasks := make([]models.Task, 0)

	for _, item := range items {
		active := true
		if item.IsActive != nil {
			active = *item.IsActive
		}
		assignments = append(assignments, models.Assignment{
			ID:          item.ID,
			StudentID:   item.StudentID,
			Title:       strings.TrimSpace(item.Title),
			Description: item.Description,
			DueDate:     item.DueDate,
			IsActive:    active,
		})

		for idx, seed := range item.Tasks {
			kind, err := progress.ParseTaskKind(seed.Kind)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: task %d: %v", ErrSeedInvalid, seed.ID, err)
			}
			if kind.AutoGraded() && strings.TrimSpace(seed.CorrectAnswer) == "" {
				return nil, nil, fmt.Errorf("%w: task %d needs correct_answer for %s tasks", ErrSeedInvalid, seed.ID, kind)
			}

			task := models.Task{
				ID:            seed.ID,
				AssignmentID:  item.ID,
				OrderIndex:    seed.OrderIndex,
				Kind:          kind.String(),
				Question:      seed.Question,
				CorrectAnswer: strings.TrimSpace(seed.CorrectAnswer),
				Points:        seed.Points,
				ImageURL:      seed.ImageURL,
			}
			if task.OrderIndex == 0 {
				task.OrderIndex = idx + 1
			}
			if task.Points == 0 {
				task.Points = 1
			}
			if kind == progress.KindChoice && len(seed.Options) > 0 {
				encoded, err := json.Marshal(seed.Options)
				if err != nil {
					return nil, nil, err
				}
				task.Options = datatypes.JSON(encoded)
			}
			tasks = append(tasks, task)
		}
	}

	return assignments, tasks, nil
}
