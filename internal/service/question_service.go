package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/pkg/ai"
)

// ErrQuestionGeneratorDisabled indicates no AI provider is configured.
var ErrQuestionGeneratorDisabled = errors.New("question generator is not configured")

// QuestionService drafts practice questions for teachers.
type QuestionService interface {
	Generate(ctx context.Context, req dto.QuestionGenerateRequest) (dto.QuestionGenerateResponse, error)
}

type questionService struct {
	generator ai.QuestionGenerator
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewQuestionService wraps an optional generator.
func NewQuestionService(generator ai.QuestionGenerator, validate *validator.Validate, logger zerolog.Logger) QuestionService {
	return &questionService{
		generator: generator,
		validator: validate,
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *questionService) Generate(ctx context.Context, req dto.QuestionGenerateRequest) (dto.QuestionGenerateResponse, error) {
	if s.generator == nil {
		return dto.QuestionGenerateResponse{}, ErrQuestionGeneratorDisabled
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.QuestionGenerateResponse{}, err
	}

	questions, err := s.generator.Generate(ctx, ai.QuestionRequest{
		Topic:      req.Topic,
		Grade:      req.Grade,
		Difficulty: req.Difficulty,
		Count:      req.Count,
		Kind:       req.Kind,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", req.Topic).Msg("question generation failed")
		return dto.QuestionGenerateResponse{}, err
	}

	response := dto.QuestionGenerateResponse{
		Questions: make([]dto.GeneratedQuestion, 0, len(questions)),
		Model:     s.generator.Model(),
	}
	for _, question := range questions {
		response.Questions = append(response.Questions, dto.GeneratedQuestion{
			Question:      question.Question,
			Kind:          question.Kind,
			Options:       question.Options,
			CorrectAnswer: question.CorrectAnswer,
			Explanation:   question.Explanation,
		})
	}
	return response, nil
}
