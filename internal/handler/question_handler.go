package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/service"
	"github.com/noah-isme/olympiad-progress-api/internal/utils"
)

// QuestionHandler drafts practice questions for teachers.
type QuestionHandler struct {
	service service.QuestionService
	logger  zerolog.Logger
}

// NewQuestionHandler constructs a question handler.
func NewQuestionHandler(service service.QuestionService, logger zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		service: service,
		logger:  logger.With().Str("component", "question_handler").Logger(),
	}
}

// Register wires question routes.
func (h *QuestionHandler) Register(router fiber.Router, writeGuards ...fiber.Handler) {
	router.Post("/questions/generate", guarded(writeGuards, middleware.WithAuth(h.generate, middleware.AuthOptions{
		Roles: []string{middleware.RoleTeacher, middleware.RoleAdmin},
	}))...)
}

func (h *QuestionHandler) generate(c *fiber.Ctx) error {
	var req dto.QuestionGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Generate(c.UserContext(), req)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.OK(c, result, "questions generated", fiber.Map{"count": len(result.Questions), "model": result.Model})
}
