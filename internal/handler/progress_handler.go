package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/service"
	"github.com/noah-isme/olympiad-progress-api/internal/utils"
)

// ProgressHandler exposes the progress summary of a student.
type ProgressHandler struct {
	service service.ProgressService
	logger  zerolog.Logger
}

// NewProgressHandler creates a new handler instance.
func NewProgressHandler(service service.ProgressService, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		service: service,
		logger:  logger.With().Str("component", "progress_handler").Logger(),
	}
}

// Register attaches the summary endpoint.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/:studentID/progress", middleware.WithAuth(h.summary, middleware.AuthOptions{StudentParam: "studentID"}))
}

func (h *ProgressHandler) summary(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, cacheHit, err := h.service.Summary(c.UserContext(), studentID)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}

	return utils.OK(c, summary, "progress retrieved", fiber.Map{"cache_hit": cacheHit})
}
