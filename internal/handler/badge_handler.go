package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/service"
	"github.com/noah-isme/olympiad-progress-api/internal/utils"
)

// BadgeHandler lists and evaluates achievement badges.
type BadgeHandler struct {
	service service.BadgeService
	logger  zerolog.Logger
}

// NewBadgeHandler constructs a badge handler.
func NewBadgeHandler(service service.BadgeService, logger zerolog.Logger) *BadgeHandler {
	return &BadgeHandler{
		service: service,
		logger:  logger.With().Str("component", "badge_handler").Logger(),
	}
}

// Register wires badge routes below /students.
func (h *BadgeHandler) Register(router fiber.Router) {
	router.Get("/:studentID/badges", middleware.WithAuth(h.list, middleware.AuthOptions{StudentParam: "studentID"}))
	router.Post("/:studentID/badges/evaluate", middleware.WithAuth(h.evaluate, middleware.AuthOptions{
		Roles:        []string{middleware.RoleStudent, middleware.RoleTeacher, middleware.RoleAdmin},
		StudentParam: "studentID",
	}))
}

func (h *BadgeHandler) list(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	badges, err := h.service.List(c.UserContext(), studentID)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "badges retrieved", badges)
}

func (h *BadgeHandler) evaluate(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	granted, err := h.service.EvaluateAndAward(c.UserContext(), studentID)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.OK(c, granted, "badges evaluated", fiber.Map{"granted": len(granted)})
}
