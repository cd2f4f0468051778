package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/service"
	"github.com/noah-isme/olympiad-progress-api/internal/utils"
)

// RewardHandler exposes the reward shop and its purchase ledger.
type RewardHandler struct {
	service  service.RewardService
	activity service.ActivityService
	logger   zerolog.Logger
}

// NewRewardHandler constructs a reward handler. activity is optional.
func NewRewardHandler(service service.RewardService, activity service.ActivityService, logger zerolog.Logger) *RewardHandler {
	return &RewardHandler{
		service:  service,
		activity: activity,
		logger:   logger.With().Str("component", "reward_handler").Logger(),
	}
}

// RegisterStudentRoutes wires purchase routes below /students.
func (h *RewardHandler) RegisterStudentRoutes(router fiber.Router, writeGuards ...fiber.Handler) {
	router.Get("/:studentID/redemptions", middleware.WithAuth(h.list, middleware.AuthOptions{StudentParam: "studentID"}))
	router.Post("/:studentID/redemptions", guarded(writeGuards, middleware.WithAuth(h.redeem, middleware.AuthOptions{
		Roles:        []string{middleware.RoleStudent},
		StudentParam: "studentID",
	}))...)
}

// RegisterStaffRoutes wires fulfilment routes below /redemptions.
func (h *RewardHandler) RegisterStaffRoutes(router fiber.Router) {
	staff := middleware.AuthOptions{Roles: []string{middleware.RoleTeacher, middleware.RoleAdmin}}
	router.Post("/:id/fulfill", middleware.WithAuth(h.fulfill, staff))
	router.Get("/:id/history", middleware.WithAuth(h.history, staff))
}

func (h *RewardHandler) list(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	redemptions, err := h.service.List(c.UserContext(), studentID)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "redemptions retrieved", redemptions)
}

func (h *RewardHandler) redeem(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.RedeemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.Redeem(c.UserContext(), studentID, req, activityActorFromContext(c))
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	if !result.Accepted {
		return utils.Fail(c, fiber.StatusUnprocessableEntity, "redemption rejected", fiber.Map{
			"reason":           result.Reason,
			"available_points": result.AvailablePoints,
		})
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "reward redeemed", result)
}

func (h *RewardHandler) fulfill(c *fiber.Ctx) error {
	redemptionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	redemption, err := h.service.Fulfill(c.UserContext(), redemptionID, activityActorFromContext(c))
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}

	requestLogger(h.logger, c).Info().
		Uint("redemption_id", redemption.ID).
		Uint("fulfilled_by", userIDFromContext(c)).
		Msg("redemption fulfilled")
	return utils.SendSuccess(c, "redemption fulfilled", redemption)
}

func (h *RewardHandler) history(c *fiber.Ctx) error {
	if h.activity == nil {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "activity log unavailable")
	}
	redemptionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	entries, err := h.activity.History(c.UserContext(), service.ActivityEntityRedemption, redemptionID)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "activity retrieved", entries)
}
