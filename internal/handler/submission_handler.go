package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/olympiad-progress-api/internal/dto"
	"github.com/noah-isme/olympiad-progress-api/internal/middleware"
	"github.com/noah-isme/olympiad-progress-api/internal/service"
	"github.com/noah-isme/olympiad-progress-api/internal/utils"
)

// SubmissionHandler exposes the answer ledger of a student.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register wires submission routes below /students.
func (h *SubmissionHandler) Register(router fiber.Router, writeGuards ...fiber.Handler) {
	self := middleware.AuthOptions{Roles: []string{middleware.RoleStudent}, StudentParam: "studentID"}
	retry := middleware.AuthOptions{Roles: []string{middleware.RoleStudent, middleware.RoleTeacher, middleware.RoleAdmin}, StudentParam: "studentID"}
	read := middleware.AuthOptions{StudentParam: "studentID"}

	router.Get("/:studentID/submissions", middleware.WithAuth(h.list, read))

	tasks := router.Group("/:studentID/tasks/:taskID")
	tasks.Post("/view", middleware.WithAuth(h.view, self))
	tasks.Post("/submissions", guarded(writeGuards, middleware.WithAuth(h.submit, self))...)
	tasks.Post("/retry", guarded(writeGuards, middleware.WithAuth(h.retry, retry))...)
}

func (h *SubmissionHandler) view(c *fiber.Ctx) error {
	studentID, taskID, err := studentTaskParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.MarkViewed(c.UserContext(), studentID, taskID)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "task view recorded", view)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	studentID, taskID, err := studentTaskParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm) {
		if file, err := c.FormFile("photo"); err == nil {
			req.Photo = file
		}
	}

	result, err := h.service.Submit(c.UserContext(), studentID, taskID, req)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission recorded", result)
}

func (h *SubmissionHandler) retry(c *fiber.Ctx) error {
	studentID, taskID, err := studentTaskParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Retry(c.UserContext(), studentID, taskID, activityActorFromContext(c)); err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "task reopened for retry", fiber.Map{"task_id": taskID})
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	taskID, err := parseQueryUint(c, "task_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	query := dto.SubmissionListQuery{
		TaskID:            taskID,
		IncludeSuperseded: c.QueryBool("include_superseded", false),
	}

	items, err := h.service.List(c.UserContext(), studentID, query)
	if err != nil {
		return sendEngineError(c, h.logger, err)
	}
	return utils.OK(c, items, "submissions retrieved", fiber.Map{"count": len(items)})
}

func studentTaskParams(c *fiber.Ctx) (uint, uint, error) {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return 0, 0, err
	}
	taskID, err := parseUintParam(c, "taskID")
	if err != nil {
		return 0, 0, err
	}
	return studentID, taskID, nil
}
