package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/middleware"
	"github.com/noah-isme/iris-go-api/internal/service"
	"github.com/noah-isme/iris-go-api/internal/utils"
)

// ProjectHandler manages project lifecycle endpoints.
type ProjectHandler struct {
	service   service.ProjectService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProjectHandler builds a project handler instance.
func NewProjectHandler(service service.ProjectService, validator *validator.Validate, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "project_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProjectHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Patch("/:id/stage", middleware.WithAuth(h.advanceStage, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
	router.Put("/:id/presentation-schedule", middleware.WithAuth(h.schedulePresentation, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
	router.Put("/:id/showcase-schedule", middleware.WithAuth(h.scheduleShowcase, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
	router.Post("/:id/certificate", middleware.WithAuth(h.issueCertificate, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
}

func (h *ProjectHandler) list(c *fiber.Ctx) error {
	filter := dto.ProjectFilter{}
	if studentID, err := parseQueryUint(c, "student_id"); err == nil && studentID != nil {
		filter.StudentID = studentID
	}
	if advisorID, err := parseQueryUint(c, "advisor_id"); err == nil && advisorID != nil {
		filter.AdvisorID = advisorID
	}
	if stage := c.Query("stage"); stage != "" {
		filter.Stage = &stage
	}
	if year, err := parseQueryInt(c, "academic_year"); err == nil && year != 0 {
		filter.AcademicYear = &year
	}

	projects, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "projects retrieved", projects)
}

func (h *ProjectHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	project, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "project retrieved", project)
}

func (h *ProjectHandler) advanceStage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AdvanceStageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.AdvanceStage(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "project stage updated", project)
}

func (h *ProjectHandler) schedulePresentation(c *fiber.Ctx) error {
	return h.schedule(c, h.service.SchedulePresentation)
}

func (h *ProjectHandler) scheduleShowcase(c *fiber.Ctx) error {
	return h.schedule(c, h.service.ScheduleShowcase)
}

func (h *ProjectHandler) schedule(c *fiber.Ctx, apply func(ctx context.Context, id uint, actor service.Actor, payload dto.ScheduleRequest) (dto.ProjectResponse, error)) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ScheduleRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := apply(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "event scheduled", project)
}

func (h *ProjectHandler) issueCertificate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "certificate file is required")
	}

	project, err := h.service.IssueCertificate(c.UserContext(), id, actorFromContext(c), file)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "certificate issued", project)
}
