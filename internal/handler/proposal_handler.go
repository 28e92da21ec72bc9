package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/middleware"
	"github.com/noah-isme/iris-go-api/internal/service"
	"github.com/noah-isme/iris-go-api/internal/utils"
)

// ProposalHandler manages proposal workflow endpoints.
type ProposalHandler struct {
	service   service.ProposalService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProposalHandler builds a proposal handler instance.
func NewProposalHandler(service service.ProposalService, validator *validator.Validate, logger zerolog.Logger) *ProposalHandler {
	return &ProposalHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "proposal_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ProposalHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", middleware.WithAuth(h.submit, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Get("/active", middleware.WithAuth(h.active, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Get("/:id", h.get)
	router.Delete("/:id", middleware.WithAuth(h.delete, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
	router.Post("/:id/advisor-decision", middleware.WithAuth(h.advisorDecide, middleware.AuthOptions{Role: middleware.AuthRoleAdvisor}))
	router.Post("/:id/coordinator-decision", middleware.WithAuth(h.coordinatorDecide, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
	router.Post("/:id/presentation-decision", middleware.WithAuth(h.presentationDecide, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
}

func (h *ProposalHandler) submit(c *fiber.Ctx) error {
	var payload dto.ProposalSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.StudentID = userIDFromContext(c)

	advisorID, err := parseFormUint(c, "advisor_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	payload.AdvisorID = *advisorID

	// The artifact attachment is optional at submission time.
	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	proposal, err := h.service.Submit(c.UserContext(), payload, file)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "proposal submitted", proposal)
}

func (h *ProposalHandler) list(c *fiber.Ctx) error {
	filter := dto.ProposalFilter{}
	if studentID, err := parseQueryUint(c, "student_id"); err == nil && studentID != nil {
		filter.StudentID = studentID
	}
	if advisorID, err := parseQueryUint(c, "advisor_id"); err == nil && advisorID != nil {
		filter.AdvisorID = advisorID
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if year, err := parseQueryInt(c, "academic_year"); err == nil && year != 0 {
		filter.AcademicYear = &year
	}

	proposals, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "proposals retrieved", proposals)
}

func (h *ProposalHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	proposal, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "proposal retrieved", proposal)
}

func (h *ProposalHandler) active(c *fiber.Ctx) error {
	proposal, err := h.service.GetActive(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "active proposal retrieved", proposal)
}

func (h *ProposalHandler) advisorDecide(c *fiber.Ctx) error {
	return h.decide(c, func(id uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
		return h.service.AdvisorDecide(c.UserContext(), id, userIDFromContext(c), payload)
	})
}

func (h *ProposalHandler) coordinatorDecide(c *fiber.Ctx) error {
	return h.decide(c, func(id uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
		return h.service.CoordinatorDecide(c.UserContext(), id, userIDFromContext(c), payload)
	})
}

func (h *ProposalHandler) presentationDecide(c *fiber.Ctx) error {
	return h.decide(c, func(id uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
		return h.service.PresentationDecide(c.UserContext(), id, userIDFromContext(c), payload)
	})
}

func (h *ProposalHandler) decide(c *fiber.Ctx, apply func(uint, dto.DecisionRequest) (dto.ProposalResponse, error)) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	proposal, err := apply(id, payload)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "decision recorded", proposal)
}

func (h *ProposalHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), actorFromContext(c), id); err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "proposal deleted", nil)
}
