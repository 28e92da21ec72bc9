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

// EnrollmentHandler exposes the enrollment window settings.
type EnrollmentHandler struct {
	gate      service.EnrollmentGate
	service   service.EnrollmentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewEnrollmentHandler builds an enrollment handler instance.
func NewEnrollmentHandler(gate service.EnrollmentGate, service service.EnrollmentService, validator *validator.Validate, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		gate:      gate,
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "enrollment_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *EnrollmentHandler) Register(router fiber.Router) {
	router.Get("/window", h.window)
	router.Put("/window", middleware.WithAuth(h.setWindow, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
}

func (h *EnrollmentHandler) window(c *fiber.Ctx) error {
	window, err := h.gate.Window(c.UserContext())
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "enrollment window retrieved", window)
}

func (h *EnrollmentHandler) setWindow(c *fiber.Ctx) error {
	var payload dto.EnrollmentWindowRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	window, err := h.service.SetWindow(c.UserContext(), actorFromContext(c), payload)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "enrollment window updated", window)
}
