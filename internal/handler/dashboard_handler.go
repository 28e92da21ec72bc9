package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/middleware"
	"github.com/noah-isme/iris-go-api/internal/service"
	"github.com/noah-isme/iris-go-api/internal/utils"
)

// DashboardHandler serves the coordinator's program overview.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler builds a dashboard handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/coordinator", middleware.WithAuth(h.coordinator, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
}

func (h *DashboardHandler) coordinator(c *fiber.Ctx) error {
	var yearPtr *int
	if year, err := parseQueryInt(c, "academic_year"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid academic_year")
	} else if year != 0 {
		yearPtr = &year
	}

	dashboard, err := h.service.GetCoordinatorDashboard(c.UserContext(), yearPtr)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "dashboard generated", dashboard)
}
