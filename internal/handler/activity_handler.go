package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/middleware"
	"github.com/noah-isme/iris-go-api/internal/service"
	"github.com/noah-isme/iris-go-api/internal/utils"
)

// ActivityHandler serves the workflow audit trail.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires the activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", middleware.WithAuth(h.list, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	if page <= 0 {
		page = 1
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page size")
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	req := dto.ActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}
	if actorID, err := parseQueryUint(c, "actor_id"); err == nil && actorID != nil {
		req.ActorID = *actorID
	}

	result, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "activities retrieved", result)
}
