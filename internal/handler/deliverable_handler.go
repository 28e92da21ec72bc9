package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/middleware"
	"github.com/noah-isme/iris-go-api/internal/service"
	"github.com/noah-isme/iris-go-api/internal/utils"
)

// DeliverableHandler manages deliverable review endpoints and the live
// report thread websocket.
type DeliverableHandler struct {
	service   service.DeliverableService
	threads   service.ThreadStreamService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDeliverableHandler builds a deliverable handler instance.
func NewDeliverableHandler(service service.DeliverableService, threads service.ThreadStreamService, validator *validator.Validate, logger zerolog.Logger) *DeliverableHandler {
	return &DeliverableHandler{
		service:   service,
		threads:   threads,
		validator: validator,
		logger:    logger.With().Str("component", "deliverable_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DeliverableHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", middleware.WithAuth(h.submit, middleware.AuthOptions{Role: middleware.AuthRoleStudent}))
	router.Get("/:id", h.get)
	router.Post("/:id/advisor-review", middleware.WithAuth(h.advisorReview, middleware.AuthOptions{Role: middleware.AuthRoleAdvisor}))
	router.Post("/:id/coordinator-review", middleware.WithAuth(h.coordinatorReview, middleware.AuthOptions{Role: middleware.AuthRoleCoordinator}))
	router.Get("/:id/messages", h.listMessages)
	router.Post("/:id/messages", h.postMessage)

	if h.threads != nil {
		router.Use("/:id/thread", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				ctx := c.UserContext()
				if ctx == nil {
					ctx = context.Background()
				}
				ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
				c.Locals("request_ctx", ctx)
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		router.Get("/:id/thread", websocket.New(h.handleThreadConnection))
	}
}

func (h *DeliverableHandler) submit(c *fiber.Ctx) error {
	var payload dto.DeliverableSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	projectID, err := parseFormUint(c, "project_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	payload.ProjectID = *projectID

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	deliverable, err := h.service.Submit(c.UserContext(), actorFromContext(c), payload, file)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "deliverable submitted", deliverable)
}

func (h *DeliverableHandler) list(c *fiber.Ctx) error {
	filter := dto.DeliverableFilter{}
	if projectID, err := parseQueryUint(c, "project_id"); err == nil && projectID != nil {
		filter.ProjectID = projectID
	}
	if studentID, err := parseQueryUint(c, "student_id"); err == nil && studentID != nil {
		filter.StudentID = studentID
	}
	if kind := c.Query("kind"); kind != "" {
		filter.Kind = &kind
	}
	if status := c.Query("advisor_status"); status != "" {
		filter.AdvisorStatus = &status
	}
	if status := c.Query("coordinator_status"); status != "" {
		filter.CoordinatorStatus = &status
	}

	deliverables, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "deliverables retrieved", deliverables)
}

func (h *DeliverableHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	deliverable, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "deliverable retrieved", deliverable)
}

func (h *DeliverableHandler) advisorReview(c *fiber.Ctx) error {
	return h.review(c, func(id uint, payload dto.DecisionRequest) (dto.DeliverableResponse, error) {
		return h.service.AdvisorReview(c.UserContext(), id, userIDFromContext(c), payload)
	})
}

func (h *DeliverableHandler) coordinatorReview(c *fiber.Ctx) error {
	return h.review(c, func(id uint, payload dto.DecisionRequest) (dto.DeliverableResponse, error) {
		return h.service.CoordinatorReview(c.UserContext(), id, userIDFromContext(c), payload)
	})
}

func (h *DeliverableHandler) review(c *fiber.Ctx, apply func(uint, dto.DecisionRequest) (dto.DeliverableResponse, error)) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	deliverable, err := apply(id, payload)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "review recorded", deliverable)
}

func (h *DeliverableHandler) postMessage(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.PostMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.service.PostMessage(c.UserContext(), id, actorFromContext(c), payload)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message posted", message)
}

func (h *DeliverableHandler) listMessages(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	messages, err := h.service.ListMessages(c.UserContext(), id)
	if err != nil {
		return handleWorkflowError(c, *requestLogger(h.logger, c), err)
	}

	return utils.SendSuccess(c, "messages retrieved", messages)
}

func (h *DeliverableHandler) handleThreadConnection(conn *websocket.Conn) {
	userID := websocketUserID(conn)
	if userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "user id missing"))
		_ = conn.Close()
		return
	}

	idRaw := strings.TrimSpace(conn.Params("id"))
	deliverableID, err := strconv.ParseUint(idRaw, 10, 64)
	if err != nil || deliverableID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusBadRequest, "deliverable id required"))
		_ = conn.Close()
		return
	}

	role := fmt.Sprint(conn.Locals("user_role"))
	correlation := fmt.Sprint(conn.Locals("correlation_id"))
	baseCtx, _ := conn.Locals("request_ctx").(context.Context)

	opts := service.ThreadConnectionOptions{
		Actor:         service.Actor{ID: userID, Role: role},
		DeliverableID: uint(deliverableID),
		CorrelationID: correlation,
		Context:       baseCtx,
	}

	h.logger.Info().Uint("user_id", userID).Uint64("deliverable_id", deliverableID).Msg("thread websocket connected")
	h.threads.ServeConnection(conn, opts)
	h.logger.Info().Uint("user_id", userID).Uint64("deliverable_id", deliverableID).Msg("thread websocket disconnected")
}

func websocketUserID(conn *websocket.Conn) uint {
	if value := conn.Locals("user_id"); value != nil {
		switch v := value.(type) {
		case float64:
			if v > 0 {
				return uint(v)
			}
		case uint:
			return v
		case int:
			if v > 0 {
				return uint(v)
			}
		case string:
			if parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64); err == nil {
				return uint(parsed)
			}
		}
	}
	return 0
}
