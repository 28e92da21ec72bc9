package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/middleware"
	"github.com/noah-isme/iris-go-api/internal/service"
	"github.com/noah-isme/iris-go-api/internal/utils"
)

// ReviewAssistHandler serves AI-drafted feedback suggestions to reviewers.
type ReviewAssistHandler struct {
	service service.ReviewAssistService
	logger  zerolog.Logger
}

// NewReviewAssistHandler builds a review assist handler instance.
func NewReviewAssistHandler(service service.ReviewAssistService, logger zerolog.Logger) *ReviewAssistHandler {
	return &ReviewAssistHandler{
		service: service,
		logger:  logger.With().Str("component", "review_assist_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ReviewAssistHandler) Register(router fiber.Router) {
	router.Get("/proposals/:id/draft", middleware.WithAuth(h.proposalDraft, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
	router.Get("/deliverables/:id/draft", middleware.WithAuth(h.deliverableDraft, middleware.AuthOptions{Role: middleware.AuthRoleStaff}))
}

func (h *ReviewAssistHandler) proposalDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	draft, err := h.service.DraftForProposal(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft generated", draft)
}

func (h *ReviewAssistHandler) deliverableDraft(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	draft, err := h.service.DraftForDeliverable(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "draft generated", draft)
}

func (h *ReviewAssistHandler) handleError(c *fiber.Ctx, err error) error {
	if errors.Is(err, service.ErrAssistUnavailable) {
		return utils.SendError(c, fiber.StatusServiceUnavailable, "review assist is not configured")
	}
	return handleWorkflowError(c, *requestLogger(h.logger, c), err)
}
