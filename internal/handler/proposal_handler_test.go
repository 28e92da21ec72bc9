package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/handler"
	"github.com/noah-isme/iris-go-api/internal/service"
)

type stubProposalService struct {
	response    dto.ProposalResponse
	err         error
	lastID      uint
	lastActorID uint
	lastPayload dto.DecisionRequest
}

func (s *stubProposalService) Submit(_ context.Context, payload dto.ProposalSubmitRequest, _ *multipart.FileHeader) (dto.ProposalResponse, error) {
	s.lastActorID = payload.StudentID
	return s.response, s.err
}

func (s *stubProposalService) Get(_ context.Context, id uint) (dto.ProposalResponse, error) {
	s.lastID = id
	return s.response, s.err
}

func (s *stubProposalService) GetActive(_ context.Context, studentID uint) (dto.ProposalResponse, error) {
	s.lastActorID = studentID
	return s.response, s.err
}

func (s *stubProposalService) List(_ context.Context, _ dto.ProposalFilter) ([]dto.ProposalResponse, error) {
	return []dto.ProposalResponse{s.response}, s.err
}

func (s *stubProposalService) AdvisorDecide(_ context.Context, id uint, advisorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
	s.lastID, s.lastActorID, s.lastPayload = id, advisorID, payload
	return s.response, s.err
}

func (s *stubProposalService) CoordinatorDecide(_ context.Context, id uint, coordinatorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
	s.lastID, s.lastActorID, s.lastPayload = id, coordinatorID, payload
	return s.response, s.err
}

func (s *stubProposalService) PresentationDecide(_ context.Context, id uint, coordinatorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
	s.lastID, s.lastActorID, s.lastPayload = id, coordinatorID, payload
	return s.response, s.err
}

func (s *stubProposalService) Delete(_ context.Context, actor service.Actor, id uint) error {
	s.lastID, s.lastActorID = id, actor.ID
	return s.err
}

func newProposalTestApp(svc service.ProposalService, userID uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/proposals", func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	handler.NewProposalHandler(svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop()).Register(group)
	return app
}

func decisionRequest(t *testing.T, path string) *http.Request {
	t.Helper()
	body, err := json.Marshal(dto.DecisionRequest{Approve: true, Feedback: "fine"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestProposalHandlerAdvisorDecision(t *testing.T) {
	svc := &stubProposalService{response: dto.ProposalResponse{ID: 12, Status: "pending_coordinator"}}
	app := newProposalTestApp(svc, 2, "advisor")

	resp, err := app.Test(decisionRequest(t, "/api/v1/proposals/12/advisor-decision"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(12), svc.lastID)
	require.Equal(t, uint(2), svc.lastActorID)
	require.True(t, svc.lastPayload.Approve)
}

func TestProposalHandlerRoleGates(t *testing.T) {
	cases := []struct {
		name   string
		role   string
		path   string
		method string
	}{
		{name: "student cannot advisor-decide", role: "student", path: "/api/v1/proposals/1/advisor-decision", method: http.MethodPost},
		{name: "advisor cannot coordinator-decide", role: "advisor", path: "/api/v1/proposals/1/coordinator-decision", method: http.MethodPost},
		{name: "student cannot delete", role: "student", path: "/api/v1/proposals/1", method: http.MethodDelete},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubProposalService{}
			app := newProposalTestApp(svc, 9, tc.role)

			req := httptest.NewRequest(tc.method, tc.path, bytes.NewReader([]byte(`{"approve":true}`)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
			require.Zero(t, svc.lastID)
		})
	}
}

func TestProposalHandlerUnauthenticated(t *testing.T) {
	app := newProposalTestApp(&stubProposalService{}, 0, "")

	resp, err := app.Test(decisionRequest(t, "/api/v1/proposals/1/advisor-decision"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProposalHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "unauthorized", err: service.ErrUnauthorized, statusCode: fiber.StatusForbidden},
		{name: "enrollment closed", err: service.ErrEnrollmentClosed, statusCode: fiber.StatusForbidden},
		{name: "not found", err: service.ErrNotFound, statusCode: fiber.StatusNotFound},
		{name: "invalid transition", err: service.ErrInvalidStateTransition, statusCode: fiber.StatusConflict},
		{name: "conflict", err: service.ErrConflict, statusCode: fiber.StatusConflict},
		{name: "precondition", err: service.ErrPreconditionFailed, statusCode: fiber.StatusPreconditionFailed},
		{name: "storage", err: service.ErrStorage, statusCode: fiber.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubProposalService{err: tc.err}
			app := newProposalTestApp(svc, 2, "advisor")

			resp, err := app.Test(decisionRequest(t, "/api/v1/proposals/1/advisor-decision"))
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)

			var response struct {
				Success bool `json:"success"`
			}
			decodeResponse(t, resp, &response)
			require.False(t, response.Success)
		})
	}
}

func TestProposalHandlerGet(t *testing.T) {
	svc := &stubProposalService{response: dto.ProposalResponse{ID: 7, Status: "approved"}}
	app := newProposalTestApp(svc, 1, "student")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/proposals/7", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                 `json:"success"`
		Data    dto.ProposalResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(7), response.Data.ID)
	require.Equal(t, "approved", response.Data.Status)
}
