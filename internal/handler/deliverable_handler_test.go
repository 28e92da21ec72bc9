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
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/handler"
	"github.com/noah-isme/iris-go-api/internal/service"
)

type reviewStubDeliverableService struct {
	response    dto.DeliverableResponse
	message     dto.ReportMessageResponse
	err         error
	lastID      uint
	lastActorID uint
	lastKind    string
}

func (s *reviewStubDeliverableService) Submit(_ context.Context, actor service.Actor, payload dto.DeliverableSubmitRequest, _ *multipart.FileHeader) (dto.DeliverableResponse, error) {
	s.lastActorID, s.lastKind = actor.ID, payload.Kind
	return s.response, s.err
}

func (s *reviewStubDeliverableService) Get(_ context.Context, id uint) (dto.DeliverableResponse, error) {
	s.lastID = id
	return s.response, s.err
}

func (s *reviewStubDeliverableService) List(_ context.Context, _ dto.DeliverableFilter) ([]dto.DeliverableResponse, error) {
	return []dto.DeliverableResponse{s.response}, s.err
}

func (s *reviewStubDeliverableService) AdvisorReview(_ context.Context, id uint, advisorID uint, _ dto.DecisionRequest) (dto.DeliverableResponse, error) {
	s.lastID, s.lastActorID = id, advisorID
	return s.response, s.err
}

func (s *reviewStubDeliverableService) CoordinatorReview(_ context.Context, id uint, coordinatorID uint, _ dto.DecisionRequest) (dto.DeliverableResponse, error) {
	s.lastID, s.lastActorID = id, coordinatorID
	return s.response, s.err
}

func (s *reviewStubDeliverableService) PostMessage(_ context.Context, id uint, actor service.Actor, _ dto.PostMessageRequest) (dto.ReportMessageResponse, error) {
	s.lastID, s.lastActorID = id, actor.ID
	return s.message, s.err
}

func (s *reviewStubDeliverableService) ListMessages(_ context.Context, id uint) ([]dto.ReportMessageResponse, error) {
	s.lastID = id
	return []dto.ReportMessageResponse{s.message}, s.err
}

type noopThreadService struct{}

func (noopThreadService) Broadcast(uint, dto.ReportMessageResponse)                      {}
func (noopThreadService) ServeConnection(*fiberws.Conn, service.ThreadConnectionOptions) {}
func (noopThreadService) SetPoster(service.MessagePoster)                                {}
func (noopThreadService) Start(context.Context)                                          {}

func newDeliverableTestApp(svc service.DeliverableService, userID uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/deliverables", func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	handler.NewDeliverableHandler(svc, noopThreadService{}, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop()).Register(group)
	return app
}

func TestDeliverableHandlerAdvisorReview(t *testing.T) {
	svc := &reviewStubDeliverableService{response: dto.DeliverableResponse{ID: 3, AdvisorStatus: "approved"}}
	app := newDeliverableTestApp(svc, 2, "advisor")

	body, err := json.Marshal(dto.DecisionRequest{Approve: true})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deliverables/3/advisor-review", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), svc.lastID)
	require.Equal(t, uint(2), svc.lastActorID)
}

func TestDeliverableHandlerReviewRoleGates(t *testing.T) {
	cases := []struct {
		name string
		role string
		path string
	}{
		{name: "student cannot advisor-review", role: "student", path: "/api/v1/deliverables/1/advisor-review"},
		{name: "advisor cannot coordinator-review", role: "advisor", path: "/api/v1/deliverables/1/coordinator-review"},
		{name: "coordinator cannot submit", role: "coordinator", path: "/api/v1/deliverables"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &reviewStubDeliverableService{}
			app := newDeliverableTestApp(svc, 8, tc.role)

			req := httptest.NewRequest(http.MethodPost, tc.path, bytes.NewReader([]byte(`{"approve":true}`)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
			require.Zero(t, svc.lastID)
		})
	}
}

func TestDeliverableHandlerReviewErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "advisor already decided", err: service.ErrInvalidStateTransition, statusCode: fiber.StatusConflict},
		{name: "advisor has not approved yet", err: service.ErrPreconditionFailed, statusCode: fiber.StatusPreconditionFailed},
		{name: "duplicate live kind", err: service.ErrConflict, statusCode: fiber.StatusConflict},
		{name: "missing deliverable", err: service.ErrNotFound, statusCode: fiber.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &reviewStubDeliverableService{err: tc.err}
			app := newDeliverableTestApp(svc, 2, "advisor")

			req := httptest.NewRequest(http.MethodPost, "/api/v1/deliverables/1/advisor-review", bytes.NewReader([]byte(`{"approve":true}`)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestDeliverableHandlerSubmitRequiresFile(t *testing.T) {
	svc := &reviewStubDeliverableService{}
	app := newDeliverableTestApp(svc, 1, "student")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("project_id", "4"))
	require.NoError(t, writer.WriteField("student_id", "1"))
	require.NoError(t, writer.WriteField("kind", "monthly_report"))
	require.NoError(t, writer.WriteField("title", "June progress"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/deliverables", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Equal(t, "file is required", response.Message)
}

func TestDeliverableHandlerPostMessage(t *testing.T) {
	svc := &reviewStubDeliverableService{message: dto.ReportMessageResponse{ID: 1, DeliverableID: 6, Body: "looks good"}}
	app := newDeliverableTestApp(svc, 1, "student")

	body, err := json.Marshal(dto.PostMessageRequest{Body: "looks good"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deliverables/6/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, uint(6), svc.lastID)
	require.Equal(t, uint(1), svc.lastActorID)
}
