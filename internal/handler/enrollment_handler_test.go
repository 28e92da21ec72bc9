package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
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

type stubEnrollmentService struct {
	window      dto.EnrollmentWindowResponse
	err         error
	lastPayload dto.EnrollmentWindowRequest
	lastActor   service.Actor
}

func (s *stubEnrollmentService) Window(_ context.Context) (dto.EnrollmentWindowResponse, error) {
	return s.window, s.err
}

func (s *stubEnrollmentService) SetWindow(_ context.Context, actor service.Actor, payload dto.EnrollmentWindowRequest) (dto.EnrollmentWindowResponse, error) {
	s.lastActor, s.lastPayload = actor, payload
	return s.window, s.err
}

func newEnrollmentTestApp(svc *stubEnrollmentService, userID uint, role string) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/enrollment", func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user_id", userID)
			c.Locals("user_role", role)
		}
		return c.Next()
	})
	handler.NewEnrollmentHandler(svc, svc, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop()).Register(group)
	return app
}

func TestEnrollmentHandlerWindowIsPublic(t *testing.T) {
	svc := &stubEnrollmentService{window: dto.EnrollmentWindowResponse{Open: true, Year: 2026}}
	app := newEnrollmentTestApp(svc, 0, "")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/enrollment/window", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                         `json:"success"`
		Data    dto.EnrollmentWindowResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.True(t, response.Data.Open)
	require.Equal(t, 2026, response.Data.Year)
}

func TestEnrollmentHandlerSetWindow(t *testing.T) {
	svc := &stubEnrollmentService{window: dto.EnrollmentWindowResponse{Open: false, Year: 2027}}
	app := newEnrollmentTestApp(svc, 5, "coordinator")

	body, err := json.Marshal(dto.EnrollmentWindowRequest{Open: false, Year: 2027})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/enrollment/window", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(5), svc.lastActor.ID)
	require.Equal(t, 2027, svc.lastPayload.Year)
}

func TestEnrollmentHandlerSetWindowRequiresCoordinator(t *testing.T) {
	cases := []struct {
		name     string
		userID   uint
		role     string
		wantCode int
	}{
		{name: "student", userID: 3, role: "student", wantCode: fiber.StatusForbidden},
		{name: "advisor", userID: 4, role: "advisor", wantCode: fiber.StatusForbidden},
		{name: "anonymous", userID: 0, role: "", wantCode: fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubEnrollmentService{}
			app := newEnrollmentTestApp(svc, tc.userID, tc.role)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/enrollment/window", bytes.NewReader([]byte(`{"open":true,"year":2026}`)))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.wantCode, resp.StatusCode)
			require.Zero(t, svc.lastPayload.Year)
		})
	}
}
