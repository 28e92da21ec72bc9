package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/iris-go-api/internal/config"
	"github.com/noah-isme/iris-go-api/internal/handler"
	"github.com/noah-isme/iris-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ProposalHandler     *handler.ProposalHandler
	ProjectHandler      *handler.ProjectHandler
	DeliverableHandler  *handler.DeliverableHandler
	EnrollmentHandler   *handler.EnrollmentHandler
	DashboardHandler    *handler.DashboardHandler
	NotificationHandler *handler.NotificationHandler
	ActivityHandler     *handler.ActivityHandler
	ReviewAssistHandler *handler.ReviewAssistHandler
	SeedHandler         *handler.SeedHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Proposal workflow
	if deps.ProposalHandler != nil {
		proposals := app.Group("/api/v1/proposals", jwtMiddleware)
		deps.ProposalHandler.Register(proposals)
	}

	// Project lifecycle
	if deps.ProjectHandler != nil {
		projects := app.Group("/api/v1/projects", jwtMiddleware)
		deps.ProjectHandler.Register(projects)
	}

	// Deliverables, reviews, report threads
	if deps.DeliverableHandler != nil {
		deliverables := app.Group("/api/v1/deliverables", jwtMiddleware)
		deps.DeliverableHandler.Register(deliverables)
	}

	// Enrollment window settings
	if deps.EnrollmentHandler != nil {
		enrollment := app.Group("/api/v1/enrollment", jwtMiddleware)
		deps.EnrollmentHandler.Register(enrollment)
	}

	// Coordinator dashboard
	if deps.DashboardHandler != nil {
		dashboard := app.Group("/api/v1/dashboard", jwtMiddleware)
		deps.DashboardHandler.Register(dashboard)
	}

	// Notifications (list + SSE stream)
	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	// Audit trail
	if deps.ActivityHandler != nil {
		activities := app.Group("/api/v1/activities", jwtMiddleware)
		deps.ActivityHandler.Register(activities)
	}

	// AI feedback drafts for reviewers
	if deps.ReviewAssistHandler != nil {
		assist := app.Group("/api/v1/review-assist", jwtMiddleware)
		deps.ReviewAssistHandler.Register(assist)
	}

	// Token-gated bootstrap tooling, no JWT required
	if deps.SeedHandler != nil {
		seed := app.Group("/api/seed")
		deps.SeedHandler.Register(seed)
	}
}
