package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/config"
	"github.com/noah-isme/iris-go-api/internal/database"
	"github.com/noah-isme/iris-go-api/internal/handler"
	"github.com/noah-isme/iris-go-api/internal/middleware"
	"github.com/noah-isme/iris-go-api/internal/models"
	"github.com/noah-isme/iris-go-api/internal/repository"
	"github.com/noah-isme/iris-go-api/internal/router"
	"github.com/noah-isme/iris-go-api/internal/service"
	"github.com/noah-isme/iris-go-api/pkg/ai"
	cloud "github.com/noah-isme/iris-go-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Proposal{},
		&models.Project{},
		&models.Deliverable{},
		&models.ReportMessage{},
		&models.SystemConfig{},
		&models.Notification{},
		&models.ActivityLog{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, caching and fan-out disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, cross-node events disabled")
	}

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	proposalRepo := repository.NewProposalRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	deliverableRepo := repository.NewDeliverableRepository(db)
	messageRepo := repository.NewReportMessageRepository(db)
	configRepo := repository.NewConfigRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.EventChannelBase, natsConn, validate, logger)
	enrollmentService := service.NewEnrollmentService(configRepo, validate, activityService, logger)
	threadService := service.NewThreadStreamService(redisClient, cfg.EventChannelBase, natsConn, logger)
	proposalService := service.NewProposalService(proposalRepo, projectRepo, enrollmentService, validate, uploader, activityService, notificationService, logger)
	projectService := service.NewProjectService(projectRepo, validate, uploader, activityService, notificationService, logger)
	deliverableService := service.NewDeliverableService(deliverableRepo, projectRepo, messageRepo, validate, uploader, activityService, notificationService, threadService, logger)
	threadService.SetPoster(deliverableService)
	dashboardService := service.NewDashboardService(dashboardRepo, redisClient, cfg.DashboardCacheTTL, logger)

	var assistant ai.Assistant
	switch {
	case cfg.AIProvider == "openai" && cfg.OpenAIAPIKey != "":
		assistant, err = ai.NewOpenAIAssistant(ai.OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Logger: logger})
		if err != nil {
			log.Fatalf("failed to create ai assistant: %v", err)
		}
	case cfg.AIProvider == "anthropic" && cfg.AnthropicAPIKey != "":
		assistant, err = ai.NewAnthropicAssistant(ai.AnthropicConfig{APIKey: cfg.AnthropicAPIKey})
		if err != nil {
			log.Fatalf("failed to create ai assistant: %v", err)
		}
	}
	reviewAssistService := service.NewReviewAssistService(assistant, proposalRepo, deliverableRepo, logger)
	seedService := service.NewSeedService(configRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	proposalHandler := handler.NewProposalHandler(proposalService, validate, logger)
	projectHandler := handler.NewProjectHandler(projectService, validate, logger)
	deliverableHandler := handler.NewDeliverableHandler(deliverableService, threadService, validate, logger)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService, enrollmentService, validate, logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger, 30*time.Second)
	activityHandler := handler.NewActivityHandler(activityService, logger)
	reviewAssistHandler := handler.NewReviewAssistHandler(reviewAssistService, logger)
	seedHandler := handler.NewSeedHandler(seedService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ProposalHandler:     proposalHandler,
		ProjectHandler:      projectHandler,
		DeliverableHandler:  deliverableHandler,
		EnrollmentHandler:   enrollmentHandler,
		DashboardHandler:    dashboardHandler,
		NotificationHandler: notificationHandler,
		ActivityHandler:     activityHandler,
		ReviewAssistHandler: reviewAssistHandler,
		SeedHandler:         seedHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	runCtx, stopConsumers := context.WithCancel(context.Background())
	defer stopConsumers()
	notificationService.Start(runCtx)
	threadService.Start(runCtx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
