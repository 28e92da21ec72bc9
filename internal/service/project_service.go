package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/models"
	"github.com/noah-isme/iris-go-api/internal/observability"
	"github.com/noah-isme/iris-go-api/internal/repository"
)

// ProjectService tracks an approved proposal through its delivery stages up
// to certificate issuance.
type ProjectService interface {
	Get(ctx context.Context, id uint) (dto.ProjectResponse, error)
	GetByProposal(ctx context.Context, proposalID uint) (dto.ProjectResponse, error)
	List(ctx context.Context, filter dto.ProjectFilter) ([]dto.ProjectResponse, error)
	AdvanceStage(ctx context.Context, id uint, actor Actor, payload dto.AdvanceStageRequest) (dto.ProjectResponse, error)
	SchedulePresentation(ctx context.Context, id uint, actor Actor, payload dto.ScheduleRequest) (dto.ProjectResponse, error)
	ScheduleShowcase(ctx context.Context, id uint, actor Actor, payload dto.ScheduleRequest) (dto.ProjectResponse, error)
	IssueCertificate(ctx context.Context, id uint, actor Actor, file *multipart.FileHeader) (dto.ProjectResponse, error)
}

type projectService struct {
	projects  repository.ProjectRepository
	validator *validator.Validate
	uploader  FileUploader
	activity  ActivityRecorder
	notifier  NotificationPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewProjectService(
	projects repository.ProjectRepository,
	validate *validator.Validate,
	uploader FileUploader,
	activity ActivityRecorder,
	notifier NotificationPublisher,
	logger zerolog.Logger,
) ProjectService {
	return &projectService{
		projects:  projects,
		validator: validate,
		uploader:  uploader,
		activity:  activity,
		notifier:  notifier,
		logger:    logger.With().Str("component", "project_service").Logger(),
		now:       time.Now,
	}
}

func (s *projectService) Get(ctx context.Context, id uint) (dto.ProjectResponse, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrNotFound
		}
		return dto.ProjectResponse{}, storageErr(err)
	}

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) GetByProposal(ctx context.Context, proposalID uint) (dto.ProjectResponse, error) {
	project, err := s.projects.GetByProposalID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrNotFound
		}
		return dto.ProjectResponse{}, storageErr(err)
	}

	return dto.NewProjectResponse(project), nil
}

func (s *projectService) List(ctx context.Context, filter dto.ProjectFilter) ([]dto.ProjectResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.ProjectFilter{
		StudentID:    filter.StudentID,
		AdvisorID:    filter.AdvisorID,
		AcademicYear: filter.AcademicYear,
	}
	if filter.Stage != nil {
		stage := models.ProjectStage(*filter.Stage)
		repoFilter.Stage = &stage
	}

	projects, err := s.projects.List(ctx, repoFilter)
	if err != nil {
		return nil, storageErr(err)
	}

	return dto.NewProjectResponseSlice(projects), nil
}

// AdvanceStage sets the project to any valid stage the coordinator chooses.
// The stage list is an ordering guide, not a ratchet: coordinators may move
// a project backwards or skip ahead when the calendar demands it.
func (s *projectService) AdvanceStage(ctx context.Context, id uint, actor Actor, payload dto.AdvanceStageRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	stage := models.ProjectStage(payload.Stage)
	if !stage.Valid() {
		return dto.ProjectResponse{}, ErrInvalidStateTransition
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrNotFound
		}
		return dto.ProjectResponse{}, storageErr(err)
	}

	from := project.Stage
	if err := s.projects.SetStage(ctx, id, stage); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrNotFound
		}
		return dto.ProjectResponse{}, storageErr(err)
	}

	observability.StageTransitions().WithLabelValues(string(from), string(stage)).Inc()
	s.logger.Info().Uint("project_id", id).Str("from", string(from)).Str("to", string(stage)).Msg("project stage set")
	s.record(ctx, actor, "set_stage", id, map[string]interface{}{"from": string(from), "to": string(stage)})
	s.notify(ctx, project.StudentID, "project_stage_changed", fmt.Sprintf("Project %q moved to stage %s.", project.Title, stage))

	return s.Get(ctx, id)
}

func (s *projectService) SchedulePresentation(ctx context.Context, id uint, actor Actor, payload dto.ScheduleRequest) (dto.ProjectResponse, error) {
	return s.schedule(ctx, id, actor, "presentation", payload)
}

func (s *projectService) ScheduleShowcase(ctx context.Context, id uint, actor Actor, payload dto.ScheduleRequest) (dto.ProjectResponse, error) {
	return s.schedule(ctx, id, actor, "showcase", payload)
}

func (s *projectService) schedule(ctx context.Context, id uint, actor Actor, event string, payload dto.ScheduleRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProjectResponse{}, err
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrNotFound
		}
		return dto.ProjectResponse{}, storageErr(err)
	}

	sched := models.EventSchedule{
		Date:   payload.Date,
		Time:   payload.Time,
		Campus: payload.Campus,
		Room:   payload.Room,
	}
	if err := s.projects.SetSchedule(ctx, id, event, sched); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrNotFound
		}
		return dto.ProjectResponse{}, storageErr(err)
	}

	s.logger.Info().Uint("project_id", id).Str("event", event).Str("date", payload.Date).Msg("event scheduled")
	s.record(ctx, actor, "schedule_"+event, id, map[string]interface{}{"date": payload.Date, "time": payload.Time})
	s.notify(ctx, project.StudentID, "event_scheduled", fmt.Sprintf("Your %s for %q is scheduled on %s at %s.", event, project.Title, payload.Date, payload.Time))

	return s.Get(ctx, id)
}

// IssueCertificate uploads the certificate artifact and records it on the
// project. The project must already be in its completed stage; issuance for
// any earlier stage is refused.
func (s *projectService) IssueCertificate(ctx context.Context, id uint, actor Actor, file *multipart.FileHeader) (dto.ProjectResponse, error) {
	if file == nil {
		return dto.ProjectResponse{}, fmt.Errorf("certificate file is required")
	}
	if err := validateArtifactType(file); err != nil {
		return dto.ProjectResponse{}, err
	}

	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProjectResponse{}, ErrNotFound
		}
		return dto.ProjectResponse{}, storageErr(err)
	}
	if !project.Completed() {
		return dto.ProjectResponse{}, ErrPreconditionFailed
	}

	reader, err := file.Open()
	if err != nil {
		return dto.ProjectResponse{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, reader)
	if err != nil {
		return dto.ProjectResponse{}, fmt.Errorf("failed to upload certificate: %w", err)
	}

	if err := s.projects.SetCertificate(ctx, id, url, s.now()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The guarded update matched no row: either the project vanished
			// or it slipped out of the completed stage under us.
			return dto.ProjectResponse{}, s.classifyCertificateErr(ctx, id)
		}
		return dto.ProjectResponse{}, storageErr(err)
	}

	s.logger.Info().Uint("project_id", id).Msg("certificate issued")
	s.record(ctx, actor, "issue_certificate", id, nil)
	s.notify(ctx, project.StudentID, "certificate_issued", fmt.Sprintf("Your certificate for %q is available.", project.Title))

	return s.Get(ctx, id)
}

func (s *projectService) classifyCertificateErr(ctx context.Context, id uint) error {
	if _, err := s.projects.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storageErr(err)
	}
	return ErrPreconditionFailed
}

func (s *projectService) record(ctx context.Context, actor Actor, action string, projectID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := projectID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "project",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *projectService) notify(ctx context.Context, userID uint, kind, message string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  fmt.Sprintf("%d", userID),
		Type:    kind,
		Message: message,
	}); err != nil {
		s.logger.Warn().Err(err).Str("type", kind).Msg("failed to publish notification")
	}
}
