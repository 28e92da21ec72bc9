package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/models"
	"github.com/noah-isme/iris-go-api/internal/observability"
	"github.com/noah-isme/iris-go-api/internal/repository"
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// DeliverableService runs the two-tier review of project artifacts: the
// advisor screens first, the coordinator settles what the advisor passed on.
type DeliverableService interface {
	Submit(ctx context.Context, actor Actor, payload dto.DeliverableSubmitRequest, file *multipart.FileHeader) (dto.DeliverableResponse, error)
	Get(ctx context.Context, id uint) (dto.DeliverableResponse, error)
	List(ctx context.Context, filter dto.DeliverableFilter) ([]dto.DeliverableResponse, error)
	AdvisorReview(ctx context.Context, id uint, advisorID uint, payload dto.DecisionRequest) (dto.DeliverableResponse, error)
	CoordinatorReview(ctx context.Context, id uint, coordinatorID uint, payload dto.DecisionRequest) (dto.DeliverableResponse, error)
	PostMessage(ctx context.Context, id uint, actor Actor, payload dto.PostMessageRequest) (dto.ReportMessageResponse, error)
	ListMessages(ctx context.Context, id uint) ([]dto.ReportMessageResponse, error)
}

type deliverableService struct {
	deliverables repository.DeliverableRepository
	projects     repository.ProjectRepository
	messages     repository.ReportMessageRepository
	validator    *validator.Validate
	uploader     FileUploader
	sanitizer    *bluemonday.Policy
	activity     ActivityRecorder
	notifier     NotificationPublisher
	threads      ThreadBroadcaster
	logger       zerolog.Logger
	now          func() time.Time
}

// NewDeliverableService constructs a DeliverableService. Activity, notifier
// and thread broadcaster are optional; nil disables them.
func NewDeliverableService(
	deliverables repository.DeliverableRepository,
	projects repository.ProjectRepository,
	messages repository.ReportMessageRepository,
	validate *validator.Validate,
	uploader FileUploader,
	activity ActivityRecorder,
	notifier NotificationPublisher,
	threads ThreadBroadcaster,
	logger zerolog.Logger,
) DeliverableService {
	return &deliverableService{
		deliverables: deliverables,
		projects:     projects,
		messages:     messages,
		validator:    validate,
		uploader:     uploader,
		sanitizer:    bluemonday.StrictPolicy(),
		activity:     activity,
		notifier:     notifier,
		threads:      threads,
		logger:       logger.With().Str("component", "deliverable_service").Logger(),
		now:          time.Now,
	}
}

// Submit registers a new artifact for review. Monthly reports may coexist;
// every other kind admits at most one live instance per project, where live
// means not rejected by either reviewer.
func (s *deliverableService) Submit(ctx context.Context, actor Actor, payload dto.DeliverableSubmitRequest, file *multipart.FileHeader) (dto.DeliverableResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DeliverableResponse{}, err
	}

	kind := models.DeliverableKind(payload.Kind)
	if !kind.Valid() {
		return dto.DeliverableResponse{}, fmt.Errorf("unknown deliverable kind: %s", payload.Kind)
	}

	project, err := s.projects.GetByID(ctx, payload.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, ErrNotFound
		}
		return dto.DeliverableResponse{}, storageErr(err)
	}
	if actor.Role == "student" && project.StudentID != actor.ID {
		return dto.DeliverableResponse{}, ErrUnauthorized
	}

	if !kind.Repeatable() {
		live, err := s.deliverables.HasLive(ctx, payload.ProjectID, kind)
		if err != nil {
			return dto.DeliverableResponse{}, storageErr(err)
		}
		if live {
			return dto.DeliverableResponse{}, ErrConflict
		}
	}

	fileURL := ""
	if file != nil {
		if err := validateArtifactType(file); err != nil {
			return dto.DeliverableResponse{}, err
		}

		reader, err := file.Open()
		if err != nil {
			return dto.DeliverableResponse{}, fmt.Errorf("failed to open file: %w", err)
		}
		defer reader.Close()

		fileURL, err = s.uploader.Upload(ctx, file.Filename, reader)
		if err != nil {
			return dto.DeliverableResponse{}, fmt.Errorf("failed to upload file: %w", err)
		}
	}

	deliverable := models.Deliverable{
		ProjectID:         payload.ProjectID,
		StudentID:         project.StudentID,
		Kind:              kind,
		Title:             payload.Title,
		Description:       payload.Description,
		FileURL:           fileURL,
		AdvisorStatus:     models.ApprovalPending,
		CoordinatorStatus: models.ApprovalPending,
	}

	if err := s.deliverables.Create(ctx, &deliverable); err != nil {
		return dto.DeliverableResponse{}, storageErr(err)
	}

	s.logger.Info().Uint("deliverable_id", deliverable.ID).Uint("project_id", payload.ProjectID).Str("kind", string(kind)).Msg("deliverable submitted")
	s.record(ctx, actor, "submit_deliverable", deliverable.ID, map[string]interface{}{"kind": string(kind), "project_id": payload.ProjectID})
	s.notify(ctx, project.AdvisorID, "deliverable_submitted", fmt.Sprintf("A %s for %q awaits your review.", kind, project.Title))

	return s.Get(ctx, deliverable.ID)
}

func (s *deliverableService) Get(ctx context.Context, id uint) (dto.DeliverableResponse, error) {
	deliverable, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, ErrNotFound
		}
		return dto.DeliverableResponse{}, storageErr(err)
	}

	return dto.NewDeliverableResponse(deliverable), nil
}

func (s *deliverableService) List(ctx context.Context, filter dto.DeliverableFilter) ([]dto.DeliverableResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.DeliverableFilter{ProjectID: filter.ProjectID, StudentID: filter.StudentID}
	if filter.Kind != nil {
		kind := models.DeliverableKind(*filter.Kind)
		repoFilter.Kind = &kind
	}
	if filter.AdvisorStatus != nil {
		status := models.ApprovalStatus(*filter.AdvisorStatus)
		repoFilter.AdvisorStatus = &status
	}
	if filter.CoordinatorStatus != nil {
		status := models.ApprovalStatus(*filter.CoordinatorStatus)
		repoFilter.CoordinatorStatus = &status
	}

	deliverables, err := s.deliverables.List(ctx, repoFilter)
	if err != nil {
		return nil, storageErr(err)
	}

	return dto.NewDeliverableResponseSlice(deliverables), nil
}

// AdvisorReview records the first-tier decision. Rejection blocks the
// coordinator tier outright; the student must resubmit.
func (s *deliverableService) AdvisorReview(ctx context.Context, id uint, advisorID uint, payload dto.DecisionRequest) (dto.DeliverableResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DeliverableResponse{}, err
	}

	deliverable, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, ErrNotFound
		}
		return dto.DeliverableResponse{}, storageErr(err)
	}

	if deliverable.Project.AdvisorID != advisorID {
		return dto.DeliverableResponse{}, ErrUnauthorized
	}
	if deliverable.AdvisorStatus != models.ApprovalPending {
		return dto.DeliverableResponse{}, ErrInvalidStateTransition
	}

	advisorStatus := models.ApprovalApproved
	coordinatorStatus := models.ApprovalPending
	if !payload.Approve {
		advisorStatus = models.ApprovalRejected
		coordinatorStatus = models.ApprovalBlocked
	}

	err = s.deliverables.AdvisorDecide(ctx, id, advisorStatus, coordinatorStatus, s.sanitizer.Sanitize(payload.Feedback), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, ErrInvalidStateTransition
		}
		return dto.DeliverableResponse{}, storageErr(err)
	}

	observability.Decisions().WithLabelValues("deliverable", "advisor", decisionOutcome(payload.Approve)).Inc()
	s.logger.Info().Uint("deliverable_id", id).Bool("approved", payload.Approve).Msg("advisor review recorded")
	s.record(ctx, Actor{ID: advisorID, Role: "advisor"}, "advisor_review", id, map[string]interface{}{"approved": payload.Approve})
	s.notify(ctx, deliverable.Project.StudentID, "deliverable_advisor_decision", fmt.Sprintf("Your advisor reviewed %q.", deliverable.Title))

	return s.Get(ctx, id)
}

// CoordinatorReview records the second-tier decision. It requires an advisor
// approval already on record; a blocked or still-pending advisor tier is a
// failed precondition, not a race.
func (s *deliverableService) CoordinatorReview(ctx context.Context, id uint, coordinatorID uint, payload dto.DecisionRequest) (dto.DeliverableResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.DeliverableResponse{}, err
	}

	deliverable, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, ErrNotFound
		}
		return dto.DeliverableResponse{}, storageErr(err)
	}

	if deliverable.AdvisorStatus != models.ApprovalApproved {
		return dto.DeliverableResponse{}, ErrPreconditionFailed
	}
	if deliverable.CoordinatorStatus != models.ApprovalPending {
		return dto.DeliverableResponse{}, ErrInvalidStateTransition
	}

	status := models.ApprovalApproved
	if !payload.Approve {
		status = models.ApprovalRejected
	}

	err = s.deliverables.CoordinatorDecide(ctx, id, status, s.sanitizer.Sanitize(payload.Feedback), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.DeliverableResponse{}, s.classifyCoordinatorErr(ctx, id)
		}
		return dto.DeliverableResponse{}, storageErr(err)
	}

	observability.Decisions().WithLabelValues("deliverable", "coordinator", decisionOutcome(payload.Approve)).Inc()
	s.logger.Info().Uint("deliverable_id", id).Bool("approved", payload.Approve).Msg("coordinator review recorded")
	s.record(ctx, Actor{ID: coordinatorID, Role: "coordinator"}, "coordinator_review", id, map[string]interface{}{"approved": payload.Approve})
	s.notify(ctx, deliverable.Project.StudentID, "deliverable_coordinator_decision", fmt.Sprintf("The coordinator reviewed %q.", deliverable.Title))

	return s.Get(ctx, id)
}

// classifyCoordinatorErr distinguishes a concurrent coordinator decision
// from an advisor tier that changed under us before our guarded update ran.
func (s *deliverableService) classifyCoordinatorErr(ctx context.Context, id uint) error {
	deliverable, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storageErr(err)
	}
	if deliverable.AdvisorStatus != models.ApprovalApproved {
		return ErrPreconditionFailed
	}
	return ErrInvalidStateTransition
}

// PostMessage appends to a monthly report's discussion thread. Other
// deliverable kinds have no thread.
func (s *deliverableService) PostMessage(ctx context.Context, id uint, actor Actor, payload dto.PostMessageRequest) (dto.ReportMessageResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReportMessageResponse{}, err
	}

	deliverable, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportMessageResponse{}, ErrNotFound
		}
		return dto.ReportMessageResponse{}, storageErr(err)
	}

	if deliverable.Kind != models.KindMonthlyReport {
		return dto.ReportMessageResponse{}, ErrPreconditionFailed
	}

	switch actor.Role {
	case "student":
		if deliverable.Project.StudentID != actor.ID {
			return dto.ReportMessageResponse{}, ErrUnauthorized
		}
	case "advisor":
		if deliverable.Project.AdvisorID != actor.ID {
			return dto.ReportMessageResponse{}, ErrUnauthorized
		}
	}

	message := models.ReportMessage{
		DeliverableID: id,
		AuthorID:      actor.ID,
		AuthorRole:    actor.Role,
		Body:          s.sanitizer.Sanitize(payload.Body),
	}
	if err := s.messages.Create(ctx, &message); err != nil {
		return dto.ReportMessageResponse{}, storageErr(err)
	}

	response := dto.NewReportMessageResponse(message)
	if s.threads != nil {
		s.threads.Broadcast(id, response)
	}
	s.notify(ctx, counterpartID(deliverable.Project, actor), "report_message", fmt.Sprintf("New message on %q.", deliverable.Title))

	return response, nil
}

func (s *deliverableService) ListMessages(ctx context.Context, id uint) ([]dto.ReportMessageResponse, error) {
	if _, err := s.deliverables.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr(err)
	}

	messages, err := s.messages.ListByDeliverable(ctx, id)
	if err != nil {
		return nil, storageErr(err)
	}

	return dto.NewReportMessageResponseSlice(messages), nil
}

func (s *deliverableService) record(ctx context.Context, actor Actor, action string, deliverableID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := deliverableID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "deliverable",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *deliverableService) notify(ctx context.Context, userID uint, kind, message string) {
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

// counterpartID picks who gets notified about a thread message: the advisor
// hears about student posts and vice versa.
func counterpartID(project models.Project, actor Actor) uint {
	if actor.Role == "student" {
		return project.AdvisorID
	}
	return project.StudentID
}

func validateArtifactType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{
		"application/pdf",
		"application/zip",
		"application/x-zip-compressed",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("unsupported file type: %s", mime.String())
}
