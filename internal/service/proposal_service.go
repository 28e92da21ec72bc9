package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/models"
	"github.com/noah-isme/iris-go-api/internal/observability"
	"github.com/noah-isme/iris-go-api/internal/repository"
)

// ProposalService governs the two-tier review of submitted proposals and the
// creation of the tracked project on full coordinator approval.
type ProposalService interface {
	Submit(ctx context.Context, payload dto.ProposalSubmitRequest, file *multipart.FileHeader) (dto.ProposalResponse, error)
	Get(ctx context.Context, id uint) (dto.ProposalResponse, error)
	GetActive(ctx context.Context, studentID uint) (dto.ProposalResponse, error)
	List(ctx context.Context, filter dto.ProposalFilter) ([]dto.ProposalResponse, error)
	AdvisorDecide(ctx context.Context, id uint, advisorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error)
	CoordinatorDecide(ctx context.Context, id uint, coordinatorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error)
	PresentationDecide(ctx context.Context, id uint, coordinatorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type proposalService struct {
	proposals repository.ProposalRepository
	projects  repository.ProjectRepository
	gate      EnrollmentGate
	validator *validator.Validate
	uploader  FileUploader
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	notifier  NotificationPublisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewProposalService constructs a ProposalService instance. The activity
// recorder and notifier are optional; nil disables them.
func NewProposalService(
	proposals repository.ProposalRepository,
	projects repository.ProjectRepository,
	gate EnrollmentGate,
	validate *validator.Validate,
	uploader FileUploader,
	activity ActivityRecorder,
	notifier NotificationPublisher,
	logger zerolog.Logger,
) ProposalService {
	return &proposalService{
		proposals: proposals,
		projects:  projects,
		gate:      gate,
		validator: validate,
		uploader:  uploader,
		sanitizer: bluemonday.StrictPolicy(),
		activity:  activity,
		notifier:  notifier,
		logger:    logger.With().Str("component", "proposal_service").Logger(),
		now:       time.Now,
	}
}

func (s *proposalService) Submit(ctx context.Context, payload dto.ProposalSubmitRequest, file *multipart.FileHeader) (dto.ProposalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProposalResponse{}, err
	}

	window, err := s.gate.Window(ctx)
	if err != nil {
		return dto.ProposalResponse{}, err
	}
	if !window.Open {
		return dto.ProposalResponse{}, ErrEnrollmentClosed
	}

	fileURL := ""
	if file != nil {
		if err := validateArtifactType(file); err != nil {
			return dto.ProposalResponse{}, err
		}

		reader, err := file.Open()
		if err != nil {
			return dto.ProposalResponse{}, fmt.Errorf("failed to open file: %w", err)
		}
		defer reader.Close()

		fileURL, err = s.uploader.Upload(ctx, file.Filename, reader)
		if err != nil {
			return dto.ProposalResponse{}, fmt.Errorf("failed to upload file: %w", err)
		}
	}

	proposal := models.Proposal{
		StudentID:    payload.StudentID,
		AdvisorID:    payload.AdvisorID,
		AcademicYear: window.Year,
		Title:        payload.Title,
		Field:        payload.Field,
		Description:  payload.Description,
		Objectives:   payload.Objectives,
		Methodology:  payload.Methodology,
		FileURL:      fileURL,
		Status:       models.ProposalStatusPendingAdvisor,
	}

	if err := s.proposals.Create(ctx, &proposal); err != nil {
		return dto.ProposalResponse{}, storageErr(err)
	}

	s.logger.Info().Uint("proposal_id", proposal.ID).Uint("student_id", proposal.StudentID).Int("year", proposal.AcademicYear).Msg("proposal submitted")
	s.record(ctx, Actor{ID: payload.StudentID, Role: "student"}, "submit_proposal", "proposal", proposal.ID, map[string]interface{}{"advisor_id": payload.AdvisorID})
	s.notify(ctx, proposal.AdvisorID, "proposal_submitted", fmt.Sprintf("A new proposal %q awaits your review.", proposal.Title))

	return dto.NewProposalResponse(proposal), nil
}

func (s *proposalService) Get(ctx context.Context, id uint) (dto.ProposalResponse, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrNotFound
		}
		return dto.ProposalResponse{}, storageErr(err)
	}

	return dto.NewProposalResponse(proposal), nil
}

// GetActive returns the proposal governing the student's current state: the
// most recent submission wins.
func (s *proposalService) GetActive(ctx context.Context, studentID uint) (dto.ProposalResponse, error) {
	proposal, err := s.proposals.GetActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrNotFound
		}
		return dto.ProposalResponse{}, storageErr(err)
	}

	return dto.NewProposalResponse(proposal), nil
}

func (s *proposalService) List(ctx context.Context, filter dto.ProposalFilter) ([]dto.ProposalResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	repoFilter := repository.ProposalFilter{
		StudentID:    filter.StudentID,
		AdvisorID:    filter.AdvisorID,
		AcademicYear: filter.AcademicYear,
	}
	if filter.Status != nil {
		status := models.ProposalStatus(*filter.Status)
		repoFilter.Status = &status
	}

	proposals, err := s.proposals.List(ctx, repoFilter)
	if err != nil {
		return nil, storageErr(err)
	}

	return dto.NewProposalResponseSlice(proposals), nil
}

// AdvisorDecide moves a pending_advisor proposal forward or into the advisor
// rejection branch. Only the assigned advisor may decide, and only once.
func (s *proposalService) AdvisorDecide(ctx context.Context, id uint, advisorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProposalResponse{}, err
	}

	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrNotFound
		}
		return dto.ProposalResponse{}, storageErr(err)
	}

	if proposal.AdvisorID != advisorID {
		return dto.ProposalResponse{}, ErrUnauthorized
	}
	if proposal.Status != models.ProposalStatusPendingAdvisor {
		return dto.ProposalResponse{}, ErrInvalidStateTransition
	}

	to := models.ProposalStatusPendingCoordinator
	if !payload.Approve {
		to = models.ProposalStatusRejectedAdvisor
	}

	updates := map[string]interface{}{
		"status":             to,
		"advisor_feedback":   s.sanitizer.Sanitize(payload.Feedback),
		"advisor_decided_at": s.now(),
	}

	if err := s.proposals.UpdateStatusFrom(ctx, id, models.ProposalStatusPendingAdvisor, updates); err != nil {
		return dto.ProposalResponse{}, s.classifyDecisionErr(err)
	}

	observability.Decisions().WithLabelValues("proposal", "advisor", decisionOutcome(payload.Approve)).Inc()
	s.logger.Info().Uint("proposal_id", id).Bool("approved", payload.Approve).Msg("advisor decision recorded")
	s.record(ctx, Actor{ID: advisorID, Role: "advisor"}, "advisor_decide", "proposal", id, map[string]interface{}{"approved": payload.Approve})
	s.notify(ctx, proposal.StudentID, "proposal_advisor_decision", fmt.Sprintf("Your advisor reviewed proposal %q.", proposal.Title))

	return s.Get(ctx, id)
}

// CoordinatorDecide moves a pending_coordinator proposal to the presentation
// step, creating the tracked project as a side effect of approval. Project
// creation is idempotent across replays and races.
func (s *proposalService) CoordinatorDecide(ctx context.Context, id uint, coordinatorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProposalResponse{}, err
	}

	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrNotFound
		}
		return dto.ProposalResponse{}, storageErr(err)
	}

	if proposal.Status != models.ProposalStatusPendingCoordinator {
		return dto.ProposalResponse{}, ErrInvalidStateTransition
	}

	to := models.ProposalStatusPendingPresentation
	if !payload.Approve {
		to = models.ProposalStatusRejectedCoordinator
	}

	updates := map[string]interface{}{
		"status":                 to,
		"coordinator_feedback":   s.sanitizer.Sanitize(payload.Feedback),
		"coordinator_decided_at": s.now(),
	}

	if payload.Approve {
		project := models.Project{
			ProposalID:   proposal.ID,
			StudentID:    proposal.StudentID,
			AdvisorID:    proposal.AdvisorID,
			AcademicYear: proposal.AcademicYear,
			Title:        proposal.Title,
			Field:        proposal.Field,
			Description:  proposal.Description,
			Stage:        models.StagePresentProposal,
		}
		if err := s.proposals.ApproveAndSpawnProject(ctx, id, models.ProposalStatusPendingCoordinator, updates, &project); err != nil {
			return dto.ProposalResponse{}, s.classifyDecisionErr(err)
		}
		s.logger.Info().Uint("proposal_id", id).Uint("project_id", project.ID).Msg("proposal approved by coordinator, project ready")
	} else {
		if err := s.proposals.UpdateStatusFrom(ctx, id, models.ProposalStatusPendingCoordinator, updates); err != nil {
			return dto.ProposalResponse{}, s.classifyDecisionErr(err)
		}
	}

	observability.Decisions().WithLabelValues("proposal", "coordinator", decisionOutcome(payload.Approve)).Inc()
	s.record(ctx, Actor{ID: coordinatorID, Role: "coordinator"}, "coordinator_decide", "proposal", id, map[string]interface{}{"approved": payload.Approve})
	s.notify(ctx, proposal.StudentID, "proposal_coordinator_decision", fmt.Sprintf("The coordinator reviewed proposal %q.", proposal.Title))

	return s.Get(ctx, id)
}

// PresentationDecide settles the final presentation step of the review.
func (s *proposalService) PresentationDecide(ctx context.Context, id uint, coordinatorID uint, payload dto.DecisionRequest) (dto.ProposalResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProposalResponse{}, err
	}

	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProposalResponse{}, ErrNotFound
		}
		return dto.ProposalResponse{}, storageErr(err)
	}

	if proposal.Status != models.ProposalStatusPendingPresentation {
		return dto.ProposalResponse{}, ErrInvalidStateTransition
	}

	to := models.ProposalStatusApproved
	if !payload.Approve {
		to = models.ProposalStatusRejectedPresentation
	}

	updates := map[string]interface{}{
		"status":                  to,
		"presentation_feedback":   s.sanitizer.Sanitize(payload.Feedback),
		"presentation_decided_at": s.now(),
	}

	if err := s.proposals.UpdateStatusFrom(ctx, id, models.ProposalStatusPendingPresentation, updates); err != nil {
		return dto.ProposalResponse{}, s.classifyDecisionErr(err)
	}

	observability.Decisions().WithLabelValues("proposal", "presentation", decisionOutcome(payload.Approve)).Inc()
	s.record(ctx, Actor{ID: coordinatorID, Role: "coordinator"}, "presentation_decide", "proposal", id, map[string]interface{}{"approved": payload.Approve})
	s.notify(ctx, proposal.StudentID, "proposal_presentation_decision", fmt.Sprintf("Your presentation of %q was evaluated.", proposal.Title))

	return s.Get(ctx, id)
}

// Delete removes the proposal and every dependent row in one transaction.
func (s *proposalService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := s.proposals.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storageErr(err)
	}

	s.logger.Info().Uint("proposal_id", id).Uint("actor_id", actor.ID).Msg("proposal cascade-deleted")
	s.record(ctx, actor, "delete_proposal", "proposal", id, nil)

	return nil
}

// classifyDecisionErr turns a zero-rows compare-and-set failure into the
// taxonomy kind the caller expects: the row was already moved by a
// concurrent or earlier decision.
func (s *proposalService) classifyDecisionErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidStateTransition
	}
	return storageErr(err)
}

func (s *proposalService) record(ctx context.Context, actor Actor, action, entityType string, entityID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := entityID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (s *proposalService) notify(ctx context.Context, userID uint, kind, message string) {
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

func decisionOutcome(approved bool) string {
	if approved {
		return "approved"
	}
	return "rejected"
}
