package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/repository"
	"github.com/noah-isme/iris-go-api/pkg/ai"
)

// ReviewAssistService drafts feedback suggestions for reviewers. Drafts are
// advisory only; decisions always go through the regular review endpoints.
type ReviewAssistService interface {
	DraftForProposal(ctx context.Context, id uint, actor Actor) (dto.ReviewDraftResponse, error)
	DraftForDeliverable(ctx context.Context, id uint, actor Actor) (dto.ReviewDraftResponse, error)
}

type reviewAssistService struct {
	assistant    ai.Assistant
	proposals    repository.ProposalRepository
	deliverables repository.DeliverableRepository
	logger       zerolog.Logger
}

// NewReviewAssistService builds the draft service. A nil assistant yields a
// service that reports the feature as unavailable.
func NewReviewAssistService(assistant ai.Assistant, proposals repository.ProposalRepository, deliverables repository.DeliverableRepository, logger zerolog.Logger) ReviewAssistService {
	return &reviewAssistService{
		assistant:    assistant,
		proposals:    proposals,
		deliverables: deliverables,
		logger:       logger.With().Str("component", "review_assist_service").Logger(),
	}
}

// ErrAssistUnavailable indicates no draft model is configured.
var ErrAssistUnavailable = errors.New("review assist is not configured")

func (s *reviewAssistService) DraftForProposal(ctx context.Context, id uint, actor Actor) (dto.ReviewDraftResponse, error) {
	if s.assistant == nil {
		return dto.ReviewDraftResponse{}, ErrAssistUnavailable
	}

	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewDraftResponse{}, ErrNotFound
		}
		return dto.ReviewDraftResponse{}, storageErr(err)
	}

	if actor.Role == "advisor" && proposal.AdvisorID != actor.ID {
		return dto.ReviewDraftResponse{}, ErrUnauthorized
	}

	draft, err := s.assistant.Draft(ctx, ai.ReviewInput{
		Title:          proposal.Title,
		Kind:           "proposal",
		Field:          proposal.Field,
		StudentSummary: proposal.Description + "\n\n" + proposal.Objectives,
		ReviewerRole:   actor.Role,
		PriorFeedback:  proposal.AdvisorFeedback,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("proposal_id", id).Msg("proposal draft failed")
		return dto.ReviewDraftResponse{}, err
	}

	return newDraftResponse(draft), nil
}

func (s *reviewAssistService) DraftForDeliverable(ctx context.Context, id uint, actor Actor) (dto.ReviewDraftResponse, error) {
	if s.assistant == nil {
		return dto.ReviewDraftResponse{}, ErrAssistUnavailable
	}

	deliverable, err := s.deliverables.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewDraftResponse{}, ErrNotFound
		}
		return dto.ReviewDraftResponse{}, storageErr(err)
	}

	if actor.Role == "advisor" && deliverable.Project.AdvisorID != actor.ID {
		return dto.ReviewDraftResponse{}, ErrUnauthorized
	}

	draft, err := s.assistant.Draft(ctx, ai.ReviewInput{
		Title:          deliverable.Title,
		Kind:           string(deliverable.Kind),
		Field:          deliverable.Project.Field,
		StudentSummary: deliverable.Project.Description,
		ReviewerRole:   actor.Role,
		PriorFeedback:  deliverable.AdvisorFeedback,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("deliverable_id", id).Msg("deliverable draft failed")
		return dto.ReviewDraftResponse{}, err
	}

	return newDraftResponse(draft), nil
}

func newDraftResponse(draft ai.ReviewDraft) dto.ReviewDraftResponse {
	return dto.ReviewDraftResponse{
		Summary:   draft.Summary,
		Strengths: draft.Strengths,
		Concerns:  draft.Concerns,
		Draft:     draft.Draft,
	}
}
