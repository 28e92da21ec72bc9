package dto

import (
	"time"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// ProposalSubmitRequest describes the multipart payload for submitting a
// proposal. The attached project file is optional and handled separately.
type ProposalSubmitRequest struct {
	StudentID   uint   `form:"student_id" validate:"required,gt=0"`
	AdvisorID   uint   `form:"advisor_id" validate:"required,gt=0"`
	Title       string `form:"title" validate:"required,min=3,max=500"`
	Field       string `form:"field" validate:"omitempty,max=255"`
	Description string `form:"description" validate:"required,min=10"`
	Objectives  string `form:"objectives" validate:"omitempty"`
	Methodology string `form:"methodology" validate:"omitempty"`
}

// DecisionRequest carries one reviewer decision. Feedback is recorded on
// both approval and rejection.
type DecisionRequest struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback" validate:"omitempty,max=4000"`
}

// ProposalFilter describes query string filters for listing proposals.
type ProposalFilter struct {
	StudentID    *uint   `query:"student_id"`
	AdvisorID    *uint   `query:"advisor_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=pending_advisor pending_coordinator pending_presentation approved rejected_advisor rejected_coordinator rejected_presentation"`
	AcademicYear *int    `query:"academic_year"`
}

// ProposalResponse is returned to API clients when viewing proposals.
type ProposalResponse struct {
	ID           uint   `json:"id"`
	StudentID    uint   `json:"student_id"`
	AdvisorID    uint   `json:"advisor_id"`
	AcademicYear int    `json:"academic_year"`
	Title        string `json:"title"`
	Field        string `json:"field"`
	Description  string `json:"description"`
	Objectives   string `json:"objectives,omitempty"`
	Methodology  string `json:"methodology,omitempty"`
	FileURL      string `json:"file_url,omitempty"`
	Status       string `json:"status"`

	AdvisorFeedback       string     `json:"advisor_feedback,omitempty"`
	AdvisorDecidedAt      *time.Time `json:"advisor_decided_at,omitempty"`
	CoordinatorFeedback   string     `json:"coordinator_feedback,omitempty"`
	CoordinatorDecidedAt  *time.Time `json:"coordinator_decided_at,omitempty"`
	PresentationFeedback  string     `json:"presentation_feedback,omitempty"`
	PresentationDecidedAt *time.Time `json:"presentation_decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProposalResponse converts a model into a DTO.
func NewProposalResponse(proposal models.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:                    proposal.ID,
		StudentID:             proposal.StudentID,
		AdvisorID:             proposal.AdvisorID,
		AcademicYear:          proposal.AcademicYear,
		Title:                 proposal.Title,
		Field:                 proposal.Field,
		Description:           proposal.Description,
		Objectives:            proposal.Objectives,
		Methodology:           proposal.Methodology,
		FileURL:               proposal.FileURL,
		Status:                string(proposal.Status),
		AdvisorFeedback:       proposal.AdvisorFeedback,
		AdvisorDecidedAt:      proposal.AdvisorDecidedAt,
		CoordinatorFeedback:   proposal.CoordinatorFeedback,
		CoordinatorDecidedAt:  proposal.CoordinatorDecidedAt,
		PresentationFeedback:  proposal.PresentationFeedback,
		PresentationDecidedAt: proposal.PresentationDecidedAt,
		CreatedAt:             proposal.CreatedAt,
		UpdatedAt:             proposal.UpdatedAt,
	}
}

// NewProposalResponseSlice converts a slice of models into DTOs.
func NewProposalResponseSlice(proposals []models.Proposal) []ProposalResponse {
	out := make([]ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		out = append(out, NewProposalResponse(proposal))
	}
	return out
}
