package dto

import (
	"time"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// DeliverableSubmitRequest describes the multipart payload for submitting a
// deliverable against a project stage.
type DeliverableSubmitRequest struct {
	ProjectID   uint   `form:"project_id" validate:"required,gt=0"`
	StudentID   uint   `form:"student_id" validate:"required,gt=0"`
	Kind        string `form:"kind" validate:"required,oneof=proposal_presentation partial_report monthly_report sample_presentation final_article"`
	Title       string `form:"title" validate:"required,min=3,max=500"`
	Description string `form:"description" validate:"omitempty"`
}

// DeliverableFilter describes query string filters for listing deliverables.
type DeliverableFilter struct {
	ProjectID         *uint   `query:"project_id"`
	StudentID         *uint   `query:"student_id"`
	Kind              *string `query:"kind" validate:"omitempty,oneof=proposal_presentation partial_report monthly_report sample_presentation final_article"`
	AdvisorStatus     *string `query:"advisor_status" validate:"omitempty,oneof=pending approved rejected"`
	CoordinatorStatus *string `query:"coordinator_status" validate:"omitempty,oneof=pending approved rejected blocked"`
}

// PostMessageRequest appends an entry to a monthly-report thread.
type PostMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=4000"`
}

// DeliverableResponse is returned to API clients when viewing deliverables.
type DeliverableResponse struct {
	ID          uint   `json:"id"`
	ProjectID   uint   `json:"project_id"`
	StudentID   uint   `json:"student_id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FileURL     string `json:"file_url,omitempty"`

	AdvisorStatus        string     `json:"advisor_status"`
	AdvisorFeedback      string     `json:"advisor_feedback,omitempty"`
	AdvisorDecidedAt     *time.Time `json:"advisor_decided_at,omitempty"`
	CoordinatorStatus    string     `json:"coordinator_status"`
	CoordinatorFeedback  string     `json:"coordinator_feedback,omitempty"`
	CoordinatorDecidedAt *time.Time `json:"coordinator_decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDeliverableResponse converts a model into a DTO.
func NewDeliverableResponse(deliverable models.Deliverable) DeliverableResponse {
	return DeliverableResponse{
		ID:                   deliverable.ID,
		ProjectID:            deliverable.ProjectID,
		StudentID:            deliverable.StudentID,
		Kind:                 string(deliverable.Kind),
		Title:                deliverable.Title,
		Description:          deliverable.Description,
		FileURL:              deliverable.FileURL,
		AdvisorStatus:        string(deliverable.AdvisorStatus),
		AdvisorFeedback:      deliverable.AdvisorFeedback,
		AdvisorDecidedAt:     deliverable.AdvisorDecidedAt,
		CoordinatorStatus:    string(deliverable.CoordinatorStatus),
		CoordinatorFeedback:  deliverable.CoordinatorFeedback,
		CoordinatorDecidedAt: deliverable.CoordinatorDecidedAt,
		CreatedAt:            deliverable.CreatedAt,
		UpdatedAt:            deliverable.UpdatedAt,
	}
}

// NewDeliverableResponseSlice converts a slice of models into DTOs.
func NewDeliverableResponseSlice(deliverables []models.Deliverable) []DeliverableResponse {
	out := make([]DeliverableResponse, 0, len(deliverables))
	for _, deliverable := range deliverables {
		out = append(out, NewDeliverableResponse(deliverable))
	}
	return out
}

// ReportMessageResponse serializes one thread entry.
type ReportMessageResponse struct {
	ID            uint      `json:"id"`
	DeliverableID uint      `json:"deliverable_id"`
	AuthorID      uint      `json:"author_id"`
	AuthorRole    string    `json:"author_role"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewReportMessageResponse converts a model into a DTO.
func NewReportMessageResponse(message models.ReportMessage) ReportMessageResponse {
	return ReportMessageResponse{
		ID:            message.ID,
		DeliverableID: message.DeliverableID,
		AuthorID:      message.AuthorID,
		AuthorRole:    message.AuthorRole,
		Body:          message.Body,
		CreatedAt:     message.CreatedAt,
	}
}

// NewReportMessageResponseSlice converts a slice of models into DTOs.
func NewReportMessageResponseSlice(messages []models.ReportMessage) []ReportMessageResponse {
	out := make([]ReportMessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewReportMessageResponse(message))
	}
	return out
}
