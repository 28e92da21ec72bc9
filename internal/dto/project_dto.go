package dto

import (
	"time"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// AdvanceStageRequest sets the project to the given stage. The coordinator
// has full discretion over ordering; only membership is validated.
type AdvanceStageRequest struct {
	Stage string `json:"stage" validate:"required,oneof=submit_proposal present_proposal validation monthly_report_1 monthly_report_2 monthly_report_3 monthly_report_4 partial_report monthly_report_5 sample_presentation final_article completed"`
}

// ScheduleRequest carries the date, time and location of a presentation or
// showcase event.
type ScheduleRequest struct {
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Time   string `json:"time" validate:"required,datetime=15:04"`
	Campus string `json:"campus" validate:"required,max=100"`
	Room   string `json:"room" validate:"omitempty,max=50"`
}

// ProjectFilter describes query string filters for listing projects.
type ProjectFilter struct {
	StudentID    *uint   `query:"student_id"`
	AdvisorID    *uint   `query:"advisor_id"`
	Stage        *string `query:"stage" validate:"omitempty,oneof=submit_proposal present_proposal validation monthly_report_1 monthly_report_2 monthly_report_3 monthly_report_4 partial_report monthly_report_5 sample_presentation final_article completed"`
	AcademicYear *int    `query:"academic_year"`
}

// EventScheduleResponse serializes one scheduled presentation event.
type EventScheduleResponse struct {
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`
	Campus string `json:"campus,omitempty"`
	Room   string `json:"room,omitempty"`
}

// ProjectResponse is returned to API clients when viewing projects.
type ProjectResponse struct {
	ID           uint   `json:"id"`
	ProposalID   uint   `json:"proposal_id"`
	StudentID    uint   `json:"student_id"`
	AdvisorID    uint   `json:"advisor_id"`
	AcademicYear int    `json:"academic_year"`
	Title        string `json:"title"`
	Field        string `json:"field"`
	Description  string `json:"description"`
	Stage        string `json:"stage"`

	Presentation EventScheduleResponse `json:"presentation"`
	Showcase     EventScheduleResponse `json:"showcase"`

	CertificateURL      string     `json:"certificate_url,omitempty"`
	CertificateIssuedAt *time.Time `json:"certificate_issued_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProjectResponse converts a model into a DTO.
func NewProjectResponse(project models.Project) ProjectResponse {
	return ProjectResponse{
		ID:           project.ID,
		ProposalID:   project.ProposalID,
		StudentID:    project.StudentID,
		AdvisorID:    project.AdvisorID,
		AcademicYear: project.AcademicYear,
		Title:        project.Title,
		Field:        project.Field,
		Description:  project.Description,
		Stage:        string(project.Stage),
		Presentation: EventScheduleResponse{
			Date:   project.Presentation.Date,
			Time:   project.Presentation.Time,
			Campus: project.Presentation.Campus,
			Room:   project.Presentation.Room,
		},
		Showcase: EventScheduleResponse{
			Date:   project.Showcase.Date,
			Time:   project.Showcase.Time,
			Campus: project.Showcase.Campus,
			Room:   project.Showcase.Room,
		},
		CertificateURL:      project.CertificateURL,
		CertificateIssuedAt: project.CertificateIssuedAt,
		CreatedAt:           project.CreatedAt,
		UpdatedAt:           project.UpdatedAt,
	}
}

// NewProjectResponseSlice converts a slice of models into DTOs.
func NewProjectResponseSlice(projects []models.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for _, project := range projects {
		out = append(out, NewProjectResponse(project))
	}
	return out
}
