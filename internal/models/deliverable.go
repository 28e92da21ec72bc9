package models

import "time"

// DeliverableKind enumerates the artifact types submitted against a project.
type DeliverableKind string

const (
	KindProposalPresentation DeliverableKind = "proposal_presentation"
	KindPartialReport        DeliverableKind = "partial_report"
	KindMonthlyReport        DeliverableKind = "monthly_report"
	KindSamplePresentation   DeliverableKind = "sample_presentation"
	KindFinalArticle         DeliverableKind = "final_article"
)

// Valid reports whether the kind is a member of the closed enumeration.
func (k DeliverableKind) Valid() bool {
	switch k {
	case KindProposalPresentation, KindPartialReport, KindMonthlyReport, KindSamplePresentation, KindFinalArticle:
		return true
	}
	return false
}

// Repeatable reports whether several live submissions of this kind may
// coexist for one project. Only monthly reports are resubmittable without
// restriction.
func (k DeliverableKind) Repeatable() bool {
	return k == KindMonthlyReport
}

// Deliverable is an artifact submitted against a project stage that needs
// sign-off from the advisor and then the coordinator. Rejection at either
// tier is terminal for the row; retrying means submitting a new row.
type Deliverable struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	ProjectID   uint            `gorm:"not null;index" json:"project_id"`
	StudentID   uint            `gorm:"not null;index" json:"student_id"`
	Kind        DeliverableKind `gorm:"size:32;not null;index" json:"kind"`
	Title       string          `gorm:"size:500" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	FileURL     string          `gorm:"size:512" json:"file_url"`

	AdvisorStatus        ApprovalStatus `gorm:"size:16;not null" json:"advisor_status"`
	AdvisorFeedback      string         `gorm:"type:text" json:"advisor_feedback"`
	AdvisorDecidedAt     *time.Time     `json:"advisor_decided_at"`
	CoordinatorStatus    ApprovalStatus `gorm:"size:16;not null" json:"coordinator_status"`
	CoordinatorFeedback  string         `gorm:"type:text" json:"coordinator_feedback"`
	CoordinatorDecidedAt *time.Time     `json:"coordinator_decided_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Project Project `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// Approval returns the validated two-tier state of the deliverable.
func (d Deliverable) Approval() (ApprovalState, error) {
	return NewApprovalState(d.AdvisorStatus, d.CoordinatorStatus)
}
