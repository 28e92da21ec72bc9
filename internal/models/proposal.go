package models

import "time"

// ProposalStatus enumerates the states of the two-tier proposal review.
type ProposalStatus string

const (
	ProposalStatusPendingAdvisor       ProposalStatus = "pending_advisor"
	ProposalStatusPendingCoordinator   ProposalStatus = "pending_coordinator"
	ProposalStatusPendingPresentation  ProposalStatus = "pending_presentation"
	ProposalStatusApproved             ProposalStatus = "approved"
	ProposalStatusRejectedAdvisor      ProposalStatus = "rejected_advisor"
	ProposalStatusRejectedCoordinator  ProposalStatus = "rejected_coordinator"
	ProposalStatusRejectedPresentation ProposalStatus = "rejected_presentation"
)

// Terminal reports whether no further decision can be taken on the proposal.
func (s ProposalStatus) Terminal() bool {
	switch s {
	case ProposalStatusApproved,
		ProposalStatusRejectedAdvisor,
		ProposalStatusRejectedCoordinator,
		ProposalStatusRejectedPresentation:
		return true
	case ProposalStatusPendingAdvisor, ProposalStatusPendingCoordinator, ProposalStatusPendingPresentation:
		return false
	}
	return false
}

// Valid reports whether the status is a member of the closed enumeration.
func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalStatusPendingAdvisor,
		ProposalStatusPendingCoordinator,
		ProposalStatusPendingPresentation,
		ProposalStatusApproved,
		ProposalStatusRejectedAdvisor,
		ProposalStatusRejectedCoordinator,
		ProposalStatusRejectedPresentation:
		return true
	}
	return false
}

// Proposal is a student's request to start a supervised research project
// under a named advisor. A student may accumulate several proposals over
// time; only the most recent one governs their current state.
type Proposal struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	StudentID    uint           `gorm:"not null;index" json:"student_id"`
	AdvisorID    uint           `gorm:"not null;index" json:"advisor_id"`
	AcademicYear int            `gorm:"not null;index" json:"academic_year"`
	Title        string         `gorm:"size:500;not null" json:"title"`
	Field        string         `gorm:"size:255" json:"field"`
	Description  string         `gorm:"type:text" json:"description"`
	Objectives   string         `gorm:"type:text" json:"objectives"`
	Methodology  string         `gorm:"type:text" json:"methodology"`
	FileURL      string         `gorm:"size:512" json:"file_url"`
	Status       ProposalStatus `gorm:"size:32;not null" json:"status"`

	AdvisorFeedback        string     `gorm:"type:text" json:"advisor_feedback"`
	AdvisorDecidedAt       *time.Time `json:"advisor_decided_at"`
	CoordinatorFeedback    string     `gorm:"type:text" json:"coordinator_feedback"`
	CoordinatorDecidedAt   *time.Time `json:"coordinator_decided_at"`
	PresentationFeedback   string     `gorm:"type:text" json:"presentation_feedback"`
	PresentationDecidedAt  *time.Time `json:"presentation_decided_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
