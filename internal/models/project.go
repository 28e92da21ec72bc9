package models

import "time"

// ProjectStage enumerates the ordered stages a tracked project moves through.
type ProjectStage string

const (
	StageSubmitProposal     ProjectStage = "submit_proposal"
	StagePresentProposal    ProjectStage = "present_proposal"
	StageValidation         ProjectStage = "validation"
	StageMonthlyReport1     ProjectStage = "monthly_report_1"
	StageMonthlyReport2     ProjectStage = "monthly_report_2"
	StageMonthlyReport3     ProjectStage = "monthly_report_3"
	StageMonthlyReport4     ProjectStage = "monthly_report_4"
	StagePartialReport      ProjectStage = "partial_report"
	StageMonthlyReport5     ProjectStage = "monthly_report_5"
	StageSamplePresentation ProjectStage = "sample_presentation"
	StageFinalArticle       ProjectStage = "final_article"
	StageCompleted          ProjectStage = "completed"
)

// ProjectStages lists every stage in program order. The coordinator may set
// any member as the current stage; the order here is informational.
var ProjectStages = []ProjectStage{
	StageSubmitProposal,
	StagePresentProposal,
	StageValidation,
	StageMonthlyReport1,
	StageMonthlyReport2,
	StageMonthlyReport3,
	StageMonthlyReport4,
	StagePartialReport,
	StageMonthlyReport5,
	StageSamplePresentation,
	StageFinalArticle,
	StageCompleted,
}

// Valid reports whether the stage is a member of the closed enumeration.
func (s ProjectStage) Valid() bool {
	for _, stage := range ProjectStages {
		if s == stage {
			return true
		}
	}
	return false
}

// EventSchedule holds the date, time and location of a presentation event.
type EventSchedule struct {
	Date   string `gorm:"size:10" json:"date"`
	Time   string `gorm:"size:5" json:"time"`
	Campus string `gorm:"size:100" json:"campus"`
	Room   string `gorm:"size:50" json:"room"`
}

// Project is the tracked unit of work spawned when a proposal clears the
// coordinator tier. Exactly one project exists per fully reviewed proposal.
type Project struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ProposalID   uint         `gorm:"not null;uniqueIndex" json:"proposal_id"`
	StudentID    uint         `gorm:"not null;index" json:"student_id"`
	AdvisorID    uint         `gorm:"not null;index" json:"advisor_id"`
	AcademicYear int          `gorm:"not null;index" json:"academic_year"`
	Title        string       `gorm:"size:500;not null" json:"title"`
	Field        string       `gorm:"size:255" json:"field"`
	Description  string       `gorm:"type:text" json:"description"`
	Stage        ProjectStage `gorm:"size:32;not null" json:"stage"`

	Presentation EventSchedule `gorm:"embedded;embeddedPrefix:presentation_" json:"presentation"`
	Showcase     EventSchedule `gorm:"embedded;embeddedPrefix:showcase_" json:"showcase"`

	CertificateURL      string     `gorm:"size:512" json:"certificate_url"`
	CertificateIssuedAt *time.Time `json:"certificate_issued_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Completed reports whether the project reached the final stage.
func (p Project) Completed() bool {
	return p.Stage == StageCompleted
}
