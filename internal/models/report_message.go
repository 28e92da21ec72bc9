package models

import "time"

// ReportMessage is one immutable entry in the asynchronous thread attached
// to a monthly-report deliverable. Ordering is by creation timestamp.
type ReportMessage struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	DeliverableID uint      `gorm:"not null;index" json:"deliverable_id"`
	AuthorID      uint      `gorm:"not null" json:"author_id"`
	AuthorRole    string    `gorm:"size:20;not null" json:"author_role"`
	Body          string    `gorm:"type:text;not null" json:"body"`
	CreatedAt     time.Time `json:"created_at"`

	Deliverable Deliverable `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
