package models

import "time"

// SystemConfig keys consumed by the enrollment gate.
const (
	ConfigEnrollmentOpen     = "enrollment_open"
	ConfigActiveAcademicYear = "active_academic_year"
)

// SystemConfig is a coordinator-managed key/value row with audit fields.
type SystemConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"size:500;not null" json:"value"`
	Description string    `gorm:"type:text" json:"description"`
	UpdatedBy   *uint     `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}
