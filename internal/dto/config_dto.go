package dto

import "time"

// EnrollmentWindowRequest opens or closes enrollment for a given academic
// year. Both keys change together.
type EnrollmentWindowRequest struct {
	Open bool `json:"open"`
	Year int  `json:"year" validate:"required,gte=2000,lte=2100"`
}

// EnrollmentWindowResponse reports the advertised enrollment window.
type EnrollmentWindowResponse struct {
	Open      bool      `json:"open"`
	Year      int       `json:"year"`
	UpdatedBy *uint     `json:"updated_by,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
