package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/models"
	"github.com/noah-isme/iris-go-api/internal/repository"
)

// EnrollmentGate reports the advertised enrollment window. The proposal
// workflow consults it on every submission attempt.
type EnrollmentGate interface {
	Window(ctx context.Context) (dto.EnrollmentWindowResponse, error)
}

// EnrollmentService manages the global enrollment switch and active year.
type EnrollmentService interface {
	EnrollmentGate
	SetWindow(ctx context.Context, actor Actor, payload dto.EnrollmentWindowRequest) (dto.EnrollmentWindowResponse, error)
}

type enrollmentService struct {
	repo      repository.ConfigRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
}

// NewEnrollmentService constructs the enrollment gate service.
func NewEnrollmentService(repo repository.ConfigRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "enrollment_service").Logger(),
	}
}

// Window reads both gate keys in one query so a submission can never observe
// an open flag paired with a stale year. Missing keys report a closed window.
func (s *enrollmentService) Window(ctx context.Context) (dto.EnrollmentWindowResponse, error) {
	entries, err := s.repo.GetMany(ctx, models.ConfigEnrollmentOpen, models.ConfigActiveAcademicYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EnrollmentWindowResponse{}, nil
		}
		return dto.EnrollmentWindowResponse{}, storageErr(err)
	}

	window := dto.EnrollmentWindowResponse{}
	for _, entry := range entries {
		switch entry.Key {
		case models.ConfigEnrollmentOpen:
			open, parseErr := strconv.ParseBool(entry.Value)
			if parseErr != nil {
				s.logger.Warn().Str("value", entry.Value).Msg("malformed enrollment flag, treating window as closed")
				open = false
			}
			window.Open = open
			window.UpdatedBy = entry.UpdatedBy
			window.UpdatedAt = entry.UpdatedAt
		case models.ConfigActiveAcademicYear:
			year, parseErr := strconv.Atoi(entry.Value)
			if parseErr != nil {
				s.logger.Warn().Str("value", entry.Value).Msg("malformed academic year")
				continue
			}
			window.Year = year
		}
	}

	// An open flag without a usable year is not an advertised window.
	if window.Year == 0 {
		window.Open = false
	}

	return window, nil
}

func (s *enrollmentService) SetWindow(ctx context.Context, actor Actor, payload dto.EnrollmentWindowRequest) (dto.EnrollmentWindowResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EnrollmentWindowResponse{}, err
	}

	updatedBy := actor.ID
	entries := []models.SystemConfig{
		{
			Key:         models.ConfigEnrollmentOpen,
			Value:       strconv.FormatBool(payload.Open),
			Description: "whether new proposal submissions are accepted",
			UpdatedBy:   &updatedBy,
		},
		{
			Key:         models.ConfigActiveAcademicYear,
			Value:       strconv.Itoa(payload.Year),
			Description: "academic year stamped on new proposals",
			UpdatedBy:   &updatedBy,
		},
	}

	if err := s.repo.SetMany(ctx, entries); err != nil {
		return dto.EnrollmentWindowResponse{}, storageErr(err)
	}

	s.logger.Info().Bool("open", payload.Open).Int("year", payload.Year).Uint("coordinator_id", actor.ID).Msg("enrollment window updated")

	if s.activity != nil {
		_, err := s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "set_enrollment_window",
			EntityType: "system_config",
			Metadata:   map[string]interface{}{"open": payload.Open, "year": payload.Year},
		})
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to record enrollment window change")
		}
	}

	return s.Window(ctx)
}
