package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/models"
	"github.com/noah-isme/iris-go-api/internal/repository"
)

var (
	// ErrSeedDisabled indicates the seeding tools are disabled by configuration.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedUnauthorized indicates the provided token is invalid.
	ErrSeedUnauthorized = errors.New("invalid seed token")
)

// SeedService bootstraps system configuration for a fresh deployment.
type SeedService interface {
	SeedEnrollmentDefaults(ctx context.Context, token string, year int, open bool) (int64, error)
}

type seedService struct {
	configRepo repository.ConfigRepository
	enabled    bool
	token      string
	logger     zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(configRepo repository.ConfigRepository, enabled bool, token string, logger zerolog.Logger) SeedService {
	return &seedService{
		configRepo: configRepo,
		enabled:    enabled,
		token:      token,
		logger:     logger.With().Str("component", "seed_service").Logger(),
	}
}

// SeedEnrollmentDefaults writes the enrollment window keys so a fresh
// deployment starts with an explicit window instead of missing rows.
func (s *seedService) SeedEnrollmentDefaults(ctx context.Context, token string, year int, open bool) (int64, error) {
	if !s.enabled {
		return 0, ErrSeedDisabled
	}
	if !s.validateToken(token) {
		return 0, ErrSeedUnauthorized
	}
	if year <= 0 {
		open = false
	}

	entries := []models.SystemConfig{
		{
			Key:         models.ConfigEnrollmentOpen,
			Value:       strconv.FormatBool(open),
			Description: "whether new proposal submissions are accepted",
		},
		{
			Key:         models.ConfigActiveAcademicYear,
			Value:       strconv.Itoa(year),
			Description: "academic year stamped on new proposals",
		},
	}

	if err := s.configRepo.SetMany(ctx, entries); err != nil {
		return 0, err
	}
	affected := int64(len(entries))
	s.logger.Info().Int("year", year).Bool("open", open).Msg("enrollment defaults seeded")
	return affected, nil
}

func (s *seedService) validateToken(token string) bool {
	expected := strings.TrimSpace(s.token)
	if expected == "" {
		return false
	}
	return subtleConstantTimeCompare(expected, strings.TrimSpace(token))
}

func subtleConstantTimeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	mismatch := byte(0)
	for i := 0; i < len(a); i++ {
		mismatch |= a[i] ^ b[i]
	}
	return mismatch == 0
}
