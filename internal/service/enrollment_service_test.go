package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/models"
)

func newEnrollmentFixture() (EnrollmentService, *seedConfigRepo) {
	repo := &seedConfigRepo{}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewEnrollmentService(repo, validate, nil, testLogger()), repo
}

func TestEnrollmentWindowMissingKeysReportClosed(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	window, err := svc.Window(context.Background())
	require.NoError(t, err)
	require.False(t, window.Open)
	require.Zero(t, window.Year)
}

func TestEnrollmentSetWindowRoundTrips(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	window, err := svc.SetWindow(context.Background(), Actor{ID: 3, Role: "coordinator"}, dto.EnrollmentWindowRequest{Open: true, Year: 2026})
	require.NoError(t, err)
	require.True(t, window.Open)
	require.Equal(t, 2026, window.Year)
}

func TestEnrollmentOpenFlagWithoutYearIsClosed(t *testing.T) {
	svc, repo := newEnrollmentFixture()

	repo.entries = []models.SystemConfig{
		{Key: models.ConfigEnrollmentOpen, Value: "true"},
	}

	window, err := svc.Window(context.Background())
	require.NoError(t, err)
	require.False(t, window.Open)
}

func TestEnrollmentMalformedFlagTreatedAsClosed(t *testing.T) {
	svc, repo := newEnrollmentFixture()

	repo.entries = []models.SystemConfig{
		{Key: models.ConfigEnrollmentOpen, Value: "yes please"},
		{Key: models.ConfigActiveAcademicYear, Value: "2026"},
	}

	window, err := svc.Window(context.Background())
	require.NoError(t, err)
	require.False(t, window.Open)
	require.Equal(t, 2026, window.Year)
}

func TestEnrollmentSetWindowValidatesYear(t *testing.T) {
	svc, _ := newEnrollmentFixture()

	_, err := svc.SetWindow(context.Background(), Actor{ID: 3, Role: "coordinator"}, dto.EnrollmentWindowRequest{Open: true, Year: -1})
	require.Error(t, err)
}
