package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

type seedConfigRepo struct {
	entries []models.SystemConfig
}

func (s *seedConfigRepo) Get(ctx context.Context, key string) (models.SystemConfig, error) {
	for _, entry := range s.entries {
		if entry.Key == key {
			return entry, nil
		}
	}
	return models.SystemConfig{}, gorm.ErrRecordNotFound
}

func (s *seedConfigRepo) GetMany(ctx context.Context, keys ...string) ([]models.SystemConfig, error) {
	var out []models.SystemConfig
	for _, key := range keys {
		if entry, err := s.Get(ctx, key); err == nil {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *seedConfigRepo) SetMany(ctx context.Context, entries []models.SystemConfig) error {
	s.entries = entries
	return nil
}

func TestSeedServiceTokenGuard(t *testing.T) {
	repo := &seedConfigRepo{}
	svc := NewSeedService(repo, true, "secret", testLogger())

	_, err := svc.SeedEnrollmentDefaults(context.Background(), "wrong", 2026, true)
	require.ErrorIs(t, err, ErrSeedUnauthorized)

	affected, err := svc.SeedEnrollmentDefaults(context.Background(), "secret", 2026, true)
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)
	require.Len(t, repo.entries, 2)
}

func TestSeedServiceDisabled(t *testing.T) {
	svc := NewSeedService(&seedConfigRepo{}, false, "secret", testLogger())

	_, err := svc.SeedEnrollmentDefaults(context.Background(), "secret", 2026, true)
	require.ErrorIs(t, err, ErrSeedDisabled)
}

func TestSeedServiceZeroYearForcesClosed(t *testing.T) {
	repo := &seedConfigRepo{}
	svc := NewSeedService(repo, true, "secret", testLogger())

	_, err := svc.SeedEnrollmentDefaults(context.Background(), "secret", 0, true)
	require.NoError(t, err)

	entry, err := repo.Get(context.Background(), models.ConfigEnrollmentOpen)
	require.NoError(t, err)
	require.Equal(t, "false", entry.Value)
}
