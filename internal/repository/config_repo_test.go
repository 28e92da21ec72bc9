package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

func setupConfigTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.SystemConfig{}))
	return db
}

func TestConfigRepositorySetManyUpserts(t *testing.T) {
	db := setupConfigTestDB(t)
	repo := NewConfigRepository(db)

	entries := []models.SystemConfig{
		{Key: models.ConfigEnrollmentOpen, Value: "true", Description: "gate"},
		{Key: models.ConfigActiveAcademicYear, Value: "2026", Description: "year"},
	}
	require.NoError(t, repo.SetMany(context.Background(), entries))

	stored, err := repo.GetMany(context.Background(), models.ConfigEnrollmentOpen, models.ConfigActiveAcademicYear)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	// Writing the same keys again replaces the values instead of erroring.
	entries[0].Value = "false"
	entries[1].Value = "2027"
	require.NoError(t, repo.SetMany(context.Background(), entries))

	flag, err := repo.Get(context.Background(), models.ConfigEnrollmentOpen)
	require.NoError(t, err)
	require.Equal(t, "false", flag.Value)

	var count int64
	require.NoError(t, db.Model(&models.SystemConfig{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestConfigRepositoryGetMissingKey(t *testing.T) {
	db := setupConfigTestDB(t)
	repo := NewConfigRepository(db)

	_, err := repo.Get(context.Background(), "no_such_key")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
