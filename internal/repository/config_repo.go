package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// ConfigRepository persists the coordinator-managed system configuration.
type ConfigRepository interface {
	Get(ctx context.Context, key string) (models.SystemConfig, error)
	GetMany(ctx context.Context, keys ...string) ([]models.SystemConfig, error)
	SetMany(ctx context.Context, entries []models.SystemConfig) error
}

type configRepository struct {
	db *gorm.DB
}

// NewConfigRepository instantiates the repository.
func NewConfigRepository(db *gorm.DB) ConfigRepository {
	return &configRepository{db: db}
}

func (r *configRepository) Get(ctx context.Context, key string) (models.SystemConfig, error) {
	var entry models.SystemConfig
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&entry).Error; err != nil {
		return models.SystemConfig{}, err
	}

	return entry, nil
}

func (r *configRepository) GetMany(ctx context.Context, keys ...string) ([]models.SystemConfig, error) {
	var entries []models.SystemConfig
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

// SetMany upserts the given entries in one transaction so related keys, such
// as the enrollment flag and the active year, change together or not at all.
func (r *configRepository) SetMany(ctx context.Context, entries []models.SystemConfig) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for i := range entries {
			entries[i].UpdatedAt = now
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_by", "updated_at"}),
			}).Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
