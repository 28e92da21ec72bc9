package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// ReportMessageRepository persists the append-only monthly-report threads.
type ReportMessageRepository interface {
	Create(ctx context.Context, message *models.ReportMessage) error
	ListByDeliverable(ctx context.Context, deliverableID uint) ([]models.ReportMessage, error)
}

type reportMessageRepository struct {
	db *gorm.DB
}

// NewReportMessageRepository instantiates the repository.
func NewReportMessageRepository(db *gorm.DB) ReportMessageRepository {
	return &reportMessageRepository{db: db}
}

func (r *reportMessageRepository) Create(ctx context.Context, message *models.ReportMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *reportMessageRepository) ListByDeliverable(ctx context.Context, deliverableID uint) ([]models.ReportMessage, error) {
	var messages []models.ReportMessage
	if err := r.db.WithContext(ctx).
		Where("deliverable_id = ?", deliverableID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}

	return messages, nil
}
