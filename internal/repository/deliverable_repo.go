package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// DeliverableFilter narrows deliverable queries.
type DeliverableFilter struct {
	ProjectID         *uint
	StudentID         *uint
	Kind              *models.DeliverableKind
	AdvisorStatus     *models.ApprovalStatus
	CoordinatorStatus *models.ApprovalStatus
}

// DeliverableRepository defines data operations for deliverables. The two
// decision methods are compare-and-set on the tier sub-statuses, mirroring
// the proposal repository.
type DeliverableRepository interface {
	Create(ctx context.Context, deliverable *models.Deliverable) error
	GetByID(ctx context.Context, id uint) (models.Deliverable, error)
	List(ctx context.Context, filter DeliverableFilter) ([]models.Deliverable, error)
	HasLive(ctx context.Context, projectID uint, kind models.DeliverableKind) (bool, error)
	AdvisorDecide(ctx context.Context, id uint, advisor, coordinator models.ApprovalStatus, feedback string, decidedAt time.Time) error
	CoordinatorDecide(ctx context.Context, id uint, status models.ApprovalStatus, feedback string, decidedAt time.Time) error
}

type deliverableRepository struct {
	db *gorm.DB
}

// NewDeliverableRepository instantiates the repository.
func NewDeliverableRepository(db *gorm.DB) DeliverableRepository {
	return &deliverableRepository{db: db}
}

func (r *deliverableRepository) Create(ctx context.Context, deliverable *models.Deliverable) error {
	return r.db.WithContext(ctx).Create(deliverable).Error
}

func (r *deliverableRepository) GetByID(ctx context.Context, id uint) (models.Deliverable, error) {
	var deliverable models.Deliverable
	if err := r.db.WithContext(ctx).Preload("Project").First(&deliverable, id).Error; err != nil {
		return models.Deliverable{}, err
	}

	return deliverable, nil
}

func (r *deliverableRepository) List(ctx context.Context, filter DeliverableFilter) ([]models.Deliverable, error) {
	query := r.db.WithContext(ctx).Model(&models.Deliverable{})

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}

	if filter.AdvisorStatus != nil {
		query = query.Where("advisor_status = ?", *filter.AdvisorStatus)
	}

	if filter.CoordinatorStatus != nil {
		query = query.Where("coordinator_status = ?", *filter.CoordinatorStatus)
	}

	var deliverables []models.Deliverable
	if err := query.Order("created_at DESC").Find(&deliverables).Error; err != nil {
		return nil, err
	}

	return deliverables, nil
}

// HasLive reports whether the project already has a deliverable of the kind
// that is still in flight or accepted, meaning neither tier rejected it.
func (r *deliverableRepository) HasLive(ctx context.Context, projectID uint, kind models.DeliverableKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Deliverable{}).
		Where("project_id = ?", projectID).
		Where("kind = ?", kind).
		Where("advisor_status <> ?", models.ApprovalRejected).
		Where("coordinator_status <> ?", models.ApprovalRejected).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *deliverableRepository) AdvisorDecide(ctx context.Context, id uint, advisor, coordinator models.ApprovalStatus, feedback string, decidedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Deliverable{}).
		Where("id = ?", id).
		Where("advisor_status = ?", models.ApprovalPending).
		Updates(map[string]interface{}{
			"advisor_status":     advisor,
			"coordinator_status": coordinator,
			"advisor_feedback":   feedback,
			"advisor_decided_at": decidedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *deliverableRepository) CoordinatorDecide(ctx context.Context, id uint, status models.ApprovalStatus, feedback string, decidedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Deliverable{}).
		Where("id = ?", id).
		Where("advisor_status = ?", models.ApprovalApproved).
		Where("coordinator_status = ?", models.ApprovalPending).
		Updates(map[string]interface{}{
			"coordinator_status":     status,
			"coordinator_feedback":   feedback,
			"coordinator_decided_at": decidedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
