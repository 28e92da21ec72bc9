package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// StatusCount pairs an enum value with the number of rows carrying it.
type StatusCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// DashboardRepository supplies aggregate counts for the coordinator overview.
type DashboardRepository interface {
	CountProposalsByStatus(ctx context.Context, year *int) ([]StatusCount, error)
	CountProjectsByStage(ctx context.Context, year *int) ([]StatusCount, error)
	CountDeliverablesPendingAdvisor(ctx context.Context) (int64, error)
	CountDeliverablesPendingCoordinator(ctx context.Context) (int64, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository constructs the dashboard repository.
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) CountProposalsByStatus(ctx context.Context, year *int) ([]StatusCount, error) {
	query := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Select("status AS value, COUNT(*) AS count").
		Group("status")
	if year != nil {
		query = query.Where("academic_year = ?", *year)
	}

	var counts []StatusCount
	if err := query.Scan(&counts).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *dashboardRepository) CountProjectsByStage(ctx context.Context, year *int) ([]StatusCount, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{}).
		Select("stage AS value, COUNT(*) AS count").
		Group("stage")
	if year != nil {
		query = query.Where("academic_year = ?", *year)
	}

	var counts []StatusCount
	if err := query.Scan(&counts).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *dashboardRepository) CountDeliverablesPendingAdvisor(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Deliverable{}).
		Where("advisor_status = ?", models.ApprovalPending).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountDeliverablesPendingCoordinator(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Deliverable{}).
		Where("advisor_status = ?", models.ApprovalApproved).
		Where("coordinator_status = ?", models.ApprovalPending).
		Count(&count).Error
	return count, err
}
