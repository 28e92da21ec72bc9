package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// ProjectFilter narrows project queries.
type ProjectFilter struct {
	StudentID    *uint
	AdvisorID    *uint
	Stage        *models.ProjectStage
	AcademicYear *int
}

// ProjectRepository defines data operations for tracked projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uint) (models.Project, error)
	GetByProposalID(ctx context.Context, proposalID uint) (models.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]models.Project, error)
	SetStage(ctx context.Context, id uint, stage models.ProjectStage) error
	SetSchedule(ctx context.Context, id uint, prefix string, schedule models.EventSchedule) error
	SetCertificate(ctx context.Context, id uint, fileURL string, issuedAt time.Time) error
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository instantiates the repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) GetByID(ctx context.Context, id uint) (models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return models.Project{}, err
	}

	return project, nil
}

func (r *projectRepository) GetByProposalID(ctx context.Context, proposalID uint) (models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).First(&project).Error; err != nil {
		return models.Project{}, err
	}

	return project, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]models.Project, error) {
	query := r.db.WithContext(ctx).Model(&models.Project{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.AdvisorID != nil {
		query = query.Where("advisor_id = ?", *filter.AdvisorID)
	}

	if filter.Stage != nil {
		query = query.Where("stage = ?", *filter.Stage)
	}

	if filter.AcademicYear != nil {
		query = query.Where("academic_year = ?", *filter.AcademicYear)
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return projects, nil
}

func (r *projectRepository) SetStage(ctx context.Context, id uint, stage models.ProjectStage) error {
	result := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", id).
		Update("stage", stage)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetSchedule writes the presentation or showcase event columns, selected by
// the embedded column prefix ("presentation" or "showcase").
func (r *projectRepository) SetSchedule(ctx context.Context, id uint, prefix string, schedule models.EventSchedule) error {
	updates := map[string]interface{}{
		prefix + "_date":   schedule.Date,
		prefix + "_time":   schedule.Time,
		prefix + "_campus": schedule.Campus,
		prefix + "_room":   schedule.Room,
	}

	result := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetCertificate stamps the certificate reference. The completed-stage guard
// runs in the same statement so a concurrent stage change cannot slip in
// between check and write.
func (r *projectRepository) SetCertificate(ctx context.Context, id uint, fileURL string, issuedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", id).
		Where("stage = ?", models.StageCompleted).
		Updates(map[string]interface{}{
			"certificate_url":       fileURL,
			"certificate_issued_at": issuedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
