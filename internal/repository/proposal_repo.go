package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

// ProposalFilter narrows proposal queries.
type ProposalFilter struct {
	StudentID    *uint
	AdvisorID    *uint
	Status       *models.ProposalStatus
	AcademicYear *int
}

// ProposalRepository defines data operations for proposals. Status writes
// are compare-and-set: the expected current status is re-checked inside the
// same statement as the update, so exactly one of two racing decisions wins.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id uint) (models.Proposal, error)
	GetActiveByStudent(ctx context.Context, studentID uint) (models.Proposal, error)
	List(ctx context.Context, filter ProposalFilter) ([]models.Proposal, error)
	UpdateStatusFrom(ctx context.Context, id uint, from models.ProposalStatus, updates map[string]interface{}) error
	ApproveAndSpawnProject(ctx context.Context, id uint, from models.ProposalStatus, updates map[string]interface{}, project *models.Project) error
	DeleteCascade(ctx context.Context, id uint) error
}

type proposalRepository struct {
	db *gorm.DB
}

// NewProposalRepository instantiates the repository.
func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *proposalRepository) GetByID(ctx context.Context, id uint) (models.Proposal, error) {
	var proposal models.Proposal
	if err := r.db.WithContext(ctx).First(&proposal, id).Error; err != nil {
		return models.Proposal{}, err
	}

	return proposal, nil
}

// GetActiveByStudent returns the proposal governing the student's current
// state: the most recent submission, ties broken by highest id.
func (r *proposalRepository) GetActiveByStudent(ctx context.Context, studentID uint) (models.Proposal, error) {
	var proposal models.Proposal
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		First(&proposal).Error; err != nil {
		return models.Proposal{}, err
	}

	return proposal, nil
}

func (r *proposalRepository) List(ctx context.Context, filter ProposalFilter) ([]models.Proposal, error) {
	query := r.db.WithContext(ctx).Model(&models.Proposal{})

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.AdvisorID != nil {
		query = query.Where("advisor_id = ?", *filter.AdvisorID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.AcademicYear != nil {
		query = query.Where("academic_year = ?", *filter.AcademicYear)
	}

	var proposals []models.Proposal
	if err := query.Order("created_at DESC").Find(&proposals).Error; err != nil {
		return nil, err
	}

	return proposals, nil
}

func (r *proposalRepository) UpdateStatusFrom(ctx context.Context, id uint, from models.ProposalStatus, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ApproveAndSpawnProject performs the coordinator approval and the dependent
// project creation in one transaction. Project creation is idempotent: an
// existing row for the proposal is reused rather than duplicated.
func (r *proposalRepository) ApproveAndSpawnProject(ctx context.Context, id uint, from models.ProposalStatus, updates map[string]interface{}, project *models.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Proposal{}).
			Where("id = ?", id).
			Where("status = ?", from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Where(models.Project{ProposalID: id}).FirstOrCreate(project).Error
	})
}

// DeleteCascade removes the proposal together with its project and every
// dependent deliverable and report message, all-or-nothing.
func (r *proposalRepository) DeleteCascade(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		projectIDs := tx.Model(&models.Project{}).Select("id").Where("proposal_id = ?", id)
		deliverableIDs := tx.Model(&models.Deliverable{}).Select("id").Where("project_id IN (?)", projectIDs)

		if err := tx.Where("deliverable_id IN (?)", deliverableIDs).Delete(&models.ReportMessage{}).Error; err != nil {
			return err
		}

		projectIDs = tx.Model(&models.Project{}).Select("id").Where("proposal_id = ?", id)
		if err := tx.Where("project_id IN (?)", projectIDs).Delete(&models.Deliverable{}).Error; err != nil {
			return err
		}

		if err := tx.Where("proposal_id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Proposal{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
