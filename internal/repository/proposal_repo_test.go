package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

func setupWorkflowTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Proposal{},
		&models.Project{},
		&models.Deliverable{},
		&models.ReportMessage{},
	))
	return db
}

func createTestProposal(t *testing.T, db *gorm.DB, status models.ProposalStatus) models.Proposal {
	t.Helper()
	proposal := models.Proposal{
		StudentID:    1,
		AdvisorID:    2,
		AcademicYear: 2026,
		Title:        "Edge caching for rural networks",
		Description:  "A study of cache placement strategies.",
		Status:       status,
	}
	require.NoError(t, db.Create(&proposal).Error)
	return proposal
}

func TestProposalRepositoryUpdateStatusFromGuards(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewProposalRepository(db)
	proposal := createTestProposal(t, db, models.ProposalStatusPendingAdvisor)

	err := repo.UpdateStatusFrom(context.Background(), proposal.ID, models.ProposalStatusPendingAdvisor, map[string]interface{}{
		"status":           models.ProposalStatusPendingCoordinator,
		"advisor_feedback": "looks good",
	})
	require.NoError(t, err)

	// The row already moved; a replay of the same guarded write matches
	// nothing.
	err = repo.UpdateStatusFrom(context.Background(), proposal.ID, models.ProposalStatusPendingAdvisor, map[string]interface{}{
		"status": models.ProposalStatusRejectedAdvisor,
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	stored, err := repo.GetByID(context.Background(), proposal.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProposalStatusPendingCoordinator, stored.Status)
	require.Equal(t, "looks good", stored.AdvisorFeedback)
}

func TestProposalRepositoryApproveAndSpawnProjectIdempotent(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewProposalRepository(db)
	proposal := createTestProposal(t, db, models.ProposalStatusPendingCoordinator)

	project := models.Project{
		ProposalID:   proposal.ID,
		StudentID:    proposal.StudentID,
		AdvisorID:    proposal.AdvisorID,
		AcademicYear: proposal.AcademicYear,
		Title:        proposal.Title,
		Stage:        models.StagePresentProposal,
	}
	err := repo.ApproveAndSpawnProject(context.Background(), proposal.ID, models.ProposalStatusPendingCoordinator, map[string]interface{}{
		"status": models.ProposalStatusPendingPresentation,
	}, &project)
	require.NoError(t, err)
	require.NotZero(t, project.ID)

	// A second approval attempt fails the guard and leaves exactly one
	// project behind.
	replayed := models.Project{ProposalID: proposal.ID, StudentID: proposal.StudentID, AdvisorID: proposal.AdvisorID, Stage: models.StagePresentProposal}
	err = repo.ApproveAndSpawnProject(context.Background(), proposal.ID, models.ProposalStatusPendingCoordinator, map[string]interface{}{
		"status": models.ProposalStatusPendingPresentation,
	}, &replayed)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Project{}).Where("proposal_id = ?", proposal.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestProposalRepositoryDeleteCascadeRemovesDependents(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewProposalRepository(db)
	proposal := createTestProposal(t, db, models.ProposalStatusApproved)

	project := models.Project{ProposalID: proposal.ID, StudentID: 1, AdvisorID: 2, AcademicYear: 2026, Title: proposal.Title, Stage: models.StageMonthlyReport1}
	require.NoError(t, db.Create(&project).Error)

	deliverable := models.Deliverable{ProjectID: project.ID, StudentID: 1, Kind: models.KindMonthlyReport, Title: "October", AdvisorStatus: models.ApprovalPending, CoordinatorStatus: models.ApprovalPending}
	require.NoError(t, db.Create(&deliverable).Error)

	message := models.ReportMessage{DeliverableID: deliverable.ID, AuthorID: 2, AuthorRole: "advisor", Body: "please revise"}
	require.NoError(t, db.Create(&message).Error)

	require.NoError(t, repo.DeleteCascade(context.Background(), proposal.ID))

	for model, where := range map[interface{}][]interface{}{
		&models.Proposal{}:      {"id = ?", proposal.ID},
		&models.Project{}:       {"proposal_id = ?", proposal.ID},
		&models.Deliverable{}:   {"project_id = ?", project.ID},
		&models.ReportMessage{}: {"deliverable_id = ?", deliverable.ID},
	} {
		var count int64
		require.NoError(t, db.Model(model).Where(where[0], where[1:]...).Count(&count).Error)
		require.Zero(t, count)
	}

	require.ErrorIs(t, repo.DeleteCascade(context.Background(), proposal.ID), gorm.ErrRecordNotFound)
}

func TestProposalRepositoryGetActiveByStudentPrefersLatest(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewProposalRepository(db)

	first := models.Proposal{StudentID: 77, AdvisorID: 2, AcademicYear: 2025, Title: "First attempt", Description: "rejected earlier", Status: models.ProposalStatusRejectedAdvisor}
	require.NoError(t, db.Create(&first).Error)
	second := models.Proposal{StudentID: 77, AdvisorID: 2, AcademicYear: 2026, Title: "Second attempt", Description: "in review", Status: models.ProposalStatusPendingAdvisor}
	require.NoError(t, db.Create(&second).Error)

	active, err := repo.GetActiveByStudent(context.Background(), 77)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)
}

func TestProposalRepositoryListFilters(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewProposalRepository(db)

	pending := models.Proposal{StudentID: 88, AdvisorID: 5, AcademicYear: 2026, Title: "Pending one", Description: "pending", Status: models.ProposalStatusPendingAdvisor}
	require.NoError(t, db.Create(&pending).Error)
	approved := models.Proposal{StudentID: 88, AdvisorID: 5, AcademicYear: 2026, Title: "Approved one", Description: "approved", Status: models.ProposalStatusApproved}
	require.NoError(t, db.Create(&approved).Error)

	status := models.ProposalStatusApproved
	studentID := uint(88)
	listed, err := repo.List(context.Background(), ProposalFilter{StudentID: &studentID, Status: &status})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, approved.ID, listed[0].ID)
}
