package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/iris-go-api/internal/models"
)

func createTestProject(t *testing.T, db *gorm.DB) models.Project {
	t.Helper()
	proposal := createTestProposal(t, db, models.ProposalStatusApproved)
	project := models.Project{
		ProposalID:   proposal.ID,
		StudentID:    proposal.StudentID,
		AdvisorID:    proposal.AdvisorID,
		AcademicYear: proposal.AcademicYear,
		Title:        proposal.Title,
		Stage:        models.StageMonthlyReport1,
	}
	require.NoError(t, db.Create(&project).Error)
	return project
}

func createTestDeliverable(t *testing.T, db *gorm.DB, projectID uint, kind models.DeliverableKind) models.Deliverable {
	t.Helper()
	deliverable := models.Deliverable{
		ProjectID:         projectID,
		StudentID:         1,
		Kind:              kind,
		Title:             "October progress",
		AdvisorStatus:     models.ApprovalPending,
		CoordinatorStatus: models.ApprovalPending,
	}
	require.NoError(t, db.Create(&deliverable).Error)
	return deliverable
}

func TestDeliverableRepositoryHasLive(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewDeliverableRepository(db)
	project := createTestProject(t, db)

	live, err := repo.HasLive(context.Background(), project.ID, models.KindPartialReport)
	require.NoError(t, err)
	require.False(t, live)

	deliverable := createTestDeliverable(t, db, project.ID, models.KindPartialReport)

	live, err = repo.HasLive(context.Background(), project.ID, models.KindPartialReport)
	require.NoError(t, err)
	require.True(t, live)

	// A rejection at either tier frees the slot.
	require.NoError(t, repo.AdvisorDecide(context.Background(), deliverable.ID, models.ApprovalRejected, models.ApprovalBlocked, "incomplete", time.Now()))

	live, err = repo.HasLive(context.Background(), project.ID, models.KindPartialReport)
	require.NoError(t, err)
	require.False(t, live)
}

func TestDeliverableRepositoryAdvisorDecideGuards(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewDeliverableRepository(db)
	project := createTestProject(t, db)
	deliverable := createTestDeliverable(t, db, project.ID, models.KindMonthlyReport)

	require.NoError(t, repo.AdvisorDecide(context.Background(), deliverable.ID, models.ApprovalApproved, models.ApprovalPending, "good", time.Now()))

	// The tier already moved once, a second write matches no row.
	err := repo.AdvisorDecide(context.Background(), deliverable.ID, models.ApprovalRejected, models.ApprovalBlocked, "", time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	stored, err := repo.GetByID(context.Background(), deliverable.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalApproved, stored.AdvisorStatus)
	require.Equal(t, models.ApprovalPending, stored.CoordinatorStatus)
	require.NotNil(t, stored.AdvisorDecidedAt)
}

func TestDeliverableRepositoryCoordinatorDecideNeedsAdvisorApproval(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewDeliverableRepository(db)
	project := createTestProject(t, db)
	deliverable := createTestDeliverable(t, db, project.ID, models.KindMonthlyReport)

	// Advisor tier is still pending: the guard keeps the coordinator out.
	err := repo.CoordinatorDecide(context.Background(), deliverable.ID, models.ApprovalApproved, "", time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.AdvisorDecide(context.Background(), deliverable.ID, models.ApprovalApproved, models.ApprovalPending, "", time.Now()))
	require.NoError(t, repo.CoordinatorDecide(context.Background(), deliverable.ID, models.ApprovalApproved, "accepted", time.Now()))

	stored, err := repo.GetByID(context.Background(), deliverable.ID)
	require.NoError(t, err)
	require.Equal(t, models.ApprovalApproved, stored.CoordinatorStatus)
	require.Equal(t, "accepted", stored.CoordinatorFeedback)
}

func TestDeliverableRepositoryGetByIDPreloadsProject(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewDeliverableRepository(db)
	project := createTestProject(t, db)
	deliverable := createTestDeliverable(t, db, project.ID, models.KindMonthlyReport)

	stored, err := repo.GetByID(context.Background(), deliverable.ID)
	require.NoError(t, err)
	require.Equal(t, project.ID, stored.Project.ID)
	require.Equal(t, project.AdvisorID, stored.Project.AdvisorID)
}

func TestProjectRepositorySetCertificateOnlyWhenCompleted(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewProjectRepository(db)
	project := createTestProject(t, db)

	err := repo.SetCertificate(context.Background(), project.ID, "https://cdn.example.com/cert.pdf", time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.SetStage(context.Background(), project.ID, models.StageCompleted))
	require.NoError(t, repo.SetCertificate(context.Background(), project.ID, "https://cdn.example.com/cert.pdf", time.Now()))

	stored, err := repo.GetByID(context.Background(), project.ID)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/cert.pdf", stored.CertificateURL)
	require.NotNil(t, stored.CertificateIssuedAt)
}

func TestProjectRepositorySetScheduleByPrefix(t *testing.T) {
	db := setupWorkflowTestDB(t)
	repo := NewProjectRepository(db)
	project := createTestProject(t, db)

	schedule := models.EventSchedule{Date: "2026-09-15", Time: "14:00", Campus: "North", Room: "B204"}
	require.NoError(t, repo.SetSchedule(context.Background(), project.ID, "presentation", schedule))

	stored, err := repo.GetByID(context.Background(), project.ID)
	require.NoError(t, err)
	require.Equal(t, "2026-09-15", stored.Presentation.Date)
	require.Empty(t, stored.Showcase.Date)

	require.NoError(t, repo.SetSchedule(context.Background(), project.ID, "showcase", models.EventSchedule{Date: "2026-11-01", Time: "09:30", Campus: "North"}))
	stored, err = repo.GetByID(context.Background(), project.ID)
	require.NoError(t, err)
	require.Equal(t, "2026-11-01", stored.Showcase.Date)
}
