package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/models"
	"github.com/noah-isme/iris-go-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksSensitiveMetadata(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "Coordinator",
		Action:     "Proposal.Approved",
		EntityType: "Proposal",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"email": "student@example.com",
			"tier":  "coordinator",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "coordinator", entry.Metadata["tier"])
	require.Equal(t, "proposal.approved", entry.Action)
	require.Equal(t, "coordinator", entry.ActorRole)
	require.Equal(t, uint(1), entry.ActorID)
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	svc := NewActivityService(&memoryActivityRepo{}, testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		ActorRole:  "coordinator",
		EntityType: "proposal",
	})
	require.Error(t, err)
}

func TestActivityServiceListPagination(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testLogger())

	for i := 0; i < 3; i++ {
		_, err := svc.Record(context.Background(), ActivityEntry{
			ActorID:    uint(i + 1),
			ActorRole:  "advisor",
			Action:     "deliverable.approved",
			EntityType: "deliverable",
		})
		require.NoError(t, err)
	}

	resp, err := svc.List(context.Background(), dto.ActivityListRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), resp.Pagination.TotalItems)
	require.Equal(t, 2, resp.Pagination.TotalPages)
}

func ptrUint(v uint) *uint {
	return &v
}
