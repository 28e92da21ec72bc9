package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/iris-go-api/internal/repository"
)

type fakeDashboardRepo struct {
	proposalCounts     []repository.StatusCount
	projectCounts      []repository.StatusCount
	pendingAdvisor     int64
	pendingCoordinator int64
	calls              int
}

func (f *fakeDashboardRepo) CountProposalsByStatus(context.Context, *int) ([]repository.StatusCount, error) {
	f.calls++
	return f.proposalCounts, nil
}

func (f *fakeDashboardRepo) CountProjectsByStage(context.Context, *int) ([]repository.StatusCount, error) {
	return f.projectCounts, nil
}

func (f *fakeDashboardRepo) CountDeliverablesPendingAdvisor(context.Context) (int64, error) {
	return f.pendingAdvisor, nil
}

func (f *fakeDashboardRepo) CountDeliverablesPendingCoordinator(context.Context) (int64, error) {
	return f.pendingCoordinator, nil
}

func setupDashboardCache(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestDashboardServiceAggregatesCounts(t *testing.T) {
	repo := &fakeDashboardRepo{
		proposalCounts: []repository.StatusCount{
			{Value: "pending_advisor", Count: 4},
			{Value: "approved", Count: 2},
		},
		projectCounts: []repository.StatusCount{
			{Value: "monthly_report_2", Count: 3},
		},
		pendingAdvisor:     5,
		pendingCoordinator: 1,
	}

	svc := NewDashboardService(repo, nil, 0, testLogger())

	dashboard, err := svc.GetCoordinatorDashboard(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, int64(4), dashboard.ProposalsByStatus["pending_advisor"])
	require.Equal(t, int64(3), dashboard.ProjectsByStage["monthly_report_2"])
	require.Equal(t, int64(5), dashboard.DeliverablesPendingAdvisor)
	require.Equal(t, int64(1), dashboard.DeliverablesPendingReview)
	require.False(t, dashboard.CacheHit)
}

func TestDashboardServiceCacheHit(t *testing.T) {
	repo := &fakeDashboardRepo{pendingAdvisor: 2}
	cache := setupDashboardCache(t)

	svc := NewDashboardService(repo, cache, time.Minute, testLogger())

	first, err := svc.GetCoordinatorDashboard(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.Equal(t, 1, repo.calls)

	second, err := svc.GetCoordinatorDashboard(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, int64(2), second.DeliverablesPendingAdvisor)
	require.Equal(t, 1, repo.calls)
}

func TestDashboardServiceCacheKeyPerYear(t *testing.T) {
	repo := &fakeDashboardRepo{}
	cache := setupDashboardCache(t)

	svc := NewDashboardService(repo, cache, time.Minute, testLogger())

	year := 2026
	_, err := svc.GetCoordinatorDashboard(context.Background(), &year)
	require.NoError(t, err)

	_, err = svc.GetCoordinatorDashboard(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}
