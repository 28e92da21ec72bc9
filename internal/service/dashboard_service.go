package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/iris-go-api/internal/dto"
	"github.com/noah-isme/iris-go-api/internal/repository"
)

// DashboardService aggregates program-wide counts for the coordinator view.
type DashboardService interface {
	GetCoordinatorDashboard(ctx context.Context, academicYear *int) (dto.CoordinatorDashboardResponse, error)
}

type dashboardService struct {
	dashboards repository.DashboardRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewDashboardService builds the dashboard aggregator.
func NewDashboardService(dashboards repository.DashboardRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		dashboards: dashboards,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "dashboard_service").Logger(),
		now:        time.Now,
	}
}

func (s *dashboardService) GetCoordinatorDashboard(ctx context.Context, academicYear *int) (dto.CoordinatorDashboardResponse, error) {
	cacheKey := "dashboard:coordinator:all"
	if academicYear != nil {
		cacheKey = fmt.Sprintf("dashboard:coordinator:%d", *academicYear)
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.CoordinatorDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Str("cache_key", cacheKey).Msg("dashboard cache hit")
				response.CacheHit = true
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		}
	}

	proposalCounts, err := s.dashboards.CountProposalsByStatus(ctx, academicYear)
	if err != nil {
		return dto.CoordinatorDashboardResponse{}, storageErr(err)
	}

	projectCounts, err := s.dashboards.CountProjectsByStage(ctx, academicYear)
	if err != nil {
		return dto.CoordinatorDashboardResponse{}, storageErr(err)
	}

	pendingAdvisor, err := s.dashboards.CountDeliverablesPendingAdvisor(ctx)
	if err != nil {
		return dto.CoordinatorDashboardResponse{}, storageErr(err)
	}

	pendingCoordinator, err := s.dashboards.CountDeliverablesPendingCoordinator(ctx)
	if err != nil {
		return dto.CoordinatorDashboardResponse{}, storageErr(err)
	}

	response := dto.CoordinatorDashboardResponse{
		ProposalsByStatus:          toCountMap(proposalCounts),
		ProjectsByStage:            toCountMap(projectCounts),
		DeliverablesPendingAdvisor: pendingAdvisor,
		DeliverablesPendingReview:  pendingCoordinator,
		GeneratedAt:                s.now().UTC(),
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
			}
		}
	}

	return response, nil
}

func toCountMap(counts []repository.StatusCount) map[string]int64 {
	result := make(map[string]int64, len(counts))
	for _, count := range counts {
		result[count.Value] = count.Count
	}
	return result
}
