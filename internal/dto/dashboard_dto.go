package dto

import "time"

// CoordinatorDashboardResponse aggregates workflow counts for the program
// coordinator overview.
type CoordinatorDashboardResponse struct {
	ProposalsByStatus          map[string]int64 `json:"proposals_by_status"`
	ProjectsByStage            map[string]int64 `json:"projects_by_stage"`
	DeliverablesPendingAdvisor int64            `json:"deliverables_pending_advisor"`
	DeliverablesPendingReview  int64            `json:"deliverables_pending_review"`
	GeneratedAt                time.Time        `json:"generated_at"`
	CacheHit                   bool             `json:"cache_hit"`
}
