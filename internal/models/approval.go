package models

import "fmt"

// ApprovalStatus is one tier of the dual sign-off attached to a deliverable.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
	// ApprovalBlocked marks the coordinator tier as permanently
	// non-actionable after an advisor rejection.
	ApprovalBlocked ApprovalStatus = "blocked"
)

// Valid reports whether the status is a member of the closed enumeration.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalBlocked:
		return true
	}
	return false
}

// ApprovalState is the two-field state machine governing deliverable
// sign-off. The coordinator tier may only leave pending once the advisor
// tier is approved; an advisor rejection forces the coordinator tier to
// blocked. NewApprovalState rejects any combination outside that graph.
type ApprovalState struct {
	Advisor     ApprovalStatus
	Coordinator ApprovalStatus
}

// NewApprovalState validates the combination of tiers at construction time.
func NewApprovalState(advisor, coordinator ApprovalStatus) (ApprovalState, error) {
	if !advisor.Valid() || advisor == ApprovalBlocked {
		return ApprovalState{}, fmt.Errorf("invalid advisor approval status %q", advisor)
	}
	if !coordinator.Valid() {
		return ApprovalState{}, fmt.Errorf("invalid coordinator approval status %q", coordinator)
	}

	switch advisor {
	case ApprovalPending:
		if coordinator != ApprovalPending {
			return ApprovalState{}, fmt.Errorf("coordinator tier %q requires advisor approval first", coordinator)
		}
	case ApprovalRejected:
		if coordinator != ApprovalBlocked {
			return ApprovalState{}, fmt.Errorf("advisor rejection forces the coordinator tier to blocked, got %q", coordinator)
		}
	case ApprovalApproved:
		if coordinator == ApprovalBlocked {
			return ApprovalState{}, fmt.Errorf("coordinator tier cannot be blocked after advisor approval")
		}
	}

	return ApprovalState{Advisor: advisor, Coordinator: coordinator}, nil
}

// AdvisorActionable reports whether the advisor tier can still decide.
func (s ApprovalState) AdvisorActionable() bool {
	return s.Advisor == ApprovalPending
}

// CoordinatorActionable reports whether the coordinator tier can decide.
func (s ApprovalState) CoordinatorActionable() bool {
	return s.Advisor == ApprovalApproved && s.Coordinator == ApprovalPending
}

// Accepted reports whether both tiers signed off.
func (s ApprovalState) Accepted() bool {
	return s.Advisor == ApprovalApproved && s.Coordinator == ApprovalApproved
}

// Terminal reports whether the deliverable can no longer change state, which
// happens on a rejection at either tier or on full acceptance.
func (s ApprovalState) Terminal() bool {
	return s.Advisor == ApprovalRejected || s.Coordinator == ApprovalRejected || s.Accepted()
}
