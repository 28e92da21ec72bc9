package ai

import "context"

// ReviewInput carries the artefact context a reviewer wants a draft for.
type ReviewInput struct {
	Title           string
	Kind            string
	Field           string
	StudentSummary  string
	ReviewerRole    string
	ReviewerNotes   string
	PriorFeedback   string
	AdditionalNotes string
}

// ReviewDraft is the structured feedback suggestion returned by the model.
type ReviewDraft struct {
	Summary   string                 `json:"summary"`
	Strengths []string               `json:"strengths"`
	Concerns  []string               `json:"concerns"`
	Draft     string                 `json:"draft"`
	Raw       map[string]interface{} `json:"raw,omitempty"`
}

// Assistant describes a model capable of drafting review feedback.
type Assistant interface {
	Draft(ctx context.Context, input ReviewInput) (ReviewDraft, error)
}
