package dto

// ReviewDraftResponse carries an AI-suggested feedback draft. The reviewer
// always edits and submits the final text themselves.
type ReviewDraftResponse struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
	Draft     string   `json:"draft"`
}
